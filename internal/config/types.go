package config

// Backend selects the knowledge-store backend.
type Backend string

const (
	// BackendOpenAI provisions remote vector stores and generates through
	// the Responses API.
	BackendOpenAI Backend = "openai"
	// BackendLocal keeps the knowledge store in process, for development
	// and tests.
	BackendLocal Backend = "local"
)

// ProviderType identifies an embedding provider for the local backend.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level corpuschat configuration, corresponding to
// .corpuschat.yml.
type Config struct {
	Backend           Backend      `yaml:"backend" koanf:"backend"`
	Model             string       `yaml:"model" koanf:"model"`
	SummaryModel      string       `yaml:"summary_model" koanf:"summary_model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DBPath            string       `yaml:"db_path" koanf:"db_path"`
	Confidence        float64      `yaml:"confidence" koanf:"confidence"`
	MaxCitations      int          `yaml:"max_citations" koanf:"max_citations"`
	ChunkDelayMS      int          `yaml:"chunk_delay_ms" koanf:"chunk_delay_ms"`
	StoreExpiryDays   int          `yaml:"store_expiry_days" koanf:"store_expiry_days"`
	LookbackDays      int          `yaml:"lookback_days" koanf:"lookback_days"`
	IgnoreKeys        []string     `yaml:"ignore_keys" koanf:"ignore_keys"`
	UserEmail         string       `yaml:"user_email" koanf:"user_email"`
	Ingest            IngestConfig `yaml:"ingest" koanf:"ingest"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
}

// IngestConfig holds the ingestion webhook settings.
type IngestConfig struct {
	WebhookURL     string `yaml:"webhook_url" koanf:"webhook_url"`
	Bucket         string `yaml:"bucket" koanf:"bucket"`
	TimeoutSeconds int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}
