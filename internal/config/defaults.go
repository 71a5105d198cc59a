package config

// embeddingModels maps each embedding provider to its default model.
var embeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderGoogle: "gemini-embedding-001",
	ProviderOllama: "nomic-embed-text",
}

// DefaultIgnoreKeys are document-key glob patterns excluded from filter
// results by default.
var DefaultIgnoreKeys = []string{
	"**/drafts/**",
	"**/*.tmp",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:           BackendOpenAI,
		Model:             "gpt-5-mini",
		SummaryModel:      "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    embeddingModels[ProviderOpenAI],
		DBPath:            ".corpuschat/corpuschat.db",
		Confidence:        0.7,
		MaxCitations:      20,
		ChunkDelayMS:      40,
		StoreExpiryDays:   1,
		LookbackDays:      180,
		IgnoreKeys:        DefaultIgnoreKeys,
		Ingest: IngestConfig{
			Bucket:         "asx-storage",
			TimeoutSeconds: 120,
		},
		Server: ServerConfig{
			Port: 8080,
		},
	}
}

// DefaultEmbeddingModel returns the default embedding model for a provider.
func DefaultEmbeddingModel(provider ProviderType) string {
	if model, ok := embeddingModels[provider]; ok {
		return model
	}
	return embeddingModels[ProviderOpenAI]
}
