package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/chat"
	"github.com/ausiq/corpuschat/internal/config"
	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/db"
	"github.com/ausiq/corpuschat/internal/embeddings"
	"github.com/ausiq/corpuschat/internal/ingest"
	"github.com/ausiq/corpuschat/internal/llm"
	"github.com/ausiq/corpuschat/internal/progress"
	"github.com/ausiq/corpuschat/internal/session"
	"github.com/ausiq/corpuschat/internal/transcript"
	"github.com/ausiq/corpuschat/internal/vectordb"
)

// deps holds everything the chat surfaces need, wired from config.
type deps struct {
	cfg           *config.Config
	db            *db.DB
	announcements *announce.Store
	transcripts   *transcript.Store
	provisioner   corpus.Provisioner
	ingestor      corpus.Ingestor
	generator     llm.Generator
	summarizer    llm.Summarizer
	searcher      llm.Searcher
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `corpuschat init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createEmbedderFromConfig creates an embeddings.Embedder for the local
// backend based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.DefaultEmbeddingModel(cfg.EmbeddingProvider)
	}

	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model)), nil
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		return embeddings.NewGoogleEmbedder(apiKey, embeddings.GoogleModel(model)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(model, 768, ""), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// buildStoreDeps opens the database and wires the stores only. Commands
// that never talk to a backend use this directly.
func buildStoreDeps(cfg *config.Config) (*deps, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	return &deps{
		cfg:           cfg,
		db:            database,
		announcements: announce.NewStore(database, cfg.IgnoreKeys),
		transcripts:   transcript.NewStore(database),
	}, nil
}

// buildDeps opens the database and wires the configured backend.
func buildDeps(cfg *config.Config) (*deps, error) {
	d, err := buildStoreDeps(cfg)
	if err != nil {
		return nil, err
	}
	database := d.db

	switch cfg.Backend {
	case config.BackendOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			database.Close()
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
		}
		client := llm.NewOpenAIClient(apiKey, cfg.SummaryModel)
		client.SetStoreExpiryDays(cfg.StoreExpiryDays)

		d.provisioner = client
		d.generator = client
		d.searcher = client
		d.summarizer = llm.NewRateLimitedSummarizer(client, 30)

		if cfg.Ingest.WebhookURL != "" {
			d.ingestor = ingest.NewWebhook(cfg.Ingest.WebhookURL, cfg.Ingest.Bucket,
				time.Duration(cfg.Ingest.TimeoutSeconds)*time.Second)
		}

	case config.BackendLocal:
		embedder, err := createEmbedderFromConfig(cfg)
		if err != nil {
			database.Close()
			return nil, err
		}
		local := vectordb.NewLocal(embedder, d.announcements.Content)
		d.provisioner = local
		d.ingestor = local
		d.searcher = local

	default:
		database.Close()
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	return d, nil
}

// sessionFactory returns a factory creating fully wired sessions.
func (d *deps) sessionFactory(reporter progress.Reporter) func() *session.Session {
	return func() *session.Session {
		controller := chat.NewController(d.generator)
		controller.ChunkDelay = time.Duration(d.cfg.ChunkDelayMS) * time.Millisecond

		return session.New(session.Deps{
			Cache:         corpus.NewCache(d.provisioner),
			Dispatcher:    corpus.NewDispatcher(d.ingestor, time.Duration(d.cfg.Ingest.TimeoutSeconds)*time.Second),
			Controller:    controller,
			Announcements: d.announcements,
			Transcripts:   d.transcripts,
			Summarizer:    d.summarizer,
			Searcher:      d.searcher,
			Reporter:      reporter,
			Model:         d.cfg.Model,
			Confidence:    d.cfg.Confidence,
			MaxCitations:  d.cfg.MaxCitations,
			UserEmail:     d.cfg.UserEmail,
		})
	}
}

func (d *deps) Close() error {
	return d.db.Close()
}

// requireIngestor reports an error when no ingestion transport is wired,
// so store syncs fail up front instead of at dispatch time.
func (d *deps) requireIngestor() error {
	if d.ingestor == nil {
		return fmt.Errorf("ingest.webhook_url is not configured; documents cannot reach the knowledge store")
	}
	return nil
}

// requireGeneration reports an error when the backend cannot answer chat
// questions.
func (d *deps) requireGeneration() error {
	if d.generator == nil {
		return fmt.Errorf("the %q backend does not support chat; use backend: openai", d.cfg.Backend)
	}
	return d.requireIngestor()
}
