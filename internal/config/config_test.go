package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendOpenAI {
		t.Errorf("expected default backend %q, got %q", BackendOpenAI, cfg.Backend)
	}
	if cfg.Model != "gpt-5-mini" {
		t.Errorf("expected default model gpt-5-mini, got %q", cfg.Model)
	}
	if cfg.Confidence != 0.7 {
		t.Errorf("expected default confidence 0.7, got %f", cfg.Confidence)
	}
	if cfg.ChunkDelayMS != 40 {
		t.Errorf("expected default chunk_delay_ms 40, got %d", cfg.ChunkDelayMS)
	}
	if cfg.StoreExpiryDays != 1 {
		t.Errorf("expected default store_expiry_days 1, got %d", cfg.StoreExpiryDays)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.corpuschat.yml")

	original := DefaultConfig()
	original.Backend = BackendLocal
	original.Model = "gpt-4o"
	original.EmbeddingProvider = ProviderOllama
	original.EmbeddingModel = "nomic-embed-text"
	original.Confidence = 0.85
	original.IgnoreKeys = []string{"**/drafts/**", "*.bak"}
	original.Ingest.WebhookURL = "https://example.com/ingest"

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.Backend != original.Backend {
		t.Errorf("backend: got %q, want %q", loaded.Backend, original.Backend)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.EmbeddingProvider != original.EmbeddingProvider {
		t.Errorf("embedding_provider: got %q, want %q", loaded.EmbeddingProvider, original.EmbeddingProvider)
	}
	if loaded.Confidence != original.Confidence {
		t.Errorf("confidence: got %f, want %f", loaded.Confidence, original.Confidence)
	}
	if loaded.Ingest.WebhookURL != original.Ingest.WebhookURL {
		t.Errorf("webhook_url: got %q, want %q", loaded.Ingest.WebhookURL, original.Ingest.WebhookURL)
	}
	if len(loaded.IgnoreKeys) != len(original.IgnoreKeys) {
		t.Errorf("ignore_keys length: got %d, want %d", len(loaded.IgnoreKeys), len(original.IgnoreKeys))
	}
	for i, v := range loaded.IgnoreKeys {
		if v != original.IgnoreKeys[i] {
			t.Errorf("ignore_keys[%d]: got %q, want %q", i, v, original.IgnoreKeys[i])
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Backend != BackendOpenAI {
		t.Errorf("expected default backend, got %q", cfg.Backend)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Override backend via env var.
	os.Setenv("CORPUSCHAT_BACKEND", "local")
	defer os.Unsetenv("CORPUSCHAT_BACKEND")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Backend != BackendLocal {
		t.Errorf("env override failed: got %q, want %q", loaded.Backend, BackendLocal)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalidBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "cloud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid backend")
	}
}

func TestValidateEmptyBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty backend")
	}
}

func TestValidateEmptyModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for empty model")
	}
}

func TestValidateLocalBackendNeedsEmbeddingProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = BackendLocal
	cfg.EmbeddingProvider = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for invalid embedding_provider")
	}
}

func TestValidateConfidenceRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Confidence = 1.2
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for confidence > 1")
	}
	cfg.Confidence = -0.1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative confidence")
	}
}

func TestValidateNegativeChunkDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ChunkDelayMS = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for negative chunk_delay_ms")
	}
}

func TestValidateZeroCitations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxCitations = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error for zero max_citations")
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderGoogle, "GOOGLE_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestDefaultEmbeddingModel(t *testing.T) {
	if got := DefaultEmbeddingModel(ProviderOllama); got != "nomic-embed-text" {
		t.Errorf("DefaultEmbeddingModel(ollama) = %q", got)
	}
	if got := DefaultEmbeddingModel("unknown"); got != "text-embedding-3-small" {
		t.Errorf("DefaultEmbeddingModel(unknown) = %q", got)
	}
}
