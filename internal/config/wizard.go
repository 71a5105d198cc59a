package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .corpuschat.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to corpuschat! Let's configure your workspace.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Backend selection.
	backendPrompt := promptui.Select{
		Label: "Select knowledge-store backend",
		Items: []string{
			"openai — remote vector stores via the OpenAI API",
			"local  — in-process store for development",
		},
	}
	backendIdx, _, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	backends := []Backend{BackendOpenAI, BackendLocal}
	cfg.Backend = backends[backendIdx]

	// 2. Chat model.
	modelPrompt := promptui.Prompt{
		Label:   "Chat model",
		Default: cfg.Model,
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Embedding provider for the local backend.
	if cfg.Backend == BackendLocal {
		providerPrompt := promptui.Select{
			Label: "Select embedding provider",
			Items: []string{"openai", "google", "ollama"},
		}
		_, providerStr, err := providerPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding provider selection: %w", err)
		}
		cfg.EmbeddingProvider = ProviderType(providerStr)
		cfg.EmbeddingModel = DefaultEmbeddingModel(cfg.EmbeddingProvider)
	}

	// 4. Ingestion webhook for the remote backend.
	if cfg.Backend == BackendOpenAI {
		webhookPrompt := promptui.Prompt{
			Label:   "Ingestion webhook URL (leave blank to configure later)",
			Default: "",
		}
		if cfg.Ingest.WebhookURL, err = webhookPrompt.Run(); err != nil {
			return nil, fmt.Errorf("webhook url: %w", err)
		}
	}

	// 5. Database path.
	dbPrompt := promptui.Prompt{
		Label:   "Database path",
		Default: cfg.DBPath,
	}
	if cfg.DBPath, err = dbPrompt.Run(); err != nil {
		return nil, fmt.Errorf("db path: %w", err)
	}

	// 6. Lookback window.
	lookbackPrompt := promptui.Prompt{
		Label:   "Default announcement lookback (days)",
		Default: strconv.Itoa(cfg.LookbackDays),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive number")
			}
			return nil
		},
	}
	lookbackStr, err := lookbackPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("lookback days: %w", err)
	}
	cfg.LookbackDays, _ = strconv.Atoi(lookbackStr)

	// Check for API key.
	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Println("\nNote: Set OPENAI_API_KEY in your environment before running corpuschat chat.")
	}

	// Save to .corpuschat.yml.
	configPath := ".corpuschat.yml"
	if err := cfg.Save(configPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	return cfg, nil
}
