package embeddings

import (
	"context"
	"fmt"
	"net/http"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder calls a local Ollama instance's embed endpoint, for fully
// offline use of the local backend.
type OllamaEmbedder struct {
	baseURL    string
	model      string
	dimensions int
	client     *http.Client
}

// NewOllamaEmbedder creates an embedder for the given Ollama model, e.g.
// "nomic-embed-text". dimensions must match the model's output width.
// An empty baseURL falls back to the default local instance.
func NewOllamaEmbedder(model string, dimensions int, baseURL string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	return &OllamaEmbedder{
		baseURL:    baseURL,
		model:      model,
		dimensions: dimensions,
		client:     &http.Client{},
	}
}

func (e *OllamaEmbedder) Name() string { return "ollama/" + e.model }

func (e *OllamaEmbedder) Dimensions() int { return e.dimensions }

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		payload := map[string]string{"model": e.model, "input": text}
		var result struct {
			Embeddings [][]float32 `json:"embeddings"`
		}

		if err := postJSON(ctx, e.client, e.baseURL+"/api/embed", payload, &result); err != nil {
			return nil, fmt.Errorf("ollama embedding: %w", err)
		}
		if len(result.Embeddings) == 0 {
			return nil, fmt.Errorf("ollama embedding: no vectors returned")
		}
		vectors = append(vectors, result.Embeddings[0])
	}
	return vectors, nil
}
