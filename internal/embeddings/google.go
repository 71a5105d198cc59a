package embeddings

import (
	"context"
	"fmt"
	"net/http"
)

const googleEmbedURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:embedContent?key=%s"

// GoogleModel is a Google Generative AI embedding model.
type GoogleModel string

const ModelGeminiEmbedding001 GoogleModel = "gemini-embedding-001"

// GoogleEmbedder calls the Google Generative AI embedContent endpoint.
// The API embeds one text per call, so batches are issued sequentially.
type GoogleEmbedder struct {
	apiKey string
	model  GoogleModel
	client *http.Client
}

func NewGoogleEmbedder(apiKey string, model GoogleModel) *GoogleEmbedder {
	return &GoogleEmbedder{apiKey: apiKey, model: model, client: &http.Client{}}
}

func (e *GoogleEmbedder) Name() string { return string(e.model) }

func (e *GoogleEmbedder) Dimensions() int {
	// gemini-embedding-001 produces 3072-wide vectors.
	return 3072
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		payload := map[string]any{
			"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			},
		}
		var result struct {
			Embedding struct {
				Values []float32 `json:"values"`
			} `json:"embedding"`
		}

		url := fmt.Sprintf(googleEmbedURL, e.model, e.apiKey)
		if err := postJSON(ctx, e.client, url, payload, &result); err != nil {
			return nil, fmt.Errorf("google embedding: %w", err)
		}
		if len(result.Embedding.Values) == 0 {
			return nil, fmt.Errorf("google embedding: empty vector returned")
		}
		vectors = append(vectors, result.Embedding.Values)
	}
	return vectors, nil
}
