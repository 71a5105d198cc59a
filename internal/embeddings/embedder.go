// Package embeddings provides the text-embedding backends for the local
// knowledge store.
package embeddings

import (
	"context"

	chromem "github.com/philippgille/chromem-go"
)

// Embedder turns announcement text into embedding vectors.
type Embedder interface {
	// Embed returns one vector per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of the vectors this embedder produces.
	Dimensions() int

	// Name identifies the underlying model.
	Name() string
}

// ToChromemFunc adapts an Embedder to the single-text function chromem-go
// collections expect.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		vectors, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) == 0 {
			return nil, nil
		}
		return vectors[0], nil
	}
}
