// Package vectordb provides an in-process knowledge-store backend built on
// chromem-go. It provisions one collection per store, ingests documents by
// loading their text through a caller-supplied loader, and serves semantic
// search. Useful for development and tests where no remote store is wanted.
package vectordb

import (
	"context"
	"fmt"
	"path"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/embeddings"
	"github.com/ausiq/corpuschat/internal/llm"
)

const excerptLimit = 400

// ContentLoader resolves a document key to its text content.
type ContentLoader func(ctx context.Context, key string) (string, error)

// Local is an in-process knowledge-store backend. It implements
// corpus.Provisioner, corpus.Ingestor, and llm.Searcher.
type Local struct {
	db        *chromem.DB
	embedFunc chromem.EmbeddingFunc
	loader    ContentLoader

	mu          sync.Mutex
	collections map[corpus.StoreHandle]*chromem.Collection
}

// NewLocal creates a Local backend using the given embedder and loader.
func NewLocal(embedder embeddings.Embedder, loader ContentLoader) *Local {
	return &Local{
		db:          chromem.NewDB(),
		embedFunc:   embeddings.ToChromemFunc(embedder),
		loader:      loader,
		collections: make(map[corpus.StoreHandle]*chromem.Collection),
	}
}

// Provision creates an empty collection and returns its handle.
func (l *Local) Provision(ctx context.Context, name string) (corpus.StoreHandle, error) {
	col, err := l.db.GetOrCreateCollection(name, nil, l.embedFunc)
	if err != nil {
		return "", fmt.Errorf("creating collection %s: %w", name, err)
	}

	handle := corpus.StoreHandle("local_" + name)
	l.mu.Lock()
	l.collections[handle] = col
	l.mu.Unlock()
	return handle, nil
}

// Ingest loads each document's content and adds the whole batch to the
// store. A document that fails to load fails the batch.
func (l *Local) Ingest(ctx context.Context, handle corpus.StoreHandle, docIDs []string) error {
	if len(docIDs) == 0 {
		return nil
	}

	col, err := l.collection(handle)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, 0, len(docIDs))
	for _, id := range docIDs {
		content, err := l.loader(ctx, id)
		if err != nil {
			return fmt.Errorf("loading document %s: %w", id, err)
		}
		docs = append(docs, chromem.Document{
			ID:       id,
			Content:  content,
			Metadata: map[string]string{"filename": path.Base(id)},
		})
	}

	if err := col.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}
	return nil
}

// Search runs a semantic query against one store.
func (l *Local) Search(ctx context.Context, vectorStoreID, query string, limit int) ([]llm.SearchResult, error) {
	col, err := l.collection(corpus.StoreHandle(vectorStoreID))
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 10
	}
	// chromem-go requires nResults <= collection size.
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	hits, err := col.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	results := make([]llm.SearchResult, len(hits))
	for i, h := range hits {
		excerpt := h.Content
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit]
		}
		filename := h.Metadata["filename"]
		if filename == "" {
			filename = h.ID
		}
		results[i] = llm.SearchResult{
			Filename: filename,
			Score:    float64(h.Similarity),
			Excerpt:  excerpt,
		}
	}
	return results, nil
}

// Count returns the number of documents in one store.
func (l *Local) Count(handle corpus.StoreHandle) int {
	col, err := l.collection(handle)
	if err != nil {
		return 0
	}
	return col.Count()
}

func (l *Local) collection(handle corpus.StoreHandle) (*chromem.Collection, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	col, ok := l.collections[handle]
	if !ok {
		return nil, fmt.Errorf("unknown store %s", handle)
	}
	return col, nil
}
