package llm

import "context"

// Generator opens live generation streams grounded on a knowledge store.
type Generator interface {
	// Stream starts a generation attempt and returns its event stream.
	// Transport errors may surface either here or from EventStream.Err
	// after iteration stops.
	Stream(ctx context.Context, req GenerationRequest) (EventStream, error)
}

// EventStream is a pull iterator over classified generation events. The
// sequence is lazy, finite, and not restartable.
type EventStream interface {
	Next() bool
	Current() StreamEvent
	Err() error
	Close() error
}

// Summarizer condenses one question/answer exchange into a short summary
// for the rolling conversation memory.
type Summarizer interface {
	Summarize(ctx context.Context, exchange string) (string, error)
}

// Searcher runs a semantic query against a knowledge store.
type Searcher interface {
	Search(ctx context.Context, vectorStoreID, query string, limit int) ([]SearchResult, error)
}
