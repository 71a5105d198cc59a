// Package corpus keeps per-entity knowledge stores synchronized with the
// user's filter state. It caches store handles and loaded-document sets for
// the lifetime of a session, computes incremental document deltas when
// filters change, and dispatches ingestion batches to the transport.
package corpus

import (
	"context"
	"errors"
)

// StoreHandle is an opaque reference to an externally provisioned
// knowledge store.
type StoreHandle string

// MatchedDocument is one (document id, category) pair returned by the
// filter-query backend, in backend order.
type MatchedDocument struct {
	ID       string
	Category string
}

// SyncState describes the outcome of a fingerprint comparison.
type SyncState int

const (
	// SyncUnchanged means the stored fingerprint matches; the store is current.
	SyncUnchanged SyncState = iota
	// SyncInitial means no fingerprint was stored for the entity yet.
	SyncInitial
	// SyncDelta means a prior fingerprint exists and differs.
	SyncDelta
)

func (s SyncState) String() string {
	switch s {
	case SyncUnchanged:
		return "unchanged"
	case SyncInitial:
		return "initial setup"
	case SyncDelta:
		return "query changed"
	default:
		return "unknown"
	}
}

// Delta is the result of resolving a matched document set against an
// entity's loaded set. Matched and New preserve backend order. TypeCounts
// covers the full matched set, not just the new documents, so callers can
// display the category distribution of the current filter selection.
type Delta struct {
	New        []string
	Matched    []string
	TypeCounts map[string]int
	// Initial is true when the loaded set was empty, i.e. this is the
	// first sync for the entity rather than an increment.
	Initial bool
}

// Empty reports whether there is nothing to ingest.
func (d Delta) Empty() bool { return len(d.New) == 0 }

// Provisioner creates knowledge stores on the external service.
type Provisioner interface {
	Provision(ctx context.Context, name string) (StoreHandle, error)
}

// Ingestor pushes a batch of documents into a knowledge store. The call
// blocks until the transport reports success, failure, or timeout; there
// is no partial-success signal.
type Ingestor interface {
	Ingest(ctx context.Context, handle StoreHandle, docIDs []string) error
}

// ErrIngestTimeout is returned by the dispatcher when the ingestion
// transport does not respond within the configured window.
var ErrIngestTimeout = errors.New("ingestion transport timed out")

// ErrNoIngestor is returned by the dispatcher when no ingestion transport
// is configured and a non-empty delta needs to be loaded.
var ErrNoIngestor = errors.New("no ingestion transport configured")
