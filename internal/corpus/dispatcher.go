package corpus

import (
	"context"
	"errors"
	"time"
)

// IngestReport summarizes a completed dispatch.
type IngestReport struct {
	Requested int
	Elapsed   time.Duration
}

// Dispatcher pushes document deltas to the ingestion transport as a single
// batch per call. It does not retry: any non-success outcome leaves the
// cache's loaded set untouched, and the full delta is recomputed on the
// next sync check.
type Dispatcher struct {
	ingestor Ingestor
	timeout  time.Duration
}

// NewDispatcher creates a dispatcher with the given transport timeout.
// A zero timeout disables the deadline.
func NewDispatcher(ing Ingestor, timeout time.Duration) *Dispatcher {
	return &Dispatcher{ingestor: ing, timeout: timeout}
}

// Dispatch sends all docIDs to the store in one batch. On timeout it
// returns ErrIngestTimeout; callers must not call MarkReady in that case.
func (d *Dispatcher) Dispatch(ctx context.Context, handle StoreHandle, docIDs []string) (IngestReport, error) {
	report := IngestReport{Requested: len(docIDs)}
	if len(docIDs) == 0 {
		return report, nil
	}
	if d.ingestor == nil {
		return report, ErrNoIngestor
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	err := d.ingestor.Ingest(ctx, handle, docIDs)
	report.Elapsed = time.Since(start)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrIngestTimeout) {
		return report, ErrIngestTimeout
	}
	return report, err
}
