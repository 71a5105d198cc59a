package llm

import (
	"context"
	"sync"
	"time"
)

// RateLimitedSummarizer wraps a Summarizer with a token bucket limiter.
// Summaries run after every completed turn, so an unguarded burst of short
// turns can otherwise trip the service's request-per-minute cap.
type RateLimitedSummarizer struct {
	summarizer Summarizer
	rpm        int
	mu         sync.Mutex
	tokens     int
	lastFill   time.Time
}

// NewRateLimitedSummarizer wraps the given summarizer with a limiter that
// allows at most rpm requests per minute.
func NewRateLimitedSummarizer(s Summarizer, rpm int) Summarizer {
	return &RateLimitedSummarizer{
		summarizer: s,
		rpm:        rpm,
		tokens:     rpm,
		lastFill:   time.Now(),
	}
}

func (r *RateLimitedSummarizer) Summarize(ctx context.Context, exchange string) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	return r.summarizer.Summarize(ctx, exchange)
}

func (r *RateLimitedSummarizer) wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		now := time.Now()
		elapsed := now.Sub(r.lastFill)

		refill := int(elapsed.Seconds() * float64(r.rpm) / 60.0)
		if refill > 0 {
			r.tokens += refill
			if r.tokens > r.rpm {
				r.tokens = r.rpm
			}
			r.lastFill = now
		}

		if r.tokens > 0 {
			r.tokens--
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}
}
