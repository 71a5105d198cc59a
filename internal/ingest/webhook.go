// Package ingest dispatches document batches to an external ingestion
// endpoint that downloads the documents and attaches them to a knowledge
// store.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ausiq/corpuschat/internal/corpus"
)

// batchRequest is the wire format the ingestion endpoint accepts: one batch
// of object keys bound to a destination store.
type batchRequest struct {
	Bucket  string   `json:"bucket,omitempty"`
	Keys    []string `json:"keys"`
	StoreID string   `json:"store_id"`
}

// Webhook posts ingestion batches to an HTTP endpoint. It implements
// corpus.Ingestor.
type Webhook struct {
	url     string
	bucket  string
	timeout time.Duration
	client  *http.Client
}

// NewWebhook creates a webhook ingestor. timeout bounds the whole request;
// exceeding it is reported as corpus.ErrIngestTimeout.
func NewWebhook(endpoint, bucket string, timeout time.Duration) *Webhook {
	return &Webhook{
		url:     endpoint,
		bucket:  bucket,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ingest posts the whole batch in a single request.
func (w *Webhook) Ingest(ctx context.Context, handle corpus.StoreHandle, docIDs []string) error {
	body, err := json.Marshal(batchRequest{Bucket: w.bucket, Keys: docIDs, StoreID: string(handle)})
	if err != nil {
		return fmt.Errorf("encoding ingest batch: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building ingest request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return corpus.ErrIngestTimeout
		}
		return fmt.Errorf("posting ingest batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ingest endpoint returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return true
	}
	return false
}
