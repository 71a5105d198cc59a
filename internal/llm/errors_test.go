package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	openai "github.com/openai/openai-go"
)

func apiError(status int, msg string) error {
	return &openai.Error{StatusCode: status, Message: msg}
}

func TestClassifyStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   ErrorClass
		retry  bool
	}{
		{"not found", apiError(404, "no such vector store"), ClassNotFound, false},
		{"bad request", apiError(400, "invalid model"), ClassBadRequest, false},
		{"unprocessable", apiError(422, "bad payload"), ClassBadRequest, false},
		{"server fault", apiError(500, "internal error"), ClassServerFault, true},
		{"bad gateway", apiError(502, "upstream down"), ClassServerFault, true},
		{"rate limited", apiError(429, "slow down"), ClassStatus, false},
		{"unauthorized", apiError(401, "bad key"), ClassStatus, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.err)
			if c.Class != tt.want {
				t.Errorf("Classify(%v).Class = %v, want %v", tt.err, c.Class, tt.want)
			}
			if c.Class.Retryable() != tt.retry {
				t.Errorf("Retryable() = %v, want %v", c.Class.Retryable(), tt.retry)
			}
		})
	}
}

func TestClassifyWrappedAPIError(t *testing.T) {
	err := fmt.Errorf("stream: %w", apiError(503, "overloaded"))
	if c := Classify(err); c.Class != ClassServerFault {
		t.Errorf("wrapped 503 classified as %v, want ClassServerFault", c.Class)
	}
}

func TestClassifyConnectionErrors(t *testing.T) {
	var netErr error = &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	if c := Classify(netErr); c.Class != ClassConnection {
		t.Errorf("net error classified as %v, want ClassConnection", c.Class)
	}

	urlErr := &url.Error{Op: "Post", URL: "https://api.example.com", Err: errors.New("timeout")}
	if c := Classify(urlErr); c.Class != ClassConnection {
		t.Errorf("url error classified as %v, want ClassConnection", c.Class)
	}

	if c := Classify(context.DeadlineExceeded); c.Class != ClassConnection {
		t.Errorf("deadline classified as %v, want ClassConnection", c.Class)
	}
}

func TestClassifyUnknown(t *testing.T) {
	c := Classify(errors.New("something odd"))
	if c.Class != ClassUnknown {
		t.Errorf("Class = %v, want ClassUnknown", c.Class)
	}
	if c.Class.Retryable() {
		t.Error("unknown errors must not be retried")
	}
}

func TestClassifyMessagePreserved(t *testing.T) {
	c := Classify(apiError(400, "model parameter missing"))
	if c.Message != "model parameter missing" {
		t.Errorf("Message = %q, want service detail preserved", c.Message)
	}
	if c.Status != 400 {
		t.Errorf("Status = %d, want 400", c.Status)
	}
}
