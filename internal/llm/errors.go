package llm

import (
	"context"
	"errors"
	"net"
	"net/url"

	openai "github.com/openai/openai-go"
)

// ErrorClass buckets transport-level failures for the retry policy.
type ErrorClass int

const (
	// ClassUnknown is an unclassified error; surfaced generically, never retried.
	ClassUnknown ErrorClass = iota
	// ClassNotFound is a bad model or store reference; never retried.
	ClassNotFound
	// ClassBadRequest is a malformed request; never retried.
	ClassBadRequest
	// ClassServerFault is a transient service-side fault; retried with backoff.
	ClassServerFault
	// ClassConnection is a network-level failure; retried with backoff.
	ClassConnection
	// ClassStatus is any other service-reported status error; never retried.
	ClassStatus
)

// Retryable reports whether the class qualifies for the backoff retry loop.
func (c ErrorClass) Retryable() bool {
	return c == ClassServerFault || c == ClassConnection
}

func (c ErrorClass) String() string {
	switch c {
	case ClassNotFound:
		return "not found"
	case ClassBadRequest:
		return "bad request"
	case ClassServerFault:
		return "server fault"
	case ClassConnection:
		return "connection failure"
	case ClassStatus:
		return "status error"
	default:
		return "unexpected error"
	}
}

// Classified carries the classification outcome alongside the
// service-reported detail.
type Classified struct {
	Class   ErrorClass
	Status  int
	Message string
}

// Classify buckets a stream or request error. Service status codes map to
// their classes; network errors and deadline expiry count as connection
// failures; anything else is unknown.
func Classify(err error) Classified {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		c := Classified{Status: apierr.StatusCode, Message: apierr.Message}
		switch {
		case apierr.StatusCode == 404:
			c.Class = ClassNotFound
		case apierr.StatusCode == 400 || apierr.StatusCode == 422:
			c.Class = ClassBadRequest
		case apierr.StatusCode >= 500:
			c.Class = ClassServerFault
		default:
			c.Class = ClassStatus
		}
		return c
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) {
		return Classified{Class: ClassConnection, Message: err.Error()}
	}

	return Classified{Class: ClassUnknown, Message: err.Error()}
}
