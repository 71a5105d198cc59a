// Package chat runs grounded generation turns: it drives the live event
// stream from the generation service, applies the per-class retry policy,
// paces text chunks to the consumer, and maintains the session's rolling
// conversation memory.
package chat

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/ausiq/corpuschat/internal/citation"
	"github.com/ausiq/corpuschat/internal/llm"
)

// Status is the completion status of one generation turn.
type Status int

const (
	StatusCompleted Status = iota
	StatusFailed
	StatusIncomplete
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusIncomplete:
		return "incomplete"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Turn is the outcome of one user prompt: the accumulated response, the
// processed reference block, and the completion status. It exists for the
// duration of one turn and is folded into memory and the transcript by
// the session.
type Turn struct {
	Prompt     string
	Response   string
	References string
	Citations  []llm.Citation
	Status     Status
	TokensUsed int64
}

// Controller issues grounded generation requests and consumes their event
// streams. A controller handles one stream at a time; retries are strictly
// sequential and each attempt starts with a fresh response buffer.
type Controller struct {
	gen llm.Generator

	// MaxAttempts bounds the attempt loop, including the first try.
	MaxAttempts int
	// BaseDelay seeds the exponential backoff between retryable attempts.
	BaseDelay time.Duration
	// ChunkDelay paces emitted text chunks for smooth rendering. Purely
	// cosmetic; zero disables pacing.
	ChunkDelay time.Duration
	// Sleep performs backoff and pacing waits. Replaceable in tests.
	Sleep func(time.Duration)
}

// NewController creates a controller with the default retry policy:
// three attempts, exponential backoff with a one second base, and a 40ms
// inter-chunk delay.
func NewController(gen llm.Generator) *Controller {
	return &Controller{
		gen:         gen,
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		ChunkDelay:  40 * time.Millisecond,
		Sleep:       time.Sleep,
	}
}

// Generate runs one turn. Text chunks are pushed to onChunk in emission
// order; citations are buffered and only surfaced on the returned Turn
// after the stream completes normally. All terminal error text is itself
// yielded through onChunk and becomes the final turn content.
func (c *Controller) Generate(ctx context.Context, req llm.GenerationRequest, onChunk func(string)) *Turn {
	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		turn := &Turn{Prompt: req.Prompt}
		var buf strings.Builder
		var pending []llm.Citation

		stream, err := c.gen.Stream(ctx, req)
		if err == nil {
			err = c.consume(stream, turn, &buf, &pending, onChunk)
			stream.Close()
		}

		if err != nil {
			classified := llm.Classify(err)
			if classified.Class.Retryable() && attempt < c.MaxAttempts-1 {
				delay := c.BaseDelay << attempt
				log.Printf("chat: %s, retrying in %s (attempt %d/%d): %v",
					classified.Class, delay, attempt+1, c.MaxAttempts, err)
				c.Sleep(delay)
				continue
			}
			msg := terminalMessage(classified)
			log.Printf("chat: generation failed (%s): %v", classified.Class, err)
			onChunk(msg)
			turn.Response = msg
			turn.Status = StatusFailed
			return turn
		}

		turn.Response = buf.String()

		switch turn.Status {
		case StatusFailed, StatusCancelled:
			// Buffered citations are discarded with the attempt.
		default:
			turn.Citations = pending
			turn.References = citation.Process(pending)
		}
		return turn
	}

	// Unreachable: the final attempt always returns above.
	return &Turn{Prompt: req.Prompt, Status: StatusFailed}
}

// consume drives one attempt's event stream to its end. The turn's status
// starts as Completed and is downgraded by stream-semantic signals; a
// Failed or Cancelled signal stops consumption immediately.
func (c *Controller) consume(stream llm.EventStream, turn *Turn, buf *strings.Builder, pending *[]llm.Citation, onChunk func(string)) error {
	yield := func(text string) {
		buf.WriteString(text)
		onChunk(text)
	}

	for stream.Next() {
		event := stream.Current()
		switch event.Type {
		case llm.EventTextDelta:
			if c.ChunkDelay > 0 {
				c.Sleep(c.ChunkDelay)
			}
			yield(cleanChunk(event.Text))

		case llm.EventCitationAdded:
			if event.Citation != nil {
				*pending = append(*pending, *event.Citation)
			}

		case llm.EventFailed:
			log.Printf("chat: response failed: %s", event.Detail)
			yield("Response failed. Please try again.")
			turn.Status = StatusFailed
			// The failure is already surfaced through the turn status; a
			// pending transport error must not re-enter the retry loop.
			return nil

		case llm.EventIncomplete:
			// The stream may still be open; keep consuming.
			yield("Response was incomplete. Please try again.")
			turn.Status = StatusIncomplete

		case llm.EventCancelled:
			yield("Response was cancelled")
			turn.Status = StatusCancelled
			return nil

		case llm.EventCompleted:
			if event.Usage != nil {
				turn.TokensUsed = event.Usage.InputTokens + event.Usage.OutputTokens
			}
		}
	}
	return stream.Err()
}

// terminalMessage maps an exhausted or non-retryable error class to the
// string surfaced in place of generated content.
func terminalMessage(c llm.Classified) string {
	switch c.Class {
	case llm.ClassNotFound:
		return "Resource not found. Please check the model name or knowledge store."
	case llm.ClassBadRequest:
		return fmt.Sprintf("Invalid request: %s", c.Message)
	case llm.ClassServerFault:
		return "Server error. Please try again later."
	case llm.ClassConnection:
		return "Connection failed. Please check your internet connection."
	case llm.ClassStatus:
		return fmt.Sprintf("API error (status %d): %s", c.Status, c.Message)
	default:
		return "Unexpected error. Please try again."
	}
}

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// cleanChunk normalizes a text delta for terminal and web rendering: bold
// markers become backticks and dollar signs are escaped so they are not
// taken as math delimiters.
func cleanChunk(text string) string {
	text = boldRe.ReplaceAllString(text, "`$1`")
	return strings.ReplaceAll(text, "$", `\$`)
}
