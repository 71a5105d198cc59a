package llm

// EventType classifies events arriving on a live generation stream.
type EventType int

const (
	// EventTextDelta carries a fragment of generated text.
	EventTextDelta EventType = iota
	// EventCitationAdded carries one reference annotation.
	EventCitationAdded
	// EventCompleted signals normal end of generation.
	EventCompleted
	// EventFailed signals the service aborted the response.
	EventFailed
	// EventIncomplete signals a truncated response; the stream may still
	// deliver further events.
	EventIncomplete
	// EventCancelled signals the service cancelled the response.
	EventCancelled
)

// CitationKind distinguishes file-backed from web-backed citations.
type CitationKind int

const (
	CitationFile CitationKind = iota
	CitationWeb
)

// Citation is a reference annotation in normalized form. The service
// reports annotations in several shapes; they are collapsed into this
// variant at the adapter boundary and everything downstream operates on it.
type Citation struct {
	Kind     CitationKind
	Filename string // file citations
	Title    string // web citations
	URL      string // web citations
}

// Usage reports token consumption for a completed response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// StreamEvent is one classified event from the generation stream.
type StreamEvent struct {
	Type     EventType
	Text     string    // EventTextDelta
	Citation *Citation // EventCitationAdded
	Usage    *Usage    // EventCompleted
	Detail   string    // service-reported diagnostic, logged not shown
}

// GenerationRequest describes one grounded generation attempt.
type GenerationRequest struct {
	Model         string
	Instructions  string
	Prompt        string
	VectorStoreID string
	MaxCitations  int
}

// SearchResult is one ranked hit from a knowledge-store search.
type SearchResult struct {
	Filename string
	Score    float64
	Excerpt  string
}
