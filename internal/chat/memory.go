package chat

import (
	"strings"
)

// maxSummaries bounds the rolling conversation memory. Older summaries
// are dropped FIFO once the bound is reached.
const maxSummaries = 5

const memoryHeader = "## Conversation History Summary:"

// Memory is the bounded rolling history of exchange summaries for one
// session. It is rebuilt into the instruction preamble on every turn.
type Memory struct {
	summaries []string
}

// Append adds one summary, dropping from the front until at most
// maxSummaries remain.
func (m *Memory) Append(summary string) {
	m.summaries = append(m.summaries, summary)
	if len(m.summaries) > maxSummaries {
		m.summaries = m.summaries[len(m.summaries)-maxSummaries:]
	}
}

// Render returns the memory as a header plus one bullet per summary in
// chronological order, or the empty string when there is no history.
func (m *Memory) Render() string {
	if len(m.summaries) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(memoryHeader)
	for _, s := range m.summaries {
		sb.WriteString("\n- ")
		sb.WriteString(s)
	}
	return sb.String()
}

// Len returns the number of retained summaries.
func (m *Memory) Len() int { return len(m.summaries) }

// Summaries returns a copy of the retained summaries, oldest first.
func (m *Memory) Summaries() []string {
	out := make([]string, len(m.summaries))
	copy(out, m.summaries)
	return out
}

// Clear drops all history. Called when the session switches entities.
func (m *Memory) Clear() { m.summaries = nil }
