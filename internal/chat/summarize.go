package chat

import (
	"context"
	"fmt"
	"log"

	"github.com/ausiq/corpuschat/internal/llm"
)

// UpdateMemory summarizes a completed exchange and appends the result to
// the rolling memory. Summarization failure never fails the turn: the
// memory is simply left unchanged and the cause is logged.
func UpdateMemory(ctx context.Context, summarizer llm.Summarizer, memory *Memory, question, answer string) {
	exchange := fmt.Sprintf("User: %s | Assistant: %s", question, answer)

	summary, err := summarizer.Summarize(ctx, exchange)
	if err != nil {
		log.Printf("chat: summarizing exchange: %v", err)
		return
	}
	memory.Append(summary)
}
