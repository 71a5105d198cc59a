package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/ssestream"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/ausiq/corpuschat/internal/corpus"
)

const defaultStoreExpiryDays = 1

// OpenAIClient adapts the OpenAI Responses and vector-store APIs to the
// collaborator interfaces the core consumes: generation streaming, store
// provisioning, semantic search, and exchange summarization.
type OpenAIClient struct {
	api          openai.Client
	summaryModel string
	expiryDays   int
}

// NewOpenAIClient creates a client authenticated with the given API key.
// summaryModel is the model used for conversation-memory summaries.
func NewOpenAIClient(apiKey, summaryModel string) *OpenAIClient {
	return &OpenAIClient{
		api:          openai.NewClient(option.WithAPIKey(apiKey)),
		summaryModel: summaryModel,
		expiryDays:   defaultStoreExpiryDays,
	}
}

// SetStoreExpiryDays overrides the server-side inactivity expiry applied
// to newly provisioned stores.
func (c *OpenAIClient) SetStoreExpiryDays(days int) {
	if days > 0 {
		c.expiryDays = days
	}
}

// Provision creates a knowledge store that expires server-side after the
// configured inactivity window.
func (c *OpenAIClient) Provision(ctx context.Context, name string) (corpus.StoreHandle, error) {
	store, err := c.api.VectorStores.New(ctx, openai.VectorStoreNewParams{
		Name: openai.String(name),
		ExpiresAfter: openai.VectorStoreNewParamsExpiresAfter{
			Days: int64(c.expiryDays),
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating vector store %s: %w", name, err)
	}
	return corpus.StoreHandle(store.ID), nil
}

// Stream opens a live generation stream grounded on the request's store
// for document retrieval plus open-web search, with the citation limit
// applied to document retrieval.
func (c *OpenAIClient) Stream(ctx context.Context, req GenerationRequest) (EventStream, error) {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{OfString: openai.String(req.Prompt)},
		Tools: []responses.ToolUnionParam{
			{
				OfFileSearch: &responses.FileSearchToolParam{
					VectorStoreIDs: []string{req.VectorStoreID},
					MaxNumResults:  openai.Int(int64(req.MaxCitations)),
				},
			},
			{
				OfWebSearchPreview: &responses.WebSearchToolParam{
					Type: responses.WebSearchToolTypeWebSearchPreview,
				},
			},
		},
	}
	if strings.TrimSpace(req.Instructions) != "" {
		params.Instructions = openai.String(req.Instructions)
	}

	return &openAIStream{raw: c.api.Responses.NewStreaming(ctx, params)}, nil
}

// openAIStream filters the raw SSE event stream down to the classified
// events the controller consumes.
type openAIStream struct {
	raw     *ssestream.Stream[responses.ResponseStreamEventUnion]
	current StreamEvent
}

func (s *openAIStream) Next() bool {
	for s.raw.Next() {
		event := s.raw.Current()
		switch strings.TrimSpace(event.Type) {
		case "response.output_text.delta":
			delta := event.Delta.OfString
			if delta == "" {
				continue
			}
			s.current = StreamEvent{Type: EventTextDelta, Text: delta}
			return true

		case "response.output_text.annotation.added":
			cit := decodeAnnotation(event.Annotation)
			if cit == nil {
				continue
			}
			s.current = StreamEvent{Type: EventCitationAdded, Citation: cit}
			return true

		case "response.failed":
			s.current = StreamEvent{Type: EventFailed, Detail: event.Response.Error.Message}
			return true

		case "response.incomplete":
			s.current = StreamEvent{Type: EventIncomplete, Detail: event.Response.IncompleteDetails.Reason}
			return true

		case "response.cancelled":
			s.current = StreamEvent{Type: EventCancelled}
			return true

		case "response.completed":
			s.current = StreamEvent{Type: EventCompleted, Usage: &Usage{
				InputTokens:  event.Response.Usage.InputTokens,
				OutputTokens: event.Response.Usage.OutputTokens,
			}}
			return true
		}
	}
	return false
}

func (s *openAIStream) Current() StreamEvent { return s.current }
func (s *openAIStream) Err() error           { return s.raw.Err() }
func (s *openAIStream) Close() error         { return s.raw.Close() }

// decodeAnnotation collapses the service's shape-polymorphic annotation
// payloads into the Citation variant. Anything that is neither file- nor
// web-shaped is dropped.
func decodeAnnotation(raw any) *Citation {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var ann struct {
		Type     string `json:"type"`
		Filename string `json:"filename"`
		Title    string `json:"title"`
		URL      string `json:"url"`
	}
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil
	}

	switch {
	case ann.Filename != "":
		return &Citation{Kind: CitationFile, Filename: ann.Filename}
	case ann.URL != "":
		title := ann.Title
		if title == "" {
			title = "Web Source"
		}
		return &Citation{Kind: CitationWeb, Title: title, URL: ann.URL}
	default:
		return nil
	}
}

var (
	mdHeaderRe = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBoldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
)

// Search runs a semantic query against the store and strips markdown
// headers and bold markers from the returned excerpts.
func (c *OpenAIClient) Search(ctx context.Context, vectorStoreID, query string, limit int) ([]SearchResult, error) {
	page, err := c.api.VectorStores.Search(ctx, vectorStoreID, openai.VectorStoreSearchParams{
		Query:         openai.VectorStoreSearchParamsQueryUnion{OfString: openai.String(query)},
		MaxNumResults: openai.Int(int64(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("searching store %s: %w", vectorStoreID, err)
	}

	var results []SearchResult
	for _, item := range page.Data {
		var text strings.Builder
		for _, content := range item.Content {
			text.WriteString(content.Text)
		}
		excerpt := mdHeaderRe.ReplaceAllString(text.String(), "")
		excerpt = mdBoldRe.ReplaceAllString(excerpt, "$1")
		results = append(results, SearchResult{
			Filename: item.Filename,
			Score:    item.Score,
			Excerpt:  excerpt,
		})
	}
	return results, nil
}

// Summarize condenses one exchange with the summary model under a small
// output cap.
func (c *OpenAIClient) Summarize(ctx context.Context, exchange string) (string, error) {
	resp, err := c.api.Responses.New(ctx, responses.ResponseNewParams{
		Model:           shared.ResponsesModel(c.summaryModel),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(exchange)},
		Instructions:    openai.String(summaryInstructions),
		MaxOutputTokens: openai.Int(summaryOutputCap),
	})
	if err != nil {
		return "", fmt.Errorf("summarizing exchange: %w", err)
	}

	summary := strings.TrimSpace(extractResponseText(*resp))
	if summary == "" {
		return "", fmt.Errorf("summary model returned no text")
	}
	return summary, nil
}

func extractResponseText(resp responses.Response) string {
	var sb strings.Builder
	for _, item := range resp.Output {
		if item.Type != "message" {
			continue
		}
		msg := item.AsMessage()
		for _, part := range msg.Content {
			if part.Type != "output_text" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

const summaryOutputCap = 200

const summaryInstructions = `You will receive a user's question and an assistant's response.
Create a precise but short summary of the exchange. If the assistant's
response includes a follow-up question, include it in the summary.

The input format is:
User: (message) | Assistant: (response)

Use this format:
"User asked about [topic]. Assistant replied with [brief summary].
<If there is a follow-up question> Assistant asked if [follow-up question]"`
