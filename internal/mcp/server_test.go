package mcp

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/chat"
	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/db"
	"github.com/ausiq/corpuschat/internal/llm"
	"github.com/ausiq/corpuschat/internal/session"
)

type fakeProvisioner struct{}

func (fakeProvisioner) Provision(_ context.Context, name string) (corpus.StoreHandle, error) {
	return corpus.StoreHandle("vs_" + name), nil
}

type fakeIngestor struct{}

func (fakeIngestor) Ingest(context.Context, corpus.StoreHandle, []string) error { return nil }

type scriptedStream struct {
	events []llm.StreamEvent
	pos    int
}

func (s *scriptedStream) Next() bool {
	if s.pos >= len(s.events) {
		return false
	}
	s.pos++
	return true
}
func (s *scriptedStream) Current() llm.StreamEvent { return s.events[s.pos-1] }
func (s *scriptedStream) Err() error               { return nil }
func (s *scriptedStream) Close() error             { return nil }

type fakeGenerator struct{}

func (fakeGenerator) Stream(context.Context, llm.GenerationRequest) (llm.EventStream, error) {
	return &scriptedStream{events: []llm.StreamEvent{
		{Type: llm.EventTextDelta, Text: "the grounded answer"},
		{Type: llm.EventCompleted},
	}}, nil
}

type fakeSearcher struct {
	results []llm.SearchResult
}

func (f *fakeSearcher) Search(context.Context, string, string, int) ([]llm.SearchResult, error) {
	return f.results, nil
}

func newTestMCP(t *testing.T, searcher llm.Searcher) (*Server, *announce.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	announcements := announce.NewStore(database, nil)

	factory := func() *session.Session {
		controller := chat.NewController(fakeGenerator{})
		controller.ChunkDelay = 0
		controller.Sleep = func(time.Duration) {}
		return session.New(session.Deps{
			Cache:         corpus.NewCache(fakeProvisioner{}),
			Dispatcher:    corpus.NewDispatcher(fakeIngestor{}, time.Second),
			Controller:    controller,
			Announcements: announcements,
			Searcher:      searcher,
			Model:         "gpt-5-mini",
			Confidence:    0.7,
		})
	}

	return NewServer(announcements, factory), announcements
}

func seedCompany(t *testing.T, store *announce.Store, ticker, name string) {
	t.Helper()
	ctx := context.Background()
	if err := store.SaveCompany(ctx, announce.Company{Ticker: ticker, Name: name}); err != nil {
		t.Fatalf("SaveCompany: %v", err)
	}
	err := store.SaveAnnouncement(ctx, announce.Announcement{
		Key: ticker + "_1.pdf", Ticker: ticker,
		PublishedAt: time.Now().AddDate(0, 0, -30),
		Types:       "Annual Report",
	})
	if err != nil {
		t.Fatalf("SaveAnnouncement: %v", err)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"list_companies", listCompaniesTool, "list_companies"},
		{"corpus_search", corpusSearchTool, "corpus_search"},
		{"ask_corpus", askCorpusTool, "ask_corpus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestHandleListCompanies(t *testing.T) {
	srv, store := newTestMCP(t, nil)
	seedCompany(t, store, "ABP", "Alpha Petroleum")

	result, err := srv.handleListCompanies(context.Background(), mcp.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Alpha Petroleum (ABP)") {
		t.Errorf("result missing company: %q", text)
	}
}

func TestHandleCorpusSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []llm.SearchResult{
		{Filename: "ABP_1_report.md", Score: 0.92, Excerpt: "cash flow improved"},
	}}
	srv, store := newTestMCP(t, searcher)
	seedCompany(t, store, "ABP", "Alpha Petroleum")
	ctx := context.Background()

	t.Run("basic search", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"ticker": "ABP", "query": "cash flow"}

		result, err := srv.handleCorpusSearch(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		text := resultText(t, result)
		if !strings.Contains(text, "ABP_1_report.md") || !strings.Contains(text, "cash flow improved") {
			t.Errorf("result = %q", text)
		}
	})

	t.Run("missing query", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"ticker": "ABP"}

		result, err := srv.handleCorpusSearch(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing query")
		}
	})

	t.Run("unknown ticker", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"ticker": "NOPE", "query": "anything"}

		result, err := srv.handleCorpusSearch(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown ticker")
		}
	})
}

func TestHandleAskCorpus(t *testing.T) {
	srv, store := newTestMCP(t, nil)
	seedCompany(t, store, "ABP", "Alpha Petroleum")

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"ticker": "ABP", "question": "What happened this quarter?"}

	result, err := srv.handleAskCorpus(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}
	if text := resultText(t, result); !strings.Contains(text, "the grounded answer") {
		t.Errorf("result = %q", text)
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var sb strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
