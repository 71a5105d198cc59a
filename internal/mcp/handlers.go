package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/fingerprint"
	"github.com/ausiq/corpuschat/internal/llm"
	"github.com/ausiq/corpuschat/internal/session"
)

const defaultLookbackDays = 180

// sessionFor returns the ticker's session, creating and configuring one on
// first use. The session keeps its knowledge-store cache across calls.
func (s *Server) sessionFor(ctx context.Context, ticker string, days int) (*session.Session, error) {
	company, err := s.announcements.Company(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("unknown ticker %q", ticker)
	}

	s.mu.Lock()
	sess, ok := s.sessions[ticker]
	if !ok {
		sess = s.newSession()
		s.sessions[ticker] = sess
	}
	s.mu.Unlock()

	if days <= 0 {
		days = defaultLookbackDays
	}
	from, to := announce.DateRange(days)

	sess.SelectCompany(company)
	sess.SetFilters(fingerprint.Query{DateFrom: from, DateTo: to})
	return sess, nil
}

// handleListCompanies returns the company catalog.
func (s *Server) handleListCompanies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	companies, err := s.announcements.Companies(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing companies failed: %v", err)), nil
	}
	if len(companies) == 0 {
		return mcp.NewToolResultText("The catalog is empty."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d companies:\n", len(companies)))
	for _, c := range companies {
		sb.WriteString(fmt.Sprintf("- %s (%s)", c.Name, c.Ticker))
		if c.Industry != "" {
			sb.WriteString(" — " + c.Industry)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleCorpusSearch performs semantic search over one company's store.
func (s *Server) handleCorpusSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: ticker"), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	sess, err := s.sessionFor(ctx, ticker, request.GetInt("days", defaultLookbackDays))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := sess.Search(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No results found in the selected window."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// handleAskCorpus runs a full grounded generation turn.
func (s *Server) handleAskCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ticker, err := request.RequireString("ticker")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: ticker"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	sess, err := s.sessionFor(ctx, ticker, request.GetInt("days", defaultLookbackDays))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	turn, err := sess.Ask(ctx, question, func(string) {})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}

	answer := turn.Response
	if turn.References != "" {
		answer += "\n\n" + turn.References
	}
	return mcp.NewToolResultText(answer), nil
}

// formatSearchResults converts search results into a rich text format
// optimized for AI agent consumption.
func formatSearchResults(results []llm.SearchResult) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d result(s):\n", len(results)))

	for i, r := range results {
		sb.WriteString(fmt.Sprintf("\n--- Result %d ---\n", i+1))
		sb.WriteString(fmt.Sprintf("File: %s\n", r.Filename))
		sb.WriteString(fmt.Sprintf("Relevance: %.1f%%\n", r.Score*100))
		sb.WriteString("\n")
		sb.WriteString(r.Excerpt)
		sb.WriteString("\n")
	}

	return sb.String()
}
