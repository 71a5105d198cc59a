// Package session owns the per-conversation state: the selected company,
// the filter query, the knowledge-store cache, and the rolling memory.
// A session processes one turn at a time; nothing here is shared globally.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/chat"
	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/fingerprint"
	"github.com/ausiq/corpuschat/internal/llm"
	"github.com/ausiq/corpuschat/internal/progress"
	"github.com/ausiq/corpuschat/internal/transcript"
)

// ErrNoCompany is returned by Ask and Search before a company is selected.
var ErrNoCompany = errors.New("no company selected")

// Deps bundles the collaborators a session needs. Transcripts, Summarizer,
// Searcher, and Reporter are optional.
type Deps struct {
	Cache         *corpus.Cache
	Dispatcher    *corpus.Dispatcher
	Controller    *chat.Controller
	Announcements *announce.Store
	Transcripts   *transcript.Store
	Summarizer    llm.Summarizer
	Searcher      llm.Searcher
	Reporter      progress.Reporter

	Model        string
	Confidence   float64
	MaxCitations int
	UserID       string
	UserEmail    string
}

// Session is one user conversation. It carries the filter state and the
// caches that survive company switches.
type Session struct {
	ID string

	deps   Deps
	memory *chat.Memory

	company     announce.Company
	query       fingerprint.Query
	lastMatched []string
}

// New creates a session with a fresh id and empty memory.
func New(deps Deps) *Session {
	if deps.Reporter == nil {
		deps.Reporter = progress.NopReporter{}
	}
	return &Session{
		ID:     uuid.NewString(),
		deps:   deps,
		memory: &chat.Memory{},
	}
}

// SelectCompany switches the session to a company. Switching to a different
// company clears the conversation memory; the knowledge-store cache keeps
// every previously visited company's state, so returning to one reuses its
// store without re-ingestion.
func (s *Session) SelectCompany(c announce.Company) {
	if s.company.Ticker != "" && s.company.Ticker != c.Ticker {
		s.memory.Clear()
	}
	s.company = c
	s.query.Ticker = c.Ticker
}

// Company returns the currently selected company.
func (s *Session) Company() announce.Company { return s.company }

// SetFilters replaces the filter query. The ticker always follows the
// selected company.
func (s *Session) SetFilters(q fingerprint.Query) {
	q.Ticker = s.company.Ticker
	s.query = q
}

// Filters returns the current filter query.
func (s *Session) Filters() fingerprint.Query { return s.query }

// Memory exposes the rolling conversation memory.
func (s *Session) Memory() *chat.Memory { return s.memory }

// sync brings the company's knowledge store in line with the filter state.
// An ingestion timeout is logged and swallowed: the loaded set stays
// untouched, the delta is recomputed next turn, and the turn proceeds with
// whatever the store already holds.
func (s *Session) sync(ctx context.Context) (corpus.StoreHandle, error) {
	if s.company.Ticker == "" {
		return "", ErrNoCompany
	}

	handle, err := s.deps.Cache.GetOrCreate(ctx, s.company.Ticker)
	if err != nil {
		return "", err
	}

	fp := fingerprint.Digest(s.query)
	state := s.deps.Cache.NeedsSync(s.company.Ticker, fp)
	if state == corpus.SyncUnchanged && s.deps.Cache.Ready(s.company.Ticker) {
		return handle, nil
	}

	matched, err := s.deps.Announcements.Matching(ctx, s.query)
	if err != nil {
		return "", fmt.Errorf("resolving filter query: %w", err)
	}

	delta := s.deps.Cache.Resolve(s.company.Ticker, matched)
	s.lastMatched = delta.Matched

	if delta.Empty() {
		s.deps.Cache.MarkReady(s.company.Ticker, nil)
		return handle, nil
	}

	message := fmt.Sprintf("Preparing %d new documents (query changed)...", len(delta.New))
	if delta.Initial {
		message = "Preparing documents (initial setup)..."
	}
	s.deps.Reporter.Start(len(delta.New))
	s.deps.Reporter.Update(0, message)

	report, err := s.deps.Dispatcher.Dispatch(ctx, handle, delta.New)
	s.deps.Reporter.Finish()
	if err != nil {
		if errors.Is(err, corpus.ErrIngestTimeout) {
			log.Printf("session: ingestion timed out after %s, continuing with %d loaded documents",
				report.Elapsed, s.deps.Cache.LoadedCount(s.company.Ticker))
			return handle, nil
		}
		return "", fmt.Errorf("dispatching %d documents: %w", report.Requested, err)
	}

	s.deps.Cache.MarkReady(s.company.Ticker, delta.New)
	return handle, nil
}

// Ask runs one full turn: sync the store, stream the grounded generation,
// fold the exchange into memory, and persist the transcript record.
func (s *Session) Ask(ctx context.Context, prompt string, onChunk func(string)) (*chat.Turn, error) {
	handle, err := s.sync(ctx)
	if err != nil {
		return nil, err
	}

	req := llm.GenerationRequest{
		Model:         s.deps.Model,
		Instructions:  chat.BuildInstructions(s.company.Name, s.company.Ticker, s.deps.Confidence, s.memory),
		Prompt:        prompt,
		VectorStoreID: string(handle),
		MaxCitations:  s.deps.MaxCitations,
	}

	turn := s.deps.Controller.Generate(ctx, req, onChunk)

	if turn.Status == chat.StatusCompleted && s.deps.Summarizer != nil {
		chat.UpdateMemory(ctx, s.deps.Summarizer, s.memory, prompt, turn.Response)
	}

	s.record(ctx, handle, turn)
	return turn, nil
}

// Search runs the session's query against the synced store without
// generation.
func (s *Session) Search(ctx context.Context, query string, limit int) ([]llm.SearchResult, error) {
	if s.deps.Searcher == nil {
		return nil, errors.New("search is not configured")
	}
	handle, err := s.sync(ctx)
	if err != nil {
		return nil, err
	}
	return s.deps.Searcher.Search(ctx, string(handle), query, limit)
}

// record persists the turn. Persistence failure never fails the turn.
func (s *Session) record(ctx context.Context, handle corpus.StoreHandle, turn *chat.Turn) {
	if s.deps.Transcripts == nil {
		return
	}

	rec := transcript.TurnRecord{
		SessionID:         s.ID,
		UserID:            s.deps.UserID,
		UserEmail:         s.deps.UserEmail,
		VectorStoreID:     string(handle),
		NumDocs:           s.deps.Cache.LoadedCount(s.company.Ticker),
		DocumentKeys:      s.lastMatched,
		Ticker:            s.company.Ticker,
		AnnouncementTypes: s.query.Types,
		PriceSensitive:    s.query.PriceSensitiveOnly,
		DateFrom:          s.query.DateFrom,
		DateTo:            s.query.DateTo,
		DateRange:         s.query.DateRangeDays(),
		MessageText:       turn.Prompt,
		AssistantResponse: turn.Response,
		ChatModel:         s.deps.Model,
		ChatMode:          "generate",
		TokensUsed:        turn.TokensUsed,
	}

	if _, err := s.deps.Transcripts.Save(ctx, rec); err != nil {
		log.Printf("session: saving transcript record: %v", err)
	}
}
