package session

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ausiq/corpuschat/internal/announce"
	"github.com/ausiq/corpuschat/internal/chat"
	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/db"
	"github.com/ausiq/corpuschat/internal/fingerprint"
	"github.com/ausiq/corpuschat/internal/llm"
	"github.com/ausiq/corpuschat/internal/transcript"
)

type fakeProvisioner struct {
	calls int
}

func (p *fakeProvisioner) Provision(_ context.Context, name string) (corpus.StoreHandle, error) {
	p.calls++
	return corpus.StoreHandle("vs_" + name), nil
}

type fakeIngestor struct {
	batches [][]string
	err     error
}

func (f *fakeIngestor) Ingest(_ context.Context, _ corpus.StoreHandle, docIDs []string) error {
	f.batches = append(f.batches, docIDs)
	return f.err
}

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

type fakeGenerator struct {
	requests []llm.GenerationRequest
}

func (g *fakeGenerator) Stream(_ context.Context, req llm.GenerationRequest) (llm.EventStream, error) {
	g.requests = append(g.requests, req)
	return &scriptedStream{events: []llm.StreamEvent{
		{Type: llm.EventTextDelta, Text: "grounded answer"},
		{Type: llm.EventCompleted, Usage: &llm.Usage{InputTokens: 10, OutputTokens: 5}},
	}}, nil
}

type fakeSearcher struct {
	calls int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ string, _ int) ([]llm.SearchResult, error) {
	f.calls++
	return nil, nil
}

type fakeSummarizer struct {
	calls int
}

func (f *fakeSummarizer) Summarize(_ context.Context, exchange string) (string, error) {
	f.calls++
	return "summary of: " + exchange[:20], nil
}

type fixture struct {
	session     *Session
	provisioner *fakeProvisioner
	ingestor    *fakeIngestor
	generator   *fakeGenerator
	summarizer  *fakeSummarizer
	store       *announce.Store
	transcripts *transcript.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	d, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory() error: %v", err)
	}
	t.Cleanup(func() { d.Close() })

	f := &fixture{
		provisioner: &fakeProvisioner{},
		ingestor:    &fakeIngestor{},
		generator:   &fakeGenerator{},
		summarizer:  &fakeSummarizer{},
		store:       announce.NewStore(d, nil),
		transcripts: transcript.NewStore(d),
	}

	controller := chat.NewController(f.generator)
	controller.ChunkDelay = 0
	controller.Sleep = func(time.Duration) {}

	f.session = New(Deps{
		Cache:         corpus.NewCache(f.provisioner),
		Dispatcher:    corpus.NewDispatcher(f.ingestor, time.Second),
		Controller:    controller,
		Announcements: f.store,
		Transcripts:   f.transcripts,
		Summarizer:    f.summarizer,
		Model:         "gpt-5-mini",
		Confidence:    0.7,
		MaxCitations:  20,
		UserEmail:     "analyst@example.com",
	})
	return f
}

func day(s string) time.Time {
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return ts
}

func seed(t *testing.T, f *fixture, ticker string, keys ...string) {
	t.Helper()
	ctx := context.Background()
	if err := f.store.SaveCompany(ctx, announce.Company{Ticker: ticker, Name: ticker + " Ltd"}); err != nil {
		t.Fatalf("SaveCompany() error: %v", err)
	}
	for _, key := range keys {
		err := f.store.SaveAnnouncement(ctx, announce.Announcement{
			Key: key, Ticker: ticker, PublishedAt: day("2026-03-01"), Types: "Annual Report",
		})
		if err != nil {
			t.Fatalf("SaveAnnouncement() error: %v", err)
		}
	}
}

func window(ticker string) fingerprint.Query {
	return fingerprint.Query{Ticker: ticker, DateFrom: day("2026-01-01"), DateTo: day("2026-06-30")}
}

func TestAskWithoutCompany(t *testing.T) {
	f := newFixture(t)
	if _, err := f.session.Ask(context.Background(), "anything", func(string) {}); err != ErrNoCompany {
		t.Fatalf("error = %v, want ErrNoCompany", err)
	}
}

func TestAskSyncsThenGenerates(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf", "a2.pdf")
	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))

	var streamed strings.Builder
	turn, err := f.session.Ask(context.Background(), "What happened?", func(s string) { streamed.WriteString(s) })
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if turn.Status != chat.StatusCompleted {
		t.Errorf("status = %v", turn.Status)
	}
	if streamed.String() != "grounded answer" {
		t.Errorf("streamed = %q", streamed.String())
	}
	if len(f.ingestor.batches) != 1 || len(f.ingestor.batches[0]) != 2 {
		t.Errorf("batches = %v, want one batch of 2", f.ingestor.batches)
	}
	if f.summarizer.calls != 1 {
		t.Errorf("summarizer calls = %d, want 1", f.summarizer.calls)
	}

	// The instruction preamble names the company.
	if len(f.generator.requests) != 1 {
		t.Fatalf("requests = %d", len(f.generator.requests))
	}
	if !strings.Contains(f.generator.requests[0].Instructions, "Alpha Petroleum (ASX:ABP)") {
		t.Errorf("instructions missing company identity")
	}

	records, err := f.transcripts.List(context.Background(), f.session.ID)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d transcript records, want 1", len(records))
	}
	if records[0].NumDocs != 2 || records[0].TokensUsed != 15 {
		t.Errorf("record = %+v", records[0])
	}
}

func TestAskUnchangedFiltersSkipsIngestion(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf")
	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))

	ctx := context.Background()
	sink := func(string) {}
	if _, err := f.session.Ask(ctx, "first", sink); err != nil {
		t.Fatalf("first Ask() error: %v", err)
	}
	if _, err := f.session.Ask(ctx, "second", sink); err != nil {
		t.Fatalf("second Ask() error: %v", err)
	}

	if len(f.ingestor.batches) != 1 {
		t.Errorf("batches = %d, want 1 (second turn must not re-ingest)", len(f.ingestor.batches))
	}
	if f.provisioner.calls != 1 {
		t.Errorf("provision calls = %d, want 1", f.provisioner.calls)
	}
}

func TestAskFilterChangeIngestsOnlyDelta(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf")
	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))

	ctx := context.Background()
	sink := func(string) {}
	if _, err := f.session.Ask(ctx, "first", sink); err != nil {
		t.Fatalf("first Ask() error: %v", err)
	}

	// New document appears; widening the window changes the fingerprint.
	err := f.store.SaveAnnouncement(ctx, announce.Announcement{
		Key: "a2.pdf", Ticker: "ABP", PublishedAt: day("2026-07-15"), Types: "Annual Report",
	})
	if err != nil {
		t.Fatalf("SaveAnnouncement() error: %v", err)
	}
	q := window("ABP")
	q.DateTo = day("2026-12-31")
	f.session.SetFilters(q)

	if _, err := f.session.Ask(ctx, "second", sink); err != nil {
		t.Fatalf("second Ask() error: %v", err)
	}

	if len(f.ingestor.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(f.ingestor.batches))
	}
	if len(f.ingestor.batches[1]) != 1 || f.ingestor.batches[1][0] != "a2.pdf" {
		t.Errorf("second batch = %v, want only a2.pdf", f.ingestor.batches[1])
	}
}

func TestCompanySwitchRestoresCachedState(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf")
	seed(t, f, "ZET", "z1.pdf")

	ctx := context.Background()
	sink := func(string) {}

	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))
	if _, err := f.session.Ask(ctx, "about ABP", sink); err != nil {
		t.Fatalf("ABP Ask() error: %v", err)
	}

	f.session.SelectCompany(announce.Company{Ticker: "ZET", Name: "Zeta Mining"})
	f.session.SetFilters(window("ZET"))
	if _, err := f.session.Ask(ctx, "about ZET", sink); err != nil {
		t.Fatalf("ZET Ask() error: %v", err)
	}
	// Memory was cleared on switch and repopulated by the ZET turn.
	if f.session.Memory().Len() != 1 {
		t.Errorf("memory len = %d after switch+turn, want 1", f.session.Memory().Len())
	}

	// Back to the first company with identical filters: no new provision,
	// no new ingestion.
	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))
	if _, err := f.session.Ask(ctx, "about ABP again", sink); err != nil {
		t.Fatalf("ABP return Ask() error: %v", err)
	}

	if f.provisioner.calls != 2 {
		t.Errorf("provision calls = %d, want 2", f.provisioner.calls)
	}
	if len(f.ingestor.batches) != 2 {
		t.Errorf("batches = %d, want 2 (return visit must not re-ingest)", len(f.ingestor.batches))
	}
}

func TestIngestionTimeoutTurnStillCompletes(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf")
	f.ingestor.err = corpus.ErrIngestTimeout
	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	f.session.SetFilters(window("ABP"))

	ctx := context.Background()
	turn, err := f.session.Ask(ctx, "first", func(string) {})
	if err != nil {
		t.Fatalf("Ask() error: %v", err)
	}
	if turn.Status != chat.StatusCompleted {
		t.Errorf("status = %v, want completed despite timeout", turn.Status)
	}

	// No partial credit: the next turn retries the full delta.
	f.ingestor.err = nil
	if _, err := f.session.Ask(ctx, "second", func(string) {}); err != nil {
		t.Fatalf("second Ask() error: %v", err)
	}
	if len(f.ingestor.batches) != 2 {
		t.Fatalf("batches = %d, want 2", len(f.ingestor.batches))
	}
	if len(f.ingestor.batches[1]) != 1 || f.ingestor.batches[1][0] != "a1.pdf" {
		t.Errorf("retry batch = %v, want full delta", f.ingestor.batches[1])
	}
}

func TestSearchWithoutIngestorFailsCleanly(t *testing.T) {
	f := newFixture(t)
	seed(t, f, "ABP", "a1.pdf")

	// A session wired without an ingestion transport must surface an
	// error on the first sync, not crash mid-dispatch.
	searcher := &fakeSearcher{}
	sess := New(Deps{
		Cache:         corpus.NewCache(f.provisioner),
		Dispatcher:    corpus.NewDispatcher(nil, time.Second),
		Announcements: f.store,
		Transcripts:   f.transcripts,
		Searcher:      searcher,
	})
	sess.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	sess.SetFilters(window("ABP"))

	_, err := sess.Search(context.Background(), "cash position", 5)
	if !errors.Is(err, corpus.ErrNoIngestor) {
		t.Fatalf("err = %v, want ErrNoIngestor", err)
	}
	if searcher.calls != 0 {
		t.Errorf("search ran %d times against an unsynced store, want 0", searcher.calls)
	}
}

func TestMemoryClearedOnlyOnCompanyChange(t *testing.T) {
	f := newFixture(t)
	f.session.Memory().Append("old exchange")

	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	if f.session.Memory().Len() != 1 {
		t.Errorf("first selection cleared memory")
	}

	f.session.SelectCompany(announce.Company{Ticker: "ABP", Name: "Alpha Petroleum"})
	if f.session.Memory().Len() != 1 {
		t.Errorf("re-selecting same company cleared memory")
	}

	f.session.SelectCompany(announce.Company{Ticker: "ZET", Name: "Zeta Mining"})
	if f.session.Memory().Len() != 0 {
		t.Errorf("switching company did not clear memory")
	}
}
