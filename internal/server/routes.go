package server

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ausiq/corpuschat/internal/fingerprint"
)

// filterPayload is the wire form of a filter query. Dates are YYYY-MM-DD.
type filterPayload struct {
	DateFrom       string   `json:"date_from"`
	DateTo         string   `json:"date_to"`
	Types          []string `json:"types,omitempty"`
	PriceSensitive bool     `json:"price_sensitive,omitempty"`
}

func (p filterPayload) toQuery() (fingerprint.Query, error) {
	q := fingerprint.Query{Types: p.Types, PriceSensitiveOnly: p.PriceSensitive}
	var err error
	if q.DateFrom, err = time.Parse("2006-01-02", p.DateFrom); err != nil {
		return q, err
	}
	q.DateTo, err = time.Parse("2006-01-02", p.DateTo)
	return q, err
}

type createSessionRequest struct {
	Ticker  string        `json:"ticker"`
	Filters filterPayload `json:"filters"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	Ticker    string `json:"ticker"`
	Company   string `json:"company"`
}

func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.announcements.Companies(r.Context())
	if err != nil {
		log.Printf("server: listing companies: %v", err)
		http.Error(w, "failed to list companies", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, companies)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	company, err := s.announcements.Company(r.Context(), req.Ticker)
	if err != nil {
		http.Error(w, "unknown ticker", http.StatusNotFound)
		return
	}

	query, err := req.Filters.toQuery()
	if err != nil {
		http.Error(w, "invalid filter dates, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	sess := s.createSession()
	sess.SelectCompany(company)
	sess.SetFilters(query)

	writeJSON(w, http.StatusCreated, createSessionResponse{
		SessionID: sess.ID,
		Ticker:    company.Ticker,
		Company:   company.Name,
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := s.transcripts.List(r.Context(), id)
	if err != nil {
		log.Printf("server: listing transcript %s: %v", id, err)
		http.Error(w, "failed to load transcript", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encoding response: %v", err)
	}
}
