// Package transcript persists one record per completed chat turn.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ausiq/corpuschat/internal/db"
)

// TurnRecord captures everything about a single exchange: who asked, what the
// filter state was, which store answered, and what came back.
type TurnRecord struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	UserID            string    `json:"user_id,omitempty"`
	UserEmail         string    `json:"user_email,omitempty"`
	VectorStoreID     string    `json:"vector_store_id"`
	NumDocs           int       `json:"num_of_docs"`
	DocumentKeys      []string  `json:"document_keys"`
	Ticker            string    `json:"ticker"`
	AnnouncementTypes []string  `json:"announcement_types"`
	PriceSensitive    bool      `json:"price_sensitive"`
	DateFrom          time.Time `json:"date_from"`
	DateTo            time.Time `json:"date_to"`
	DateRange         int       `json:"date_range"`
	MessageText       string    `json:"message_text"`
	AssistantResponse string    `json:"assistant_response"`
	Timestamp         time.Time `json:"message_timestamp"`
	ChatModel         string    `json:"chat_model"`
	ChatMode          string    `json:"chat_mode"`
	TokensUsed        int64     `json:"tokens_used"`
}

// Store reads and writes turn records.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Save persists a turn record. A missing ID or timestamp is filled in.
func (s *Store) Save(ctx context.Context, rec TurnRecord) (TurnRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	keys, err := json.Marshal(rec.DocumentKeys)
	if err != nil {
		return rec, fmt.Errorf("encoding document keys: %w", err)
	}
	types, err := json.Marshal(rec.AnnouncementTypes)
	if err != nil {
		return rec, fmt.Errorf("encoding announcement types: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversations (
			id, session_id, user_id, user_email, vector_store_id, num_of_docs,
			document_keys, ticker, announcement_types, price_sensitive,
			date_from, date_to, date_range, message_text, assistant_response,
			message_timestamp, chat_model, chat_mode, tokens_used
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.UserID, rec.UserEmail, rec.VectorStoreID, rec.NumDocs,
		string(keys), rec.Ticker, string(types), rec.PriceSensitive,
		rec.DateFrom.Format("2006-01-02"), rec.DateTo.Format("2006-01-02"), rec.DateRange,
		rec.MessageText, rec.AssistantResponse,
		rec.Timestamp.Format("2006-01-02 15:04:05"), rec.ChatModel, rec.ChatMode, rec.TokensUsed)
	if err != nil {
		return rec, fmt.Errorf("saving turn record: %w", err)
	}
	return rec, nil
}

// List returns all records for a session, oldest first.
func (s *Store) List(ctx context.Context, sessionID string) ([]TurnRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, user_id, user_email, vector_store_id, num_of_docs,
			document_keys, ticker, announcement_types, price_sensitive,
			date_from, date_to, date_range, message_text, assistant_response,
			message_timestamp, chat_model, chat_mode, tokens_used
		FROM conversations
		WHERE session_id = ?
		ORDER BY message_timestamp ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing turn records: %w", err)
	}
	defer rows.Close()

	var records []TurnRecord
	for rows.Next() {
		var rec TurnRecord
		var keys, types, dateFrom, dateTo, ts string
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.UserID, &rec.UserEmail, &rec.VectorStoreID, &rec.NumDocs,
			&keys, &rec.Ticker, &types, &rec.PriceSensitive,
			&dateFrom, &dateTo, &rec.DateRange, &rec.MessageText, &rec.AssistantResponse,
			&ts, &rec.ChatModel, &rec.ChatMode, &rec.TokensUsed,
		); err != nil {
			return nil, fmt.Errorf("scanning turn record: %w", err)
		}
		if err := json.Unmarshal([]byte(keys), &rec.DocumentKeys); err != nil {
			return nil, fmt.Errorf("decoding document keys: %w", err)
		}
		if err := json.Unmarshal([]byte(types), &rec.AnnouncementTypes); err != nil {
			return nil, fmt.Errorf("decoding announcement types: %w", err)
		}
		rec.DateFrom, _ = time.Parse("2006-01-02", dateFrom)
		rec.DateTo, _ = time.Parse("2006-01-02", dateTo)
		rec.Timestamp, _ = time.Parse("2006-01-02 15:04:05", ts)
		records = append(records, rec)
	}
	return records, rows.Err()
}
