package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/yuin/goldmark"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

var markdown = goldmark.New()

// chatRequest is the incoming websocket message format.
type chatRequest struct {
	Type      string         `json:"type"` // "ask"
	SessionID string         `json:"session_id"`
	Content   string         `json:"content"`
	Filters   *filterPayload `json:"filters,omitempty"`
}

// chatFrame is one outgoing websocket frame. Chunks stream in emission
// order; references and done follow after the turn ends.
type chatFrame struct {
	Type      string `json:"type"` // "chunk", "references", "done", "error"
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content,omitempty"`
	HTML      string `json:"html,omitempty"`
	Status    string `json:"status,omitempty"`
	Tokens    int64  `json:"tokens,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("server: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			sendFrame(conn, chatFrame{Type: "error", Content: "invalid message format"})
			continue
		}

		if req.Type != "ask" {
			sendFrame(conn, chatFrame{Type: "error", SessionID: req.SessionID, Content: "unknown message type: " + req.Type})
			continue
		}
		if req.Content == "" {
			sendFrame(conn, chatFrame{Type: "error", SessionID: req.SessionID, Content: "content is required"})
			continue
		}

		s.handleAsk(conn, r, req)
	}
}

func (s *Server) handleAsk(conn *websocket.Conn, r *http.Request, req chatRequest) {
	sess, ok := s.lookupSession(req.SessionID)
	if !ok {
		sendFrame(conn, chatFrame{Type: "error", SessionID: req.SessionID, Content: "unknown session"})
		return
	}

	if req.Filters != nil {
		query, err := req.Filters.toQuery()
		if err != nil {
			sendFrame(conn, chatFrame{Type: "error", SessionID: req.SessionID, Content: "invalid filter dates"})
			return
		}
		sess.SetFilters(query)
	}

	turn, err := sess.Ask(r.Context(), req.Content, func(chunk string) {
		sendFrame(conn, chatFrame{Type: "chunk", SessionID: req.SessionID, Content: chunk})
	})
	if err != nil {
		sendFrame(conn, chatFrame{Type: "error", SessionID: req.SessionID, Content: err.Error()})
		return
	}

	if turn.References != "" {
		sendFrame(conn, chatFrame{
			Type:      "references",
			SessionID: req.SessionID,
			Content:   turn.References,
			HTML:      renderHTML(turn.References),
		})
	}

	sendFrame(conn, chatFrame{
		Type:      "done",
		SessionID: req.SessionID,
		HTML:      renderHTML(turn.Response),
		Status:    turn.Status.String(),
		Tokens:    turn.TokensUsed,
	})
}

// renderHTML converts markdown to HTML for clients that render rich text.
func renderHTML(md string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		log.Printf("server: rendering markdown: %v", err)
		return ""
	}
	return buf.String()
}

func sendFrame(conn *websocket.Conn, frame chatFrame) {
	if err := conn.WriteJSON(frame); err != nil {
		log.Printf("server: websocket write: %v", err)
	}
}
