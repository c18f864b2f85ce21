package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/shophub/supportflow/internal/agent"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsRequest is the incoming WebSocket message format. Each message is
// one chat turn; the connection carries the same event stream as the
// SSE endpoint.
type wsRequest struct {
	Question  string `json:"question"`
	ThreadID  string `json:"threadId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		var req wsRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendWSError(conn, "invalid message format")
			continue
		}
		req.Question = strings.TrimSpace(req.Question)
		if req.Question == "" {
			s.sendWSError(conn, "question is required")
			continue
		}

		s.handleWSTurn(conn, r, req)
	}
}

func (s *Server) handleWSTurn(conn *websocket.Conn, r *http.Request, req wsRequest) {
	threadID, history, err := s.prepareThread(r, chatRequest(req))
	if err != nil {
		s.log.Error().Err(err).Msg("thread preparation failed")
		s.sendWSError(conn, "failed to prepare conversation")
		return
	}

	if err := conn.WriteJSON(agent.Event{Type: agent.EventThreadInit, ThreadID: threadID}); err != nil {
		return
	}

	// Each turn gets its own cancelable context so a dead socket stops
	// the producing goroutine instead of leaving it blocked until the
	// read loop notices.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := s.agent.Run(ctx, agent.Request{
		Question: req.Question,
		ThreadID: threadID,
		UserID:   req.UserID,
		History:  history,
	})
	s.pumpTurn(cancel, conn, events, func(ev agent.Event) {
		s.persistAnswer(r, threadID, ev)
	})
}

// wsWriter is the part of *websocket.Conn the turn pump writes to.
type wsWriter interface {
	WriteJSON(v any) error
}

// pumpTurn forwards agent events to the socket until the stream ends.
// A failed write cancels the turn and drains the channel so the agent
// goroutine exits before the next turn starts.
func (s *Server) pumpTurn(cancel context.CancelFunc, conn wsWriter, events <-chan agent.Event, persist func(agent.Event)) {
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			s.log.Warn().Err(err).Msg("websocket write failed")
			cancel()
			for range events {
			}
			return
		}
		if ev.Type == agent.EventComplete {
			persist(ev)
		}
	}
}

func (s *Server) sendWSError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(agent.Event{Type: agent.EventError, Message: message, Status: agent.StatusError}); err != nil {
		s.log.Warn().Err(err).Msg("websocket write failed")
	}
}
