package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shophub/supportflow/internal/agent"
	"github.com/shophub/supportflow/internal/llm"
	"github.com/shophub/supportflow/internal/memory"
	"github.com/shophub/supportflow/internal/sentiment"
)

const defaultHistoryLimit = 10

// chatRequest is the body of POST /api/chat and POST /api/chat/stream.
type chatRequest struct {
	Question  string `json:"question"`
	ThreadID  string `json:"threadId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

func decodeChatRequest(r *http.Request) (chatRequest, bool) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.Question = strings.TrimSpace(req.Question)
	return req, req.Question != ""
}

// prepareThread resolves or creates the thread, loads recent history,
// and records the user message. The user message is persisted before
// any model work so an aborted stream still leaves the turn on record.
func (s *Server) prepareThread(r *http.Request, req chatRequest) (string, []llm.Message, error) {
	ctx := r.Context()

	threadID := req.ThreadID
	if threadID == "" {
		threadID = memory.NewThreadID()
	}
	if _, err := s.memory.GetOrCreateThread(ctx, threadID, req.UserID, req.SessionID); err != nil {
		return "", nil, err
	}

	entries, err := s.memory.GetHistory(ctx, threadID, s.cfg.HistoryLimit)
	if err != nil {
		return "", nil, err
	}
	history := make([]llm.Message, len(entries))
	for i, e := range entries {
		history[i] = llm.Message{Role: llm.Role(e.Role), Content: e.Content}
	}

	if err := s.memory.AddMessage(ctx, threadID, memory.RoleUser, req.Question, nil, nil); err != nil {
		return "", nil, err
	}
	if mood := sentiment.Detect(req.Question); mood.IsNegative {
		if err := s.memory.UpdateSentiment(ctx, threadID, memory.SentimentNegative); err != nil {
			s.log.Warn().Err(err).Str("thread", threadID).Msg("sentiment update failed")
		}
	}
	return threadID, history, nil
}

// persistAnswer records the assistant turn from a terminal complete
// event. Persistence failures are logged, not surfaced: the customer
// already has the answer.
func (s *Server) persistAnswer(r *http.Request, threadID string, ev agent.Event) {
	var tools []memory.ToolInvocation
	for _, t := range ev.ToolsUsed {
		tools = append(tools, memory.ToolInvocation{Tool: t.Tool, Args: t.Args, Result: t.Result})
	}
	var sources []memory.SourceRef
	for _, src := range ev.Sources {
		sources = append(sources, memory.SourceRef{Content: src.Content, Relevance: src.Relevance})
	}
	if err := s.memory.AddMessage(r.Context(), threadID, memory.RoleAssistant, ev.Answer, tools, sources); err != nil {
		s.log.Error().Err(err).Str("thread", threadID).Msg("failed to persist assistant message")
	}
}

// handleChatStream answers a question over SSE. Each agent event is one
// `data:` frame; the stream ends with a `data: [DONE]` sentinel.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	threadID, history, err := s.prepareThread(r, req)
	if err != nil {
		s.log.Error().Err(err).Msg("thread preparation failed")
		writeError(w, http.StatusInternalServerError, "failed to prepare conversation")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	writeEvent := func(ev agent.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.log.Error().Err(err).Str("event", ev.Type).Msg("event marshal failed")
			return
		}
		w.Write([]byte("data: "))
		w.Write(payload)
		w.Write([]byte("\n\n"))
		flusher.Flush()
	}

	writeEvent(agent.Event{Type: agent.EventThreadInit, ThreadID: threadID})

	events := s.agent.Run(r.Context(), agent.Request{
		Question: req.Question,
		ThreadID: threadID,
		UserID:   req.UserID,
		History:  history,
	})
	for ev := range events {
		writeEvent(ev)
		if ev.Type == agent.EventComplete {
			s.persistAnswer(r, threadID, ev)
		}
	}

	w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()
}

// handleChat answers a question in a single JSON response.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeChatRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	threadID, history, err := s.prepareThread(r, req)
	if err != nil {
		s.log.Error().Err(err).Msg("thread preparation failed")
		writeError(w, http.StatusInternalServerError, "failed to prepare conversation")
		return
	}

	result, err := s.agent.Answer(r.Context(), agent.Request{
		Question: req.Question,
		ThreadID: threadID,
		UserID:   req.UserID,
		History:  history,
	})
	if err != nil {
		s.log.Error().Err(err).Str("thread", threadID).Msg("chat turn failed")
		writeError(w, http.StatusBadGateway, "failed to generate a response")
		return
	}

	s.persistAnswer(r, threadID, agent.Event{
		Answer:    result.Answer,
		Sources:   result.Sources,
		ToolsUsed: result.ToolsUsed,
	})

	writeOK(w, map[string]any{
		"threadId":  threadID,
		"answer":    result.Answer,
		"sources":   result.Sources,
		"toolsUsed": result.ToolsUsed,
		"model":     result.Model,
		"timestamp": result.Timestamp,
	})
}

// handleKBSearch exposes raw retrieval for debugging ingested content.
// GET /api/kb/search?q=...&k=3
func (s *Server) handleKBSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	k := 3
	if raw := r.URL.Query().Get("k"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 20 {
			k = n
		}
	}

	chunks, err := s.retriever.Retrieve(r.Context(), query, k)
	if err != nil {
		s.log.Error().Err(err).Msg("kb search failed")
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	results := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		results[i] = map[string]any{
			"content": c.Chunk.Content,
			"source":  c.Chunk.Source,
			"score":   c.Score,
		}
	}
	writeOK(w, map[string]any{"query": query, "results": results})
}

// handleKBStats reports how many chunks are indexed and which sources
// they came from.
func (s *Server) handleKBStats(w http.ResponseWriter, r *http.Request) {
	count, err := s.kbStore.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read knowledge base")
		return
	}
	sources, err := s.kbStore.Sources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read knowledge base")
		return
	}
	writeOK(w, map[string]any{"chunks": count, "sources": sources})
}

func writeOK(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"success": false, "message": message})
}
