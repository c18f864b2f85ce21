package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shophub/supportflow/internal/agent"
	"github.com/shophub/supportflow/internal/db"
	"github.com/shophub/supportflow/internal/embeddings"
	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/llm"
	"github.com/shophub/supportflow/internal/memory"
)

// scriptedProvider returns canned responses in order and records every
// request it receives.
type scriptedProvider struct {
	responses []llm.CompletionResponse
	requests  []llm.CompletionRequest
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.requests = append(p.requests, req)
	if len(p.responses) == 0 {
		return &llm.CompletionResponse{Content: "out of script"}, nil
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return &resp, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

type constantEmbedder struct{}

func (constantEmbedder) Embed(ctx context.Context, texts []string, mode embeddings.Mode) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}
func (constantEmbedder) Dimensions() int { return 2 }
func (constantEmbedder) Name() string    { return "constant" }

type testEnv struct {
	server   *Server
	agent    *agent.Agent
	provider *scriptedProvider
	memory   *memory.Store
	kb       *kb.Store
}

func newTestServer(t *testing.T, responses ...llm.CompletionResponse) *testEnv {
	return newTestServerCfg(t, Config{Port: 0}, responses...)
}

func newTestServerCfg(t *testing.T, cfg Config, responses ...llm.CompletionResponse) *testEnv {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	kbStore := kb.NewStore(database)
	retriever := kb.NewRetriever(constantEmbedder{}, kb.NewLinearIndex(kbStore))
	memStore := memory.NewStore(database)
	provider := &scriptedProvider{responses: responses}
	ag := agent.New(provider, retriever, nil,
		agent.Options{Model: "test", ChunkDelay: time.Microsecond}, zerolog.Nop())

	srv := New(cfg, ag, memStore, retriever, kbStore, zerolog.Nop())
	return &testEnv{server: srv, agent: ag, provider: provider, memory: memStore, kb: kbStore}
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t)
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestChatStream(t *testing.T) {
	env := newTestServer(t, llm.CompletionResponse{Content: "Hello there.", Model: "test"})
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	body := bytes.NewBufferString(`{"question": "hi", "userId": "u-1"}`)
	resp, err := http.Post(ts.URL+"/api/chat/stream", "application/json", body)
	if err != nil {
		t.Fatalf("POST /api/chat/stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("expected event-stream content type, got %q", ct)
	}

	var frames []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	if len(frames) < 3 {
		t.Fatalf("too few frames: %v", frames)
	}
	if frames[len(frames)-1] != "[DONE]" {
		t.Errorf("stream must end with [DONE], got %q", frames[len(frames)-1])
	}

	var first agent.Event
	if err := json.Unmarshal([]byte(frames[0]), &first); err != nil {
		t.Fatalf("first frame not JSON: %v", err)
	}
	if first.Type != agent.EventThreadInit || first.ThreadID == "" {
		t.Fatalf("expected thread_init with ID, got %+v", first)
	}

	var sawComplete bool
	var rebuilt strings.Builder
	for _, frame := range frames[1 : len(frames)-1] {
		var ev agent.Event
		if err := json.Unmarshal([]byte(frame), &ev); err != nil {
			t.Fatalf("frame not JSON: %q", frame)
		}
		switch ev.Type {
		case agent.EventAnswerChunk:
			rebuilt.WriteString(ev.Content)
		case agent.EventComplete:
			sawComplete = true
			if ev.Answer != "Hello there." {
				t.Errorf("unexpected answer: %q", ev.Answer)
			}
		}
	}
	if !sawComplete {
		t.Error("no complete event in stream")
	}
	if rebuilt.String() != "Hello there." {
		t.Errorf("chunks do not reassemble: %q", rebuilt.String())
	}

	// Both turns must be persisted.
	thread, err := env.memory.GetThread(context.Background(), first.ThreadID)
	if err != nil {
		t.Fatalf("GetThread failed: %v", err)
	}
	if len(thread.Messages) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(thread.Messages))
	}
	if thread.Messages[0].Role != memory.RoleUser || thread.Messages[1].Role != memory.RoleAssistant {
		t.Errorf("unexpected roles: %+v", thread.Messages)
	}
}

func TestChatStreamRequiresQuestion(t *testing.T) {
	env := newTestServer(t)
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat/stream", "application/json",
		bytes.NewBufferString(`{"question": "  "}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestChatNonStreaming(t *testing.T) {
	env := newTestServer(t, llm.CompletionResponse{Content: "Fine, thanks.", Model: "test"})
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		bytes.NewBufferString(`{"question": "how are you"}`))
	if err != nil {
		t.Fatalf("POST /api/chat failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		ThreadID string `json:"threadId"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Answer != "Fine, thanks." {
		t.Errorf("unexpected answer: %q", payload.Answer)
	}
	if payload.ThreadID == "" {
		t.Error("missing thread ID")
	}
}

func TestConfiguredHistoryLimitApplied(t *testing.T) {
	env := newTestServerCfg(t, Config{Port: 0, HistoryLimit: 2},
		llm.CompletionResponse{Content: "Still here.", Model: "test"})
	ctx := context.Background()

	threadID := memory.NewThreadID()
	if _, err := env.memory.GetOrCreateThread(ctx, threadID, "u-1", ""); err != nil {
		t.Fatalf("GetOrCreateThread failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		role := memory.RoleUser
		if i%2 == 1 {
			role = memory.RoleAssistant
		}
		if err := env.memory.AddMessage(ctx, threadID, role, "turn", nil, nil); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		bytes.NewBufferString(`{"question": "one more", "threadId": "`+threadID+`"}`))
	if err != nil {
		t.Fatalf("POST /api/chat failed: %v", err)
	}
	resp.Body.Close()

	if len(env.provider.requests) == 0 {
		t.Fatal("provider never called")
	}
	// system prompt + 2 history entries + the new question.
	if got := len(env.provider.requests[0].Messages); got != 4 {
		t.Errorf("expected 4 messages with history limit 2, got %d", got)
	}
}

func TestThreadNotFound(t *testing.T) {
	env := newTestServer(t)
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/chat/thread/nope")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

// failingWriter accepts a fixed number of writes, then errors like a
// closed socket.
type failingWriter struct {
	failAfter int
	writes    int
}

func (w *failingWriter) WriteJSON(v any) error {
	w.writes++
	if w.writes > w.failAfter {
		return errors.New("broken pipe")
	}
	return nil
}

func TestWSPumpStopsAgentOnWriteFailure(t *testing.T) {
	env := newTestServer(t, llm.CompletionResponse{Content: strings.Repeat("word ", 50)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := env.agent.Run(ctx, agent.Request{Question: "hello"})

	var persisted bool
	env.server.pumpTurn(cancel, &failingWriter{failAfter: 2}, events, func(agent.Event) {
		persisted = true
	})

	// After a failed write the pump must cancel the turn and drain the
	// channel, so the agent goroutine has closed it by the time the
	// pump returns.
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("event left undrained after write failure")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("agent goroutine still running after write failure")
	}
	if persisted {
		t.Error("no turn should be persisted after a failed write")
	}
}

func TestKBSearch(t *testing.T) {
	env := newTestServer(t)
	if err := env.kb.Add(context.Background(), []kb.Chunk{
		{Content: "returns within 30 days", Embedding: []float32{1, 0}, Source: "returns.md"},
	}); err != nil {
		t.Fatalf("seeding kb: %v", err)
	}
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/kb/search?q=returns")
	if err != nil {
		t.Fatalf("GET /api/kb/search failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(payload.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(payload.Results))
	}

	resp2, err := http.Get(ts.URL + "/api/kb/search")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without q, got %d", resp2.StatusCode)
	}
}

func TestKBStats(t *testing.T) {
	env := newTestServer(t)
	if err := env.kb.Add(context.Background(), []kb.Chunk{
		{Content: "shipping takes 3-5 days", Embedding: []float32{0, 1}, Source: "shipping.md"},
		{Content: "returns within 30 days", Embedding: []float32{1, 0}, Source: "returns.md"},
	}); err != nil {
		t.Fatalf("seeding kb: %v", err)
	}
	ts := httptest.NewServer(env.server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/kb/stats")
	if err != nil {
		t.Fatalf("GET /api/kb/stats failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Chunks  int      `json:"chunks"`
		Sources []string `json:"sources"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Chunks != 2 {
		t.Errorf("expected 2 chunks, got %d", payload.Chunks)
	}
	if len(payload.Sources) != 2 || payload.Sources[0] != "returns.md" {
		t.Errorf("unexpected sources: %v", payload.Sources)
	}
}
