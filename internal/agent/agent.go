package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/llm"
	"github.com/shophub/supportflow/internal/sentiment"
	"github.com/shophub/supportflow/internal/tools"
)

const (
	defaultTopK        = 3
	defaultChunkDelay  = 30 * time.Millisecond
	sourceExcerptBytes = 150
)

// ErrEmptyQuestion is returned for requests whose question is blank
// after trimming. It is an input error, not an agent failure.
var ErrEmptyQuestion = fmt.Errorf("question must not be empty")

// Retriever fetches the knowledge chunks most relevant to a query.
// *kb.Retriever satisfies it; tests substitute fakes.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]kb.ScoredChunk, error)
}

// Request is one user turn handed to the agent.
type Request struct {
	Question string
	ThreadID string
	UserID   string
	History  []llm.Message
}

// ChatResult is the non-streaming view of a completed turn.
type ChatResult struct {
	Answer    string    `json:"answer"`
	Sources   []Source  `json:"sources,omitempty"`
	ToolsUsed []ToolUse `json:"toolsUsed,omitempty"`
	Model     string    `json:"model"`
	Timestamp time.Time `json:"timestamp"`
}

// Options tunes the agent loop. Zero values fall back to defaults.
type Options struct {
	TopK        int
	MaxTokens   int
	Temperature float32
	ChunkDelay  time.Duration
	Model       string
}

// Agent orchestrates one support turn: sentiment gate, retrieval,
// model call, sequential tool execution, and answer emission.
type Agent struct {
	provider  llm.Provider
	retriever Retriever
	registry  *tools.Registry
	opts      Options
	log       zerolog.Logger
}

// New builds an agent. retriever and registry may be nil, in which
// case retrieval yields an empty context and no tools are offered.
func New(provider llm.Provider, retriever Retriever, registry *tools.Registry, opts Options, log zerolog.Logger) *Agent {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	if opts.ChunkDelay <= 0 {
		opts.ChunkDelay = defaultChunkDelay
	}
	return &Agent{
		provider:  provider,
		retriever: retriever,
		registry:  registry,
		opts:      opts,
		log:       log,
	}
}

// Run executes one turn and streams progress events on the returned
// channel. The channel is closed after exactly one terminal event
// (complete or error). Cancelling ctx stops the loop; no further
// events are sent after cancellation.
func (a *Agent) Run(ctx context.Context, req Request) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		a.run(ctx, req, ch)
	}()
	return ch
}

// Answer runs a turn without streaming, draining the event channel and
// returning the terminal result.
func (a *Agent) Answer(ctx context.Context, req Request) (*ChatResult, error) {
	if strings.TrimSpace(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}
	for ev := range a.Run(ctx, req) {
		switch ev.Type {
		case EventComplete:
			ts, _ := time.Parse(time.RFC3339, ev.Timestamp)
			return &ChatResult{
				Answer:    ev.Answer,
				Sources:   ev.Sources,
				ToolsUsed: ev.ToolsUsed,
				Model:     ev.Model,
				Timestamp: ts,
			}, nil
		case EventError:
			return nil, fmt.Errorf("agent: %s", ev.Message)
		}
	}
	return nil, ctx.Err()
}

func (a *Agent) run(ctx context.Context, req Request, ch chan<- Event) {
	emit := func(ev Event) bool {
		select {
		case <-ctx.Done():
			return false
		case ch <- ev:
			return true
		}
	}
	fail := func(msg string) {
		emit(Event{Type: EventError, Message: msg, Status: StatusError})
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		fail(ErrEmptyQuestion.Error())
		return
	}

	// Sentiment gate. Advisory only: a match informs the caller and
	// the logs but never halts the turn.
	if mood := sentiment.Detect(question); mood.IsNegative {
		a.log.Info().
			Str("thread", req.ThreadID).
			Strs("signals", mood.Signals).
			Str("severity", string(mood.Severity)).
			Msg("negative sentiment detected")
		if !emit(Event{
			Type:     EventSentimentDetected,
			Message:  "Detected concern: " + strings.Join(mood.Signals, ", "),
			Severity: string(mood.Severity),
			Status:   StatusMonitoring,
		}) {
			return
		}
	}

	if !emit(Event{Type: EventStatus, Message: "Searching knowledge base...", Status: StatusSearching}) {
		return
	}
	var chunks []kb.ScoredChunk
	if a.retriever != nil {
		var err error
		chunks, err = a.retriever.Retrieve(ctx, question, a.opts.TopK)
		if err != nil {
			a.log.Error().Err(err).Msg("knowledge retrieval failed")
			fail("knowledge base search failed")
			return
		}
	}
	if !emit(Event{
		Type:    EventStatus,
		Message: fmt.Sprintf("Found %d relevant documents", len(chunks)),
		Status:  StatusFoundContext,
	}) {
		return
	}

	system := BuildSystemPrompt(req.ThreadID, kb.FormatContext(chunks))
	messages := make([]llm.Message, 0, len(req.History)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, req.History...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	if !emit(Event{Type: EventStatus, Message: "AI is thinking...", Status: StatusThinking}) {
		return
	}

	var schemas []llm.ToolSchema
	if a.registry != nil {
		schemas = a.registry.Schemas()
	}
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Model:       a.opts.Model,
		Messages:    messages,
		MaxTokens:   a.opts.MaxTokens,
		Temperature: a.opts.Temperature,
		Tools:       schemas,
		ToolChoice:  llm.ToolChoiceAuto,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("model call failed")
		fail("the assistant is unavailable right now, please try again")
		return
	}

	var toolsUsed []ToolUse
	if len(resp.ToolCalls) > 0 {
		if !emit(Event{
			Type:    EventStatus,
			Message: fmt.Sprintf("Using %d tool(s)...", len(resp.ToolCalls)),
			Status:  StatusToolExecution,
		}) {
			return
		}

		// Tools run sequentially in model order. Each call appends an
		// assistant tool-call message and a tool result message paired
		// by ToolCallID, so the follow-up completion sees the full
		// exchange.
		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			args, perr := tools.ParseArgs(call.Arguments)
			display := tools.DisplayName(call.Name)
			if !emit(Event{
				Type:    EventToolStart,
				Tool:    call.Name,
				Args:    args,
				Message: display + "...",
				Status:  StatusExecuting,
			}) {
				return
			}

			var result tools.Result
			if perr != nil {
				result = tools.Failure("invalid tool arguments: " + perr.Error())
			} else {
				result = a.registry.Execute(ctx, call.Name, args, req.UserID)
			}
			a.log.Debug().
				Str("tool", call.Name).
				Bool("success", result.Success).
				Msg("tool executed")

			toolsUsed = append(toolsUsed, ToolUse{Tool: call.Name, Args: args, Result: result.Map()})
			if !emit(Event{
				Type:    EventToolComplete,
				Tool:    call.Name,
				Result:  result.Map(),
				Message: display + " completed",
				Status:  StatusCompleted,
			}) {
				return
			}

			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				Content:    result.JSON(),
				ToolCallID: call.ID,
			})
		}

		if !emit(Event{Type: EventStatus, Message: "Generating response...", Status: StatusGenerating}) {
			return
		}
		resp, err = a.provider.Complete(ctx, llm.CompletionRequest{
			Model:       a.opts.Model,
			Messages:    messages,
			MaxTokens:   a.opts.MaxTokens,
			Temperature: a.opts.Temperature,
			ToolChoice:  llm.ToolChoiceNone,
		})
		if err != nil {
			a.log.Error().Err(err).Msg("follow-up model call failed")
			fail("the assistant is unavailable right now, please try again")
			return
		}
	}

	answer := resp.Content
	if !emit(Event{Type: EventAnswerStart, Status: StatusStreaming}) {
		return
	}
	for _, chunk := range chunkWords(answer) {
		if !emit(Event{Type: EventAnswerChunk, Content: chunk, Status: StatusStreaming}) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(a.opts.ChunkDelay):
		}
	}

	emit(Event{
		Type:      EventComplete,
		Answer:    answer,
		Sources:   buildSources(chunks),
		ToolsUsed: toolsUsed,
		Model:     resp.Model,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Status:    StatusDone,
	})
}

// chunkWords splits text into word-sized chunks for paced streaming.
// Every chunk except the last keeps its trailing space so the client
// reassembles the answer by plain concatenation.
func chunkWords(text string) []string {
	words := strings.Split(text, " ")
	chunks := make([]string, 0, len(words))
	for i, w := range words {
		if i < len(words)-1 {
			w += " "
		}
		if w != "" {
			chunks = append(chunks, w)
		}
	}
	return chunks
}

func buildSources(chunks []kb.ScoredChunk) []Source {
	if len(chunks) == 0 {
		return nil
	}
	sources := make([]Source, len(chunks))
	for i, c := range chunks {
		sources[i] = Source{
			Content:   kb.Excerpt(c.Chunk.Content, sourceExcerptBytes),
			Relevance: fmt.Sprintf("%.1f%%", c.Score*100),
		}
	}
	return sources
}
