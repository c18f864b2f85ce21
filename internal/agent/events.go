package agent

// Event types, in the order a successful turn emits them. Exactly one
// terminal event (complete or error) ends every turn and nothing
// follows it.
const (
	EventThreadInit        = "thread_init"
	EventSentimentDetected = "sentiment_detected"
	EventStatus            = "status"
	EventToolStart         = "tool_start"
	EventToolComplete      = "tool_complete"
	EventAnswerStart       = "answer_start"
	EventAnswerChunk       = "answer_chunk"
	EventComplete          = "complete"
	EventError             = "error"
)

// Phase tags carried in the status field of progress events.
const (
	StatusMonitoring    = "monitoring"
	StatusSearching     = "searching"
	StatusFoundContext  = "found_context"
	StatusThinking      = "thinking"
	StatusToolExecution = "tool_execution"
	StatusExecuting     = "executing"
	StatusCompleted     = "completed"
	StatusGenerating    = "generating"
	StatusStreaming     = "streaming"
	StatusDone          = "done"
	StatusError         = "error"
)

// Source summarizes one retrieved chunk attached to the final answer.
type Source struct {
	Content   string `json:"content"`
	Relevance string `json:"relevance"`
}

// ToolUse records one executed tool invocation for the complete event.
type ToolUse struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// Event is the wire-level unit emitted by the agent loop: a tagged
// union discriminated by Type. Events are transport-layer only and
// never persisted as-is.
type Event struct {
	Type      string         `json:"type"`
	ThreadID  string         `json:"threadId,omitempty"`
	Message   string         `json:"message,omitempty"`
	Status    string         `json:"status,omitempty"`
	Severity  string         `json:"severity,omitempty"`
	Tool      string         `json:"tool,omitempty"`
	Args      map[string]any `json:"args,omitempty"`
	Result    map[string]any `json:"result,omitempty"`
	Content   string         `json:"content,omitempty"`
	Answer    string         `json:"answer,omitempty"`
	Sources   []Source       `json:"sources,omitempty"`
	ToolsUsed []ToolUse      `json:"toolsUsed,omitempty"`
	Model     string         `json:"model,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
