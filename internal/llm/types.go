package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation requested by the model. Arguments is
// the raw JSON object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message represents a single message in a conversation. Assistant
// messages that carry tool calls may have empty content; tool messages
// carry the ToolCallID of the call they answer so the model can pair
// results with requests.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// ToolSchema is a provider-neutral function-calling schema. Parameters is
// a JSON-schema object; the provider adapter serializes it into whatever
// wire shape the provider requires.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolChoice controls whether the model may call tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide whether to invoke tools.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone disables tool calling, forcing plain text output.
	ToolChoiceNone ToolChoice = "none"
)

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float32
	Tools       []ToolSchema
	ToolChoice  ToolChoice
}

// CompletionResponse contains the result of an LLM completion request.
// ToolCalls is non-empty when the model requested tool invocations.
type CompletionResponse struct {
	Content      string
	ToolCalls    []ToolCall
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
