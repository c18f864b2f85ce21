// Package tools declares the backend operations the model may invoke
// during a turn. Every tool is schema-described, dispatched by name, and
// converts all failures into structured results: the model sees data,
// never a raised error.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// ParamType is the declared type of a tool parameter.
type ParamType string

const (
	ParamString ParamType = "string"
	ParamNumber ParamType = "number"
	ParamEnum   ParamType = "enum"
)

// Param declares one tool parameter in provider-neutral form. The schema
// adapter renders it into the provider's function-calling format.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
}

// Args is the parsed argument object for one invocation.
type Args map[string]any

// String returns the named argument as a string, or "" if absent.
func (a Args) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Number returns the named argument as a float64. JSON numbers decode to
// float64; integer-typed values are accepted too.
func (a Args) Number(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Result is the structured outcome of one tool invocation. Message
// carries a human-readable explanation on failure; Data carries the
// success payload.
type Result struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Failure builds a failed result with the given message.
func Failure(message string) Result {
	return Result{Success: false, Message: message}
}

// OK builds a successful result with the given payload.
func OK(data map[string]any) Result {
	return Result{Success: true, Data: data}
}

// JSON serializes the result for the provider-protocol boundary, where a
// text representation is the contractually required wire shape.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"message":"failed to serialize tool result"}`
	}
	return string(b)
}

// Map returns the result as a generic map for persistence alongside the
// conversation.
func (r Result) Map() map[string]any {
	out := map[string]any{"success": r.Success}
	if r.Message != "" {
		out["message"] = r.Message
	}
	for k, v := range r.Data {
		out[k] = v
	}
	return out
}

// RunFunc executes one tool invocation.
type RunFunc func(ctx context.Context, args Args) Result

// Tool is one named, schema-described backend operation.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	// AdminOnly marks tools intended for elevated-privilege callers.
	// Enforcement of that boundary lives in the auth layer in front of
	// the agent; the flag exists so transports can strip these tools
	// for unprivileged sessions.
	AdminOnly bool
	Run       RunFunc
}

// userIDKey is the reserved argument key carrying the authenticated
// caller identity. It is injected at dispatch time so ownership checks
// never trust a model-supplied identity claim.
const userIDKey = "userId"

// Registry holds the fixed tool set and dispatches invocations by name.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool. Registration order is preserved for schema
// listings so the model always sees a stable tool order.
func (r *Registry) Register(t *Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns the named tool, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// All returns the registered tools in registration order.
func (r *Registry) All() []*Tool {
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute dispatches an invocation by name, injecting the authenticated
// caller identity into the arguments when present. Unknown tools and
// tool-internal failures come back as failed results, never errors: the
// agent loop continues and the model explains the failure
// conversationally.
func (r *Registry) Execute(ctx context.Context, name string, args Args, userID string) Result {
	tool := r.Get(name)
	if tool == nil {
		return Failure(fmt.Sprintf("Tool %q not found.", name))
	}

	// Dispatch on a copy: callers keep the original map (streamed
	// events and persisted tool records carry it), so identity
	// injection must never write into it.
	run := make(Args, len(args)+1)
	for k, v := range args {
		run[k] = v
	}
	if userID != "" {
		run[userIDKey] = userID
	}

	return tool.Run(ctx, run)
}

// ParseArgs decodes a JSON argument payload produced by the model.
func ParseArgs(raw string) (Args, error) {
	if raw == "" {
		return Args{}, nil
	}
	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("parsing tool arguments: %w", err)
	}
	return args, nil
}
