package memory

import (
	"errors"
	"time"
)

// ErrThreadNotFound is returned when an operation targets a thread that
// does not exist. Callers must create threads before appending to them.
var ErrThreadNotFound = errors.New("thread not found")

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Sentiment is the summary sentiment of a thread.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ToolInvocation records one tool call made while producing a message.
type ToolInvocation struct {
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
	Result map[string]any `json:"result,omitempty"`
}

// SourceRef summarizes one retrieved chunk attached to an answer.
type SourceRef struct {
	Content   string `json:"content"`
	Relevance string `json:"relevance"`
}

// Message is one turn in a thread. Messages are append-only; they are
// never edited or removed individually.
type Message struct {
	ID        string           `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ToolsUsed []ToolInvocation `json:"toolsUsed,omitempty"`
	Sources   []SourceRef      `json:"sources,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Metadata is the summary state of a thread.
type Metadata struct {
	FirstMessage     string    `json:"firstMessage,omitempty"`
	LastActivity     time.Time `json:"lastActivity"`
	MessageCount     int       `json:"messageCount"`
	Sentiment        Sentiment `json:"sentiment"`
	Escalated        bool      `json:"escalated"`
	EscalationReason string    `json:"escalationReason,omitempty"`
}

// Thread is one persisted conversation. ThreadID is immutable once
// assigned; UserID is empty for anonymous sessions.
type Thread struct {
	ThreadID  string    `json:"threadId"`
	UserID    string    `json:"userId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HistoryEntry is a message mapped to the model-consumable shape. The
// system role collapses into user, matching what the chat interface
// expects for non-assistant turns.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Briefing is a derived conversation summary for human handoff.
type Briefing struct {
	ThreadID         string   `json:"threadId"`
	UserID           string   `json:"userId,omitempty"`
	Duration         string   `json:"duration"`
	MessageCount     int      `json:"messageCount"`
	Sentiment        string   `json:"sentiment"`
	FirstMessage     string   `json:"firstMessage,omitempty"`
	RecentMessages   []string `json:"recentMessages,omitempty"`
	ToolsUsed        []string `json:"toolsUsed,omitempty"`
	EscalationReason string   `json:"escalationReason,omitempty"`
	Summary          string   `json:"summary"`
}
