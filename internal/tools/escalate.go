package tools

import (
	"context"

	"github.com/shophub/supportflow/internal/memory"
)

// escalateTool hands the conversation to a human. It is a terminal
// action, not a query: it always succeeds at the protocol level. When a
// thread ID is supplied the thread is durably marked escalated and a
// briefing for the human agent is produced before returning.
func escalateTool(store *memory.Store) *Tool {
	return &Tool{
		Name:        "escalate_to_human",
		Description: "Escalate the conversation to a human support agent. Use this when the customer explicitly asks for a human, or is clearly frustrated and automated help isn't working. Pass the current threadId so the human gets a conversation briefing.",
		Params: []Param{
			{Name: "reason", Type: ParamString, Description: "Why the conversation needs a human.", Required: true},
			{Name: "threadId", Type: ParamString, Description: "The current conversation thread ID."},
		},
		Run: func(ctx context.Context, args Args) Result {
			reason := args.String("reason")
			if reason == "" {
				reason = "Customer requested human assistance"
			}

			data := map[string]any{
				"escalated": true,
				"reason":    reason,
				"message":   "A human support agent will take over this conversation shortly.",
			}

			threadID := args.String("threadId")
			if threadID == "" {
				return OK(data)
			}

			// Mark the thread before deriving the briefing so the
			// escalation is durable even if briefing generation fails.
			if err := store.EscalateThread(ctx, threadID, reason); err != nil {
				data["briefing"] = nil
				data["note"] = "Escalation recorded locally; thread could not be updated."
				return OK(data)
			}

			if briefing, err := store.GenerateBriefing(ctx, threadID); err == nil {
				data["briefing"] = briefing
			}

			return OK(data)
		},
	}
}
