package agent

import (
	"fmt"
	"strings"
)

const emptyKnowledgeBase = "Knowledge base is currently empty."

const personaPreamble = `You are a helpful customer support agent for ShopHub, an e-commerce store.

Your responsibilities:
- Answer questions about orders, products, shipping, and returns
- Use the available tools to look up real order and product data instead of guessing
- Ground policy answers in the knowledge base context provided below
- Escalate to a human agent when the customer asks for one or when you cannot resolve the issue

Guidelines:
- Be concise and friendly
- Never invent order details, tracking numbers, or policy terms
- If the knowledge base context does not cover a policy question, say so honestly`

// BuildSystemPrompt assembles the system message for a turn. The
// thread line keeps tools that accept a threadId argument anchored to
// the current conversation, and the context block carries retrieved
// policy text or an explicit empty-knowledge-base marker so the model
// never mistakes missing retrieval for missing policy.
func BuildSystemPrompt(threadID string, context string) string {
	var b strings.Builder
	b.WriteString(personaPreamble)
	if threadID != "" {
		fmt.Fprintf(&b, "\n\nCurrent conversation thread ID: %s", threadID)
	}
	b.WriteString("\n\nKnowledge base context:\n")
	if strings.TrimSpace(context) == "" {
		b.WriteString(emptyKnowledgeBase)
	} else {
		b.WriteString(context)
	}
	return b.String()
}
