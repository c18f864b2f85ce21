package agent

import (
	"strings"
	"testing"
)

func TestBuildSystemPromptWithContext(t *testing.T) {
	prompt := BuildSystemPrompt("thread-1", "[Context 1]:\nReturns within 30 days.")
	if !strings.Contains(prompt, "ShopHub") {
		t.Error("persona missing from prompt")
	}
	if !strings.Contains(prompt, "thread-1") {
		t.Error("thread ID missing from prompt")
	}
	if !strings.Contains(prompt, "Returns within 30 days.") {
		t.Error("context missing from prompt")
	}
	if strings.Contains(prompt, emptyKnowledgeBase) {
		t.Error("empty marker must not appear when context is present")
	}
}

func TestBuildSystemPromptEmptyKnowledgeBase(t *testing.T) {
	prompt := BuildSystemPrompt("", "   ")
	if !strings.Contains(prompt, emptyKnowledgeBase) {
		t.Error("expected empty knowledge base marker")
	}
	if strings.Contains(prompt, "thread ID") {
		t.Error("thread line must be omitted without a thread")
	}
}
