package mcp

import (
	"strings"
	"testing"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/tools"
)

func TestBridgeToolRendersParams(t *testing.T) {
	tool := bridgeTool(&tools.Tool{
		Name:        "check_order",
		Description: "Check an order.",
		Params: []tools.Param{
			{Name: "orderId", Type: tools.ParamString, Description: "The order ID.", Required: true},
			{Name: "status", Type: tools.ParamEnum, Description: "Status filter.", Enum: []string{"Processing", "Shipped"}},
			{Name: "limit", Type: tools.ParamNumber, Description: "Max results."},
		},
	})

	if tool.Name != "check_order" {
		t.Errorf("unexpected tool name: %q", tool.Name)
	}
	props := tool.InputSchema.Properties
	for _, name := range []string{"orderId", "status", "limit", "userId"} {
		if _, ok := props[name]; !ok {
			t.Errorf("missing property %q", name)
		}
	}
	if len(tool.InputSchema.Required) != 1 || tool.InputSchema.Required[0] != "orderId" {
		t.Errorf("unexpected required list: %v", tool.InputSchema.Required)
	}
}

func TestFormatSearchResults(t *testing.T) {
	out := formatSearchResults([]kb.ScoredChunk{
		{Chunk: kb.Chunk{Content: "Returns within 30 days.", Source: "returns.md"}, Score: 0.92},
		{Chunk: kb.Chunk{Content: "Shipping takes 3-5 days."}, Score: 0.4},
	})
	if !strings.Contains(out, "Found 2 relevant passages") {
		t.Errorf("missing header: %q", out)
	}
	if !strings.Contains(out, "92.0% relevant") {
		t.Errorf("missing relevance: %q", out)
	}
	if !strings.Contains(out, "Source: returns.md") {
		t.Errorf("missing source line: %q", out)
	}
}
