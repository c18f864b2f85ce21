package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/tools"
)

// handleSearchKnowledge performs semantic search over the knowledge base.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	limit := request.GetInt("limit", 3)
	if limit <= 0 {
		limit = 3
	}

	results, err := s.retriever.Retrieve(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	if len(results) == 0 {
		return mcp.NewToolResultText("No results found. The knowledge base may be empty. Run `supportflow ingest` to load it."), nil
	}

	return mcp.NewToolResultText(formatSearchResults(results)), nil
}

// bridgeHandler dispatches an MCP call into the registry tool of the
// same name. Registry failures come back as tool results, not protocol
// errors, so the caller can read the reason.
func (s *Server) bridgeHandler(name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := tools.Args{}
		for key, value := range request.GetArguments() {
			if key == "userId" {
				continue
			}
			args[key] = value
		}
		userID := request.GetString("userId", "")

		result := s.registry.Execute(ctx, name, args, userID)
		if !result.Success {
			return mcp.NewToolResultError(result.Message), nil
		}
		return mcp.NewToolResultText(result.JSON()), nil
	}
}

func formatSearchResults(results []kb.ScoredChunk) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant passages:\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&b, "## Result %d (%.1f%% relevant)\n", i+1, r.Score*100)
		if r.Chunk.Source != "" {
			fmt.Fprintf(&b, "Source: %s\n", r.Chunk.Source)
		}
		b.WriteString(r.Chunk.Content)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
