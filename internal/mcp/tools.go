package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/shophub/supportflow/internal/tools"
)

// searchKnowledgeTool defines the search_knowledge_base MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge_base",
	mcp.WithDescription("Search the ShopHub support knowledge base semantically. Returns the policy passages most relevant to the query."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 3)"),
	),
)

// bridgeTool renders one registry tool into an MCP tool definition. A
// userId parameter is appended so callers can act on behalf of a
// customer; the registry injects it into every invocation.
func bridgeTool(t *tools.Tool) mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(t.Description)}
	for _, p := range t.Params {
		opts = append(opts, paramOption(p))
	}
	opts = append(opts, mcp.WithString("userId",
		mcp.Description("Customer ID the call acts on behalf of"),
	))
	return mcp.NewTool(t.Name, opts...)
}

func paramOption(p tools.Param) mcp.ToolOption {
	switch p.Type {
	case tools.ParamNumber:
		var propOpts []mcp.PropertyOption
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		propOpts = append(propOpts, mcp.Description(p.Description))
		return mcp.WithNumber(p.Name, propOpts...)
	case tools.ParamEnum:
		var propOpts []mcp.PropertyOption
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		propOpts = append(propOpts, mcp.Description(p.Description), mcp.Enum(p.Enum...))
		return mcp.WithString(p.Name, propOpts...)
	default:
		var propOpts []mcp.PropertyOption
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		propOpts = append(propOpts, mcp.Description(p.Description))
		return mcp.WithString(p.Name, propOpts...)
	}
}
