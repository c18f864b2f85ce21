// Package mcp exposes the support toolbox over the Model Context
// Protocol so external assistants can search the knowledge base and
// operate the store tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/shophub/supportflow/internal/kb"
	"github.com/shophub/supportflow/internal/tools"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes knowledge search and the
// e-commerce tool registry.
type Server struct {
	retriever *kb.Retriever
	registry  *tools.Registry
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(retriever *kb.Retriever, registry *tools.Registry) *Server {
	s := &Server{
		retriever: retriever,
		registry:  registry,
	}

	s.mcp = server.NewMCPServer(
		"supportflow",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds the knowledge search tool plus one MCP tool per
// registry entry.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	for _, t := range s.registry.All() {
		s.mcp.AddTool(bridgeTool(t), s.bridgeHandler(t.Name))
	}
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
