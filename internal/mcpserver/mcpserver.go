// Package mcpserver exposes the Python analyzer as Model Context Protocol
// tools over stdio.
package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/pyscan/internal/service/analysis"
)

// Server wraps the MCP server and registers the pyscan tools.
type Server struct {
	server   *mcp.Server
	analysis *analysis.Service
}

// NewServer creates a new MCP server with all pyscan tools registered.
// A nil svc uses the default configuration.
func NewServer(version string, svc *analysis.Service) *Server {
	if version == "" {
		version = "dev"
	}
	if svc == nil {
		svc = analysis.New()
	}
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "pyscan",
			Version: version,
		},
		nil,
	)

	s := &Server{server: server, analysis: svc}
	s.registerTools()
	s.registerPrompts()
	return s
}

// Run starts the MCP server over stdio transport.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_python",
		Description: describeAnalyze(),
	}, s.handleAnalyze)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_issues",
		Description: describeIssues(),
	}, s.handleListIssues)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "file_metrics",
		Description: describeMetrics(),
	}, s.handleFileMetrics)
}
