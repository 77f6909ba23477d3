// ABOUTME: MCP server setup for the blood-pressure tracker.
// ABOUTME: Wraps the MCP server around the tracker service.
package mcp

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bptrack/internal/tracker"
)

// Server wraps the MCP server with service access.
type Server struct {
	mcpServer *mcp.Server
	svc       *tracker.Service
	logger    *log.Logger
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *tracker.Service, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "bptrack",
			Version: "1.0.0",
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		svc:       svc,
		logger:    logger,
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}
