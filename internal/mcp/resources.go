// ABOUTME: MCP resource implementations for blood-pressure data.
// ABOUTME: Provides bp://recent and bp://summary resources.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	recentURI   = "bp://recent"
	summaryURI  = "bp://summary"
	recentLimit = 10
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Measurements",
		Description: "Last 10 blood-pressure readings, newest first",
		MIMEType:    "application/json",
	}, s.handleRecentResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "Blood Pressure Summary",
		Description: "Overall statistics, workday vs holiday averages, and the latest reading",
		MIMEType:    "application/json",
	}, s.handleSummaryResource)
}

// Resource handlers

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	ms, err := s.svc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}
	if len(ms) > recentLimit {
		ms = ms[:recentLimit]
	}

	recent := make([]measurementOutput, 0, len(ms))
	for _, m := range ms {
		recent = append(recent, toMeasurementOutput(m))
	}
	return jsonResource(recentURI, map[string]any{"measurements": recent})
}

func (s *Server) handleSummaryResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	report, err := s.svc.Report(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return jsonResource(summaryURI, buildStats(report))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
