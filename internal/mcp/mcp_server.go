// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var segmentEnum = mcp.Enum("branch", "contact-centre", "website", "social-media", "combined-contact-centre")

// NewMCPServer initializes and configures the Scorecard MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Scorecard Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := newToolHandler(baseCfg, mgr)
	accessCode := mcp.WithString("access_code", mcp.Description("The 4-digit access code that selects the caller's role."), mcp.Required())

	// --- 1. Tool: get_scorecard ---
	s.AddTool(mcp.NewTool("get_scorecard",
		mcp.WithDescription("Compute the mystery-shopping scorecard of one segment for the caller's role and a filter selection."),
		accessCode,
		mcp.WithString("segment", mcp.Description("Segment to score. Defaults to 'branch'."), segmentEnum),
		mcp.WithString("branch", mcp.Description("Branch filter, or 'Overall'.")),
		mcp.WithString("appointment", mcp.Description("Appointment type filter, or 'Overall'.")),
		mcp.WithString("months", mcp.Description("Comma-separated month labels, or 'Overall'.")),
		mcp.WithString("nationality", mcp.Description("Nationality filter, or 'Overall'.")),
		mcp.WithString("evaluator", mcp.Description("Evaluator filter, or 'Overall'.")),
	), h.handleGetScorecard)

	// --- 2. Tool: get_combined_scores ---
	s.AddTool(mcp.NewTool("get_combined_scores",
		mcp.WithDescription("Return the unfiltered long-form score table of every segment for the caller's role."),
		accessCode,
	), h.handleGetCombinedScores)

	// --- 3. Tool: get_filter_options ---
	s.AddTool(mcp.NewTool("get_filter_options",
		mcp.WithDescription("List the selectable filter values of one segment for the caller's role."),
		accessCode,
		mcp.WithString("segment", mcp.Description("Segment to inspect. Defaults to 'branch'."), segmentEnum),
	), h.handleGetFilterOptions)

	// --- 4. Tool: list_segments ---
	s.AddTool(mcp.NewTool("list_segments",
		mcp.WithDescription("List every configured segment with the number of rows visible to the caller's role."),
		accessCode,
	), h.handleListSegments)

	// --- 5. Tool: get_metric_groups ---
	s.AddTool(mcp.NewTool("get_metric_groups",
		mcp.WithDescription("Describe the metric groups and metrics configured for one segment."),
		accessCode,
		mcp.WithString("segment", mcp.Description("Segment to describe. Defaults to 'branch'."), segmentEnum),
	), h.handleGetMetricGroups)

	return s
}

// StartMCPServer starts the Scorecard MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
