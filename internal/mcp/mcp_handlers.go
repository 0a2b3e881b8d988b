package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/huangsam/scorecard/core"
	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
// The pipeline is loaded on the first call and reused afterwards.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager

	once     sync.Once
	pipeline *core.Pipeline
	err      error
}

func newToolHandler(baseCfg *contract.Config, mgr contract.CacheManager) *toolHandler {
	return &toolHandler{baseCfg: baseCfg, mgr: mgr}
}

// session loads the pipeline and resolves the request's access code.
func (h *toolHandler) session(ctx context.Context, request mcp.CallToolRequest) (*core.Pipeline, string, error) {
	h.once.Do(func() {
		h.pipeline, h.err = core.OpenPipeline(ctx, h.baseCfg)
	})
	if h.err != nil {
		return nil, "", fmt.Errorf("load data: %w", h.err)
	}
	role, err := h.pipeline.Authenticate(request.GetString("access_code", ""))
	if err != nil {
		return nil, "", fmt.Errorf("access denied: %w", err)
	}
	return h.pipeline, role, nil
}

// segmentArg reads the optional segment argument, defaulting to branch.
func segmentArg(request mcp.CallToolRequest) (schema.Segment, error) {
	seg := schema.Segment(strings.ToLower(strings.TrimSpace(request.GetString("segment", ""))))
	if seg == "" {
		return schema.BranchSegment, nil
	}
	if _, ok := schema.ValidSegments[seg]; !ok {
		return "", fmt.Errorf("invalid segment '%s'", seg)
	}
	return seg, nil
}

// selectionArgs reads the filter arguments; anything missing stays Overall.
func selectionArgs(request mcp.CallToolRequest) schema.Selection {
	sel := schema.DefaultSelection()
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"branch", &sel.Branch},
		{"appointment", &sel.AppointmentType},
		{"nationality", &sel.Nationality},
		{"evaluator", &sel.Evaluator},
	} {
		if v := strings.TrimSpace(request.GetString(f.name, "")); v != "" {
			*f.dst = v
		}
	}
	var months []string
	for m := range strings.SplitSeq(request.GetString("months", ""), ",") {
		if m = strings.TrimSpace(m); m != "" {
			months = append(months, m)
		}
	}
	if len(months) > 0 {
		sel.Months = months
	}
	return sel
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGetScorecard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seg, err := segmentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, role, err := h.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	card, err := p.Scorecard(h.mgr, role, seg, selectionArgs(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scorecard failed: %v", err)), nil
	}
	return jsonResult(card), nil
}

func (h *toolHandler) handleGetCombinedScores(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, role, err := h.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	lf, err := p.Combined(role)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("combined scores failed: %v", err)), nil
	}
	return jsonResult(lf), nil
}

func (h *toolHandler) handleGetFilterOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seg, err := segmentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, role, err := h.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts, err := p.Options(role, seg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("filter options failed: %v", err)), nil
	}
	return jsonResult(opts), nil
}

func (h *toolHandler) handleListSegments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, role, err := h.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	infos, err := p.Segments(role)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing segments failed: %v", err)), nil
	}
	return jsonResult(infos), nil
}

func (h *toolHandler) handleGetMetricGroups(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seg, err := segmentArg(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, _, err := h.session(ctx, request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	groups, err := p.Groups(seg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("metric groups failed: %v", err)), nil
	}
	return jsonResult(groups), nil
}
