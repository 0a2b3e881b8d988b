package core

import (
	"log/slog"
	"time"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
)

// Scorecard serves one scorecard request: it uses the score cache when one is
// configured and records the run when a history store is configured.
func (p *Pipeline) Scorecard(mgr contract.CacheManager, role string, seg schema.Segment, sel schema.Selection) (*schema.Scorecard, error) {
	var history contract.HistoryStore
	if mgr != nil {
		history = mgr.GetHistoryStore()
	}

	// --- 0. Begin run tracking (if configured) ---
	var runID int64
	if history != nil {
		var err error
		runID, err = history.BeginRun(time.Now(), role, seg, scopeSelection(seg, sel))
		if err != nil {
			contract.LogWarn("History tracking initialization failed", err)
		}
	}

	// --- 1. Build (with caching) ---
	card, err := p.cachedScorecard(mgr, role, seg, sel)
	if err != nil {
		return nil, err
	}

	// --- 2. End run tracking ---
	if history != nil && runID > 0 {
		if err := history.RecordScores(runID, card.Table.Rows); err != nil {
			contract.LogWarn("Failed to record scores", err)
		}
		if err := history.EndRun(runID, time.Now(), card.VisitCount); err != nil {
			contract.LogWarn("Failed to finalize history tracking", err)
		}
		slog.Debug("run recorded", "run_id", runID, "rows", card.Table.Len())
	}
	return card, nil
}
