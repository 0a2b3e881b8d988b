package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
)

// currentCacheVersion defines the version of the cached scorecard payload
const currentCacheVersion = 1

// cacheTTL is how long a cached scorecard stays valid.
const cacheTTL = 7 * 24 * time.Hour

// cachedScorecard returns the scorecard from the score store when a fresh
// entry exists, and computes and stores it otherwise.
func (p *Pipeline) cachedScorecard(mgr contract.CacheManager, role string, seg schema.Segment, sel schema.Selection) (*schema.Scorecard, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetScoreStore()
	}
	if store == nil {
		// Fallback to direct computation
		return p.BuildScorecard(role, seg, sel)
	}

	key := p.generateCacheKey(role, seg, sel)

	// Check for cache hit
	if card := checkCacheHit(store, key); card != nil {
		slog.Debug("scorecard cache hit", "role", role, "segment", seg)
		return card, nil
	}

	// Cache miss: compute and store
	slog.Debug("scorecard cache miss", "role", role, "segment", seg)
	return p.computeAndStore(store, key, role, seg, sel)
}

// checkCacheHit attempts to retrieve and validate a cached scorecard
func checkCacheHit(store contract.CacheStore, key string) *schema.Scorecard {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}

	// Validate version and staleness
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return nil
	}
	var card schema.Scorecard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil
	}
	return &card
}

// computeAndStore builds the scorecard and stores it in cache
func (p *Pipeline) computeAndStore(store contract.CacheStore, key, role string, seg schema.Segment, sel schema.Selection) (*schema.Scorecard, error) {
	card, err := p.BuildScorecard(role, seg, sel)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(card); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			slog.Warn("scorecard cache write failed", "error", err)
		}
	}
	return card, nil
}

// generateCacheKey creates a unique key from the request and the loaded config and data
func (p *Pipeline) generateCacheKey(role string, seg schema.Segment, sel schema.Selection) string {
	sel = scopeSelection(seg, sel)
	key := fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%s:%s",
		role,
		seg,
		sel.Branch,
		sel.AppointmentType,
		strings.Join(sel.Months, ","),
		sel.Nationality,
		sel.Evaluator,
		p.reg.Fingerprint(),
		p.fingerprint,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
