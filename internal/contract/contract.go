// Package contract provides interfaces and shared utilities for the scorecard CLI's internal architecture.
package contract

import (
	"time"

	"github.com/huangsam/scorecard/schema"
)

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetScoreStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking scorecard runs and the scores they produced.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, role string, segment schema.Segment, selection schema.Selection) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, visitCount int) error

	// RecordScores stores the long-form rows produced by a run
	RecordScores(runID int64, rows []schema.ScoreRow) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every recorded run ordered by ID
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllScores returns every recorded score row ordered by run
	GetAllScores() ([]schema.ScoreRecord, error)

	// Close closes the underlying connection
	Close() error
}
