package schema

import "time"

// RunRecord represents a row from the scorecard_runs table.
type RunRecord struct {
	RunID         int64
	RunKey        string
	Role          string
	Segment       string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	VisitCount    int32
	Selection     *string
}

// ScoreRecord represents a row from the scorecard_scores table.
type ScoreRecord struct {
	RunID        int64
	Segment      string
	GroupName    string
	MetricID     string
	MetricLabel  string
	Score        int32
	IsGroupScore bool
	NoData       bool
	MonthlyJSON  *string
}
