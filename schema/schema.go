// Package schema has models and constants shared by all parts of scorecard.
package schema

// LongFormColumns is the fixed column schema of a long-form score table.
// Empty tables still carry it so every consumer sees the same shape.
var LongFormColumns = []string{
	"segment",
	"group",
	"metric_id",
	"metric",
	"score",
	"monthly_scores",
	"is_group_score",
}

// MonthScore is the score of one metric restricted to one month.
type MonthScore struct {
	Month string `json:"month"`
	Score int    `json:"score"`
}

// ScoreRow is one row of the long-form score table.
type ScoreRow struct {
	Segment       Segment      `json:"segment"`
	Group         string       `json:"group"`
	MetricID      string       `json:"metric_id"`
	MetricLabel   string       `json:"metric"`
	Score         int          `json:"score"`
	MonthlyScores []MonthScore `json:"monthly_scores"`
	IsGroupScore  bool         `json:"is_group_score"`

	// NoData marks a score of 0 that comes from a column with no numeric
	// values at all rather than from actual answers.
	NoData bool `json:"no_data"`
}

// MonthlyScore returns the score for a month and whether that month has one.
func (r ScoreRow) MonthlyScore(month string) (int, bool) {
	for _, ms := range r.MonthlyScores {
		if ms.Month == month {
			return ms.Score, true
		}
	}
	return 0, false
}

// LongFormTable is the ordered output of the aggregation engine.
type LongFormTable struct {
	Columns []string   `json:"columns"`
	Rows    []ScoreRow `json:"rows"`
}

// NewLongFormTable returns an empty table carrying the fixed column schema.
func NewLongFormTable() LongFormTable {
	cols := make([]string, len(LongFormColumns))
	copy(cols, LongFormColumns)
	return LongFormTable{Columns: cols, Rows: []ScoreRow{}}
}

// Len returns the number of rows.
func (t LongFormTable) Len() int {
	return len(t.Rows)
}

// Groups returns the distinct group names in first-appearance order.
func (t LongFormTable) Groups() []string {
	seen := make(map[string]struct{})
	var groups []string
	for _, r := range t.Rows {
		if _, ok := seen[r.Group]; ok {
			continue
		}
		seen[r.Group] = struct{}{}
		groups = append(groups, r.Group)
	}
	return groups
}

// Append concatenates the rows of other onto a copy of t.
func (t LongFormTable) Append(other LongFormTable) LongFormTable {
	out := NewLongFormTable()
	out.Rows = make([]ScoreRow, 0, len(t.Rows)+len(other.Rows))
	out.Rows = append(out.Rows, t.Rows...)
	out.Rows = append(out.Rows, other.Rows...)
	return out
}

// GroupSummary is the headline score for one metric group.
type GroupSummary struct {
	Group         string         `json:"group"`
	Score         float64        `json:"score"`
	MonthlyScores []MonthAverage `json:"monthly_scores"`
	FromRollup    bool           `json:"from_rollup"`
	Metrics       []ScoreRow     `json:"metrics"`
}

// MonthAverage is a possibly fractional monthly group score.
type MonthAverage struct {
	Month string  `json:"month"`
	Score float64 `json:"score"`
}

// FilterOptions are the selectable values for each filter dimension of a segment.
type FilterOptions struct {
	Segment          Segment  `json:"segment"`
	Months           []string `json:"months"`
	Branches         []string `json:"branches"`
	AppointmentTypes []string `json:"appointment_types"`
	Nationalities    []string `json:"nationalities"`
	Evaluators       []string `json:"evaluators"`
}

// Selection is the set of filter values chosen for one scorecard request.
type Selection struct {
	Branch          string   `json:"branch"`
	AppointmentType string   `json:"appointment_type"`
	Months          []string `json:"months"`
	Nationality     string   `json:"nationality"`
	Evaluator       string   `json:"evaluator"`
}

// DefaultSelection returns a selection with every dimension set to Overall.
func DefaultSelection() Selection {
	return Selection{
		Branch:          OverallSelection,
		AppointmentType: OverallSelection,
		Months:          []string{OverallSelection},
		Nationality:     OverallSelection,
		Evaluator:       OverallSelection,
	}
}

// Scorecard is the full result of one scorecard request.
type Scorecard struct {
	Role        string         `json:"role"`
	Segment     Segment        `json:"segment"`
	SegmentName string         `json:"segment_name"`
	Selection   Selection      `json:"selection"`
	VisitCount  int            `json:"visit_count"`
	Months      []string       `json:"months"`
	Table       LongFormTable  `json:"table"`
	Groups      []GroupSummary `json:"groups"`
}

// SegmentInfo describes one loaded segment.
type SegmentInfo struct {
	Segment Segment  `json:"segment"`
	Name    string   `json:"name"`
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Months  []string `json:"months"`
}

// MetricGroupInfo describes one configured metric group.
type MetricGroupInfo struct {
	Group          string       `json:"group"`
	WeightVariable string       `json:"weight_variable,omitempty"`
	Metrics        []MetricInfo `json:"metrics"`
}

// MetricInfo describes one configured metric.
type MetricInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ScoreThresholds are the two cutoffs splitting scores into color bands.
type ScoreThresholds struct {
	Danger  float64 `json:"danger" yaml:"danger"`
	Warning float64 `json:"warning" yaml:"warning"`
}

// Label returns the color band for a score: below Danger is danger,
// below Warning is warning, anything else is success.
func (t ScoreThresholds) Label(score float64) ColorLabel {
	switch {
	case score < t.Danger:
		return DangerLabel
	case score < t.Warning:
		return WarningLabel
	default:
		return SuccessLabel
	}
}
