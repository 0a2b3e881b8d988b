// Package parquet provides data structures and functions for exporting scorecard
// results and run history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/huangsam/scorecard/schema"
	"github.com/parquet-go/parquet-go"
)

// Run represents a single scorecard run with metadata.
// This struct maps to the scorecard_runs database table.
type Run struct {
	// RunID is the unique identifier for this run
	RunID int64 `parquet:"run_id,snappy"`

	// RunKey is the UUID assigned when the run began
	RunKey string `parquet:"run_key,snappy"`

	Role    string `parquet:"role,snappy"`
	Segment string `parquet:"segment,snappy"`

	// StartTime is when the run began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the run completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// VisitCount is the number of visits behind the scores
	VisitCount int32 `parquet:"visit_count,snappy"`

	// Selection contains the JSON-encoded filter selection (nullable)
	Selection *string `parquet:"selection,optional,snappy"`
}

// Score is one long-form score row, either recorded in history or exported
// directly from a scorecard. RunID is 0 for direct exports.
type Score struct {
	RunID        int64  `parquet:"run_id,snappy"`
	Segment      string `parquet:"segment,snappy"`
	GroupName    string `parquet:"group_name,snappy"`
	MetricID     string `parquet:"metric_id,snappy"`
	MetricLabel  string `parquet:"metric_label,snappy"`
	Score        int32  `parquet:"score,snappy"`
	IsGroupScore bool   `parquet:"is_group_score,snappy"`
	NoData       bool   `parquet:"no_data,snappy"`

	// MonthlyJSON holds the per-month scores as a JSON array (nullable)
	MonthlyJSON *string `parquet:"monthly_json,optional,snappy"`
}

// write streams rows of T into w using struct schema inference.
func write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// writeFile creates outputPath and writes data to it.
func writeFile[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(file, data); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// WriteRunsParquet writes a slice of Run structs to a Parquet file.
func WriteRunsParquet(data []Run, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteScoresParquet writes a slice of Score structs to a Parquet file.
func WriteScoresParquet(data []Score, outputPath string) error {
	return writeFile(data, outputPath)
}

// WriteScoreRows writes long-form score rows to w.
func WriteScoreRows(w io.Writer, rows []schema.ScoreRow) error {
	scores, err := ConvertScoreRows(rows)
	if err != nil {
		return err
	}
	return write(w, scores)
}

// ConvertRunRecords converts schema.RunRecord to Run for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []Run {
	result := make([]Run, len(records))
	for i, record := range records {
		result[i] = Run{
			RunID:         record.RunID,
			RunKey:        record.RunKey,
			Role:          record.Role,
			Segment:       record.Segment,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			VisitCount:    record.VisitCount,
			Selection:     record.Selection,
		}
	}
	return result
}

// ConvertScoreRecords converts schema.ScoreRecord to Score for Parquet export.
func ConvertScoreRecords(records []schema.ScoreRecord) []Score {
	result := make([]Score, len(records))
	for i, record := range records {
		result[i] = Score{
			RunID:        record.RunID,
			Segment:      record.Segment,
			GroupName:    record.GroupName,
			MetricID:     record.MetricID,
			MetricLabel:  record.MetricLabel,
			Score:        record.Score,
			IsGroupScore: record.IsGroupScore,
			NoData:       record.NoData,
			MonthlyJSON:  record.MonthlyJSON,
		}
	}
	return result
}

// ConvertScoreRows converts in-memory score rows to Score for Parquet export.
func ConvertScoreRows(rows []schema.ScoreRow) ([]Score, error) {
	result := make([]Score, len(rows))
	for i, r := range rows {
		monthly, err := json.Marshal(r.MonthlyScores)
		if err != nil {
			return nil, fmt.Errorf("failed to encode monthly scores of %s: %w", r.MetricID, err)
		}
		monthlyJSON := string(monthly)
		result[i] = Score{
			Segment:      string(r.Segment),
			GroupName:    r.Group,
			MetricID:     r.MetricID,
			MetricLabel:  r.MetricLabel,
			Score:        int32(r.Score),
			IsGroupScore: r.IsGroupScore,
			NoData:       r.NoData,
			MonthlyJSON:  &monthlyJSON,
		}
	}
	return result, nil
}
