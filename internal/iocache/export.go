package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/internal/parquet"
)

// ExportHistory writes every recorded run and score row to Parquet files
// named after outputFile, reporting progress to w.
func ExportHistory(store contract.HistoryStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("no history store is configured. Set --history-backend")
	}

	// Check if there's any data to export
	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no history data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total score records: %d\n", status.TableSizes[scoresTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	scores, err := store.GetAllScores()
	if err != nil {
		return fmt.Errorf("failed to retrieve scores: %w", err)
	}

	parquetRuns := parquet.ConvertRunRecords(runs)
	runsFile := outputFile + "." + runsTable + ".parquet"
	if err := parquet.WriteRunsParquet(parquetRuns, runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(parquetRuns), runsFile)

	parquetScores := parquet.ConvertScoreRecords(scores)
	scoresFile := outputFile + "." + scoresTable + ".parquet"
	if err := parquet.WriteScoresParquet(parquetScores, scoresFile); err != nil {
		return fmt.Errorf("failed to write scores: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d score records to: %s\n", len(parquetScores), scoresFile)
	return nil
}
