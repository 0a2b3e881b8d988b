// Package outwriter renders scorecards, score tables and configuration
// listings as text tables, CSV, JSON or Parquet.
package outwriter

import (
	"fmt"
	"os"
	"strconv"

	"github.com/huangsam/scorecard/internal/contract"
	"github.com/huangsam/scorecard/schema"
	"golang.org/x/term"
)

// noDataText is shown instead of a score that has no answers behind it.
const noDataText = "n/a"

// GetMaxLabelWidth calculates the maximum width for metric labels in table
// output based on terminal width and the number of score columns beside them.
func GetMaxLabelWidth(cfg *contract.Config, scoreColumns int) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			// Fallback to conservative default if terminal size can't be detected
			termWidth = 80
		} else {
			termWidth = detectedWidth
		}
	}

	// Group + ID columns, then each score column, then borders and padding
	baseWidth := 30 + 9*scoreColumns + 20

	available := termWidth - baseWidth
	if available < 15 {
		return 15
	}
	if available > 60 {
		return 60
	}
	return available
}

// bandFunc returns the function painting text in the color of a score band.
func bandFunc(cfg *contract.Config) func(schema.ColorLabel, string) string {
	if cfg.UseColors {
		return contract.ColorizeByBand
	}
	return func(_ schema.ColorLabel, text string) string { return text }
}

// noDataFunc returns the function painting the no-data marker.
func noDataFunc(cfg *contract.Config) func(string) string {
	if cfg.UseColors {
		return func(s string) string { return contract.NoDataColor.Sprint(s) }
	}
	return func(s string) string { return s }
}

// formatScore renders an integer score, or the no-data marker.
func formatScore(score int, noData bool) string {
	if noData {
		return noDataText
	}
	return strconv.Itoa(score)
}

// formatAverage renders a one-decimal group score.
func formatAverage(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

// rowBand returns the band of a score row, or "" when it has no data.
func rowBand(r schema.ScoreRow, thresholds schema.ScoreThresholds) string {
	if r.NoData {
		return ""
	}
	return string(thresholds.Label(float64(r.Score)))
}

// monthCell renders a row's score for one month, or "" if the month has none.
func monthCell(r schema.ScoreRow, month string) string {
	if s, ok := r.MonthlyScore(month); ok {
		return strconv.Itoa(s)
	}
	return ""
}
