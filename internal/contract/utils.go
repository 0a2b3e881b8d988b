package contract

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/scorecard/schema"
)

// Color variables for console output.
var (
	DangerColor  = color.New(color.FgRed, color.Bold) // DangerColor flags scores below the first cutoff.
	WarningColor = color.New(color.FgYellow)          // WarningColor flags scores below the second cutoff.
	SuccessColor = color.New(color.FgGreen)           // SuccessColor marks everything else.
	NoDataColor  = color.New(color.FgHiBlack)         // NoDataColor marks scores with no answers behind them.
)

// GetPlainLabel returns the color band name for a score.
func GetPlainLabel(score float64, thresholds schema.ScoreThresholds) string {
	return string(thresholds.Label(score))
}

// GetColorLabel returns a colored text label for console output (table).
// It uses GetPlainLabel to determine the band, and then applies the appropriate color.
func GetColorLabel(score float64, thresholds schema.ScoreThresholds) string {
	return ColorizeByBand(thresholds.Label(score), GetPlainLabel(score, thresholds))
}

// ColorizeByBand paints arbitrary text in the color of a band.
func ColorizeByBand(label schema.ColorLabel, text string) string {
	switch label {
	case schema.DangerLabel:
		return DangerColor.Sprint(text)
	case schema.WarningLabel:
		return WarningColor.Sprint(text)
	default: // "success"
		return SuccessColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It returns os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// NewLogger builds the slog logger used for pipeline diagnostics.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".scorecard_cache.db"
	}
	return filepath.Join(homeDir, ".scorecard_cache.db")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for history storage.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".scorecard_history.db"
	}
	return filepath.Join(homeDir, ".scorecard_history.db")
}

// TruncateLabel truncates a display label to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
