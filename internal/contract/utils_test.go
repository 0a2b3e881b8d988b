package contract

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = schema.ScoreThresholds{Danger: 70, Warning: 85}

func TestGetPlainLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"smallest value possible", 0, "danger"},
		{"just before warning", 69.9, "danger"},
		{"exactly warning", 70, "warning"},
		{"just before success", 84.9, "warning"},
		{"exactly success", 85, "success"},
		{"perfect", 100, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetPlainLabel(tt.input, testThresholds))
		})
	}
}

func TestGetColorLabel(t *testing.T) {
	for _, score := range []float64{10, 75, 95} {
		result := GetColorLabel(score, testThresholds)
		assert.Contains(t, result, GetPlainLabel(score, testThresholds))
	}
}

func TestSelectOutputFile(t *testing.T) {
	f, err := SelectOutputFile("")
	require.NoError(t, err)
	assert.Equal(t, os.Stdout, f)

	path := filepath.Join(t.TempDir(), "out.csv")
	f, err = SelectOutputFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, path, f.Name())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("hidden")
	logger.Warn("segment degraded", "segment", "website")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "segment degraded")
	assert.Contains(t, out, "segment=website")
}

func TestTruncateLabel(t *testing.T) {
	assert.Equal(t, "short", TruncateLabel("short", 10))
	assert.Equal(t, "Staff gr...", TruncateLabel("Staff greeted promptly", 11))
	assert.Equal(t, "abcdef", TruncateLabel("abcdef", 3))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("perhaps")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid boolean string"))
}

func TestDBFilePathsDiffer(t *testing.T) {
	assert.NotEqual(t, GetCacheDBFilePath(), GetHistoryDBFilePath())
}
