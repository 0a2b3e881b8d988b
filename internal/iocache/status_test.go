package iocache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTime() time.Time {
	return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
}

func TestPrintCacheStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintCacheStatus(&buf, schema.CacheStatus{Backend: "none"})
	assert.Equal(t, "Cache Backend: none\nConnected: false\n", buf.String())

	buf.Reset()
	PrintCacheStatus(&buf, schema.CacheStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalEntries:    2,
		LastEntryTime:   testTime(),
		OldestEntryTime: testTime(),
		TableSizeBytes:  8192,
	})
	out := buf.String()
	assert.Contains(t, out, "Total Entries: 2")
	assert.Contains(t, out, "Last Entry: ")
	assert.Contains(t, out, "Table Size: 8192 bytes")
}

func TestPrintHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	PrintHistoryStatus(&buf, schema.HistoryStatus{
		Backend:         "sqlite",
		Connected:       true,
		TotalRuns:       1,
		LastRunID:       1,
		LastRunTime:     testTime(),
		OldestRunTime:   testTime(),
		TotalVisitsSeen: 3,
		TableSizes:      map[string]int64{scoresTable: 6, runsTable: 1},
	})
	out := buf.String()
	assert.Contains(t, out, "Total Visits Seen: 3")
	// Table sizes are printed in name order
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(runsTable)), bytes.Index(buf.Bytes(), []byte(scoresTable)))
}

func TestExportHistory(t *testing.T) {
	store, err := NewHistoryStore(schema.SQLiteBackend, ":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	out := filepath.Join(t.TempDir(), "export")
	var buf bytes.Buffer

	err = ExportHistory(store, out, &buf)
	assert.ErrorContains(t, err, "no history data")

	id, err := store.BeginRun(testTime(), "Admin", schema.BranchSegment, schema.DefaultSelection())
	require.NoError(t, err)
	require.NoError(t, store.RecordScores(id, sampleRows()))
	require.NoError(t, store.EndRun(id, testTime().Add(time.Second), 3))

	require.NoError(t, ExportHistory(store, out, &buf))
	assert.Contains(t, buf.String(), "Exported 1 runs")
	assert.Contains(t, buf.String(), "Exported 3 score records")
	for _, suffix := range []string{".scorecard_runs.parquet", ".scorecard_scores.parquet"} {
		info, err := os.Stat(out + suffix)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}

func TestExportHistory_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, ExportHistory(nil, "out", &buf))

	store := &MockHistoryStore{}
	assert.ErrorContains(t, ExportHistory(store, "", &buf), "--output-file")

	store.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("db down"))
	assert.ErrorContains(t, ExportHistory(store, "out", &buf), "db down")
	store.AssertExpectations(t)
}
