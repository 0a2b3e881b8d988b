//go:build basic

// Package integration contains integration tests for scorecard.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noStores keeps the binary away from the caller's home directory databases.
var noStores = []string{"SCORECARD_CACHE_BACKEND=none"}

func runScorecard(t *testing.T, env []string, args ...string) (string, string) {
	t.Helper()
	cmd := scorecardCommand(append(noStores, env...), args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String(), stderr.String()
}

// TestShowJSONVerification checks the CLI scorecard against the fixture data.
func TestShowJSONVerification(t *testing.T) {
	out, _ := runScorecard(t, []string{"SCORECARD_ACCESS_CODE=1947"}, "show", "--output", "json")

	var card schema.Scorecard
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.Equal(t, "Dubai", card.Role)
	assert.Equal(t, schema.BranchSegment, card.Segment)
	assert.Equal(t, 3, card.VisitCount)
	require.NotEmpty(t, card.Table.Rows)

	rollup := card.Table.Rows[0]
	assert.Equal(t, "W_PRODUCT", rollup.MetricID)
	assert.True(t, rollup.IsGroupScore)
	assert.Equal(t, 70, rollup.Score)
}

// TestShowMonthFilter checks that the month filter narrows the visit base.
func TestShowMonthFilter(t *testing.T) {
	out, _ := runScorecard(t, []string{"SCORECARD_ACCESS_CODE=1947"}, "show", "--output", "json", "--month", "January")

	var card schema.Scorecard
	require.NoError(t, json.Unmarshal([]byte(out), &card))
	assert.Equal(t, 2, card.VisitCount)
}

// TestCombinedCSV checks the combined table keeps segment display order.
func TestCombinedCSV(t *testing.T) {
	out, _ := runScorecard(t, []string{"SCORECARD_ACCESS_CODE=5823"}, "combined", "--output", "csv")

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Greater(t, len(records), 1)
	assert.Equal(t, "segment", records[0][0])
	assert.Equal(t, string(schema.BranchSegment), records[1][0])
}

// TestAccessCheck checks access code resolution end to end.
func TestAccessCheck(t *testing.T) {
	out, _ := runScorecard(t, []string{"SCORECARD_ACCESS_CODE=7365"}, "access", "check")
	assert.Contains(t, out, "role Sharjah")

	cmd := scorecardCommand(append(noStores, "SCORECARD_ACCESS_CODE=0000"), "access", "check")
	require.Error(t, cmd.Run(), "an unknown code must fail")
}

// TestGroupsNeedsNoAccessCode checks that configuration listings work without a code.
func TestGroupsNeedsNoAccessCode(t *testing.T) {
	out, _ := runScorecard(t, nil, "groups", "--segment", "branch")
	assert.Contains(t, out, "W_PRODUCT")
}
