package registry

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetrics = `metric_groups:
  Product Knowledge:
    Q5_1: Explained features clearly
    Q5_2: Answered questions confidently
  Greeting:
    Q3_1: Greeted promptly
weight_variables:
  Product Knowledge: W_PRODUCT
`

func minimalFS() fstest.MapFS {
	return fstest.MapFS{
		"segments.yaml": {Data: []byte(`segments:
  branch:
    name: Branch
    source: branch.csv
    metrics: metrics.yaml
`)},
		"metrics.yaml":      {Data: []byte(testMetrics)},
		"months.yaml":       {Data: []byte("month_mapping:\n  1: Jan\n  2: Feb\n")},
		"score_colors.yaml": {Data: []byte("score_colors:\n  danger: 70\n  warning: 85\n")},
		"categories.yaml":   {Data: []byte("branch:\n  1: Dubai\n  2: Sharjah\n")},
		"access.yaml":       {Data: []byte("access_codes:\n  - role: Admin\n    code: \"1234\"\n  - role: Dubai\n    code: \"4321\"\n")},
	}
}

func TestLoadDefault(t *testing.T) {
	reg, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, schema.AllSegments, reg.Segments())
	assert.Equal(t, schema.ScoreThresholds{Danger: 70, Warning: 85}, reg.Thresholds())
	assert.Len(t, reg.MonthLabels(), 12)
	assert.Equal(t, "January", reg.MonthLabels()[0])
	assert.Contains(t, reg.Roles(), schema.AdminRole)
	assert.Equal(t, "Contact Centre", reg.SegmentName(schema.ContactCentreSegment))

	groups, err := reg.Groups(schema.BranchSegment)
	require.NoError(t, err)
	require.NotEmpty(t, groups)
	assert.Equal(t, "First Impressions", groups[0].Name)
	assert.Equal(t, "Overall Experience", groups[len(groups)-1].Name)
	assert.Empty(t, groups[len(groups)-1].WeightVariable)

	appt, ok := reg.Mapping(schema.AppointmentColumn)
	require.True(t, ok)
	label, ok := appt.Lookup(4)
	assert.True(t, ok)
	assert.Equal(t, "Walkin Customer", label)
}

func TestLoadKeepsDeclarationOrder(t *testing.T) {
	reg, err := Load(minimalFS())
	require.NoError(t, err)

	groups, err := reg.Groups(schema.BranchSegment)
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Product Knowledge", groups[0].Name)
	assert.Equal(t, "W_PRODUCT", groups[0].WeightVariable)
	assert.Equal(t, "Product Knowledge OVERALL", groups[0].RollupLabel())
	assert.Equal(t, []Metric{
		{ID: "Q5_1", Label: "Explained features clearly"},
		{ID: "Q5_2", Label: "Answered questions confidently"},
	}, groups[0].Metrics)
	assert.Equal(t, "Greeting", groups[1].Name)
	assert.Empty(t, groups[1].WeightVariable)
}

func TestGroupsReturnsCopy(t *testing.T) {
	reg, err := Load(minimalFS())
	require.NoError(t, err)

	groups, err := reg.Groups(schema.BranchSegment)
	require.NoError(t, err)
	groups[0].Metrics[0].Label = "changed"
	groups[0].Name = "changed"

	again, err := reg.Groups(schema.BranchSegment)
	require.NoError(t, err)
	assert.Equal(t, "Product Knowledge", again[0].Name)
	assert.Equal(t, "Explained features clearly", again[0].Metrics[0].Label)
}

func TestUnknownSegment(t *testing.T) {
	reg, err := Load(minimalFS())
	require.NoError(t, err)

	_, err = reg.Groups(schema.WebsiteSegment)
	require.ErrorIs(t, err, ErrUnknownSegment)
	assert.Equal(t, "website", reg.SegmentName(schema.WebsiteSegment))
	assert.Equal(t, []schema.Segment{schema.BranchSegment}, reg.Segments())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		content     string
		expectError string
	}{
		{
			name:        "danger above warning",
			file:        "score_colors.yaml",
			content:     "score_colors:\n  danger: 90\n  warning: 80\n",
			expectError: "thresholds must satisfy",
		},
		{
			name:        "missing thresholds",
			file:        "score_colors.yaml",
			content:     "other: 1\n",
			expectError: "missing score_colors",
		},
		{
			name:        "duplicate group",
			file:        "metrics.yaml",
			content:     "metric_groups:\n  A:\n    Q1: one\n  A:\n    Q2: two\n",
			expectError: "duplicate key",
		},
		{
			name:        "weight for unknown group",
			file:        "metrics.yaml",
			content:     "metric_groups:\n  A:\n    Q1: one\nweight_variables:\n  B: W_B\n",
			expectError: "unknown group",
		},
		{
			name:        "short access code",
			file:        "access.yaml",
			content:     "access_codes:\n  - role: Admin\n    code: \"12\"\n",
			expectError: "must be 4 digits",
		},
		{
			name:        "code and hash together",
			file:        "access.yaml",
			content:     "access_codes:\n  - role: Admin\n    code: \"1234\"\n    code_hash: x\n",
			expectError: "both code and code_hash",
		},
		{
			name:        "unknown category section",
			file:        "categories.yaml",
			content:     "region:\n  1: North\n",
			expectError: "unknown category",
		},
		{
			name:        "unknown segment id",
			file:        "segments.yaml",
			content:     "segments:\n  kiosk:\n    source: k.csv\n    metrics: metrics.yaml\n",
			expectError: "unknown segment",
		},
		{
			name:        "malformed yaml",
			file:        "months.yaml",
			content:     "month_mapping: [\n",
			expectError: "parse months.yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := minimalFS()
			fsys[tt.file] = &fstest.MapFile{Data: []byte(tt.content)}
			_, err := Load(fsys)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestLoadSharedMetricsAndWeightOnlyGroups(t *testing.T) {
	fsys := minimalFS()
	fsys["metrics.yaml"] = &fstest.MapFile{Data: []byte(`metric_groups:
  A:
    Q5_1: Explained features clearly
  B:
    Q5_1: Explained features clearly
    Q5_2: Answered questions confidently
  C: {}
  D:
weight_variables:
  C: W_C
  D: W_D
`)}
	reg, err := Load(fsys)
	require.NoError(t, err)

	groups, err := reg.Groups(schema.BranchSegment)
	require.NoError(t, err)
	require.Len(t, groups, 4)
	assert.Equal(t, "Q5_1", groups[0].Metrics[0].ID)
	assert.Equal(t, "Q5_1", groups[1].Metrics[0].ID)
	assert.Empty(t, groups[2].Metrics)
	assert.Equal(t, "W_C", groups[2].WeightVariable)
	assert.Empty(t, groups[3].Metrics)
	assert.Equal(t, "W_D", groups[3].WeightVariable)
}

func TestLoadMissingFile(t *testing.T) {
	fsys := minimalFS()
	delete(fsys, "access.yaml")
	_, err := Load(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read access.yaml")
}

func TestLoadDirOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "score_colors.yaml"),
		[]byte("score_colors:\n  danger: 50\n  warning: 60\n"), 0o644))

	reg, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, schema.ScoreThresholds{Danger: 50, Warning: 60}, reg.Thresholds())
	assert.Equal(t, schema.AllSegments, reg.Segments())

	_, err = LoadDir(filepath.Join(dir, "missing"))
	require.Error(t, err)
}

func TestCategoryLabelsOrderedByCode(t *testing.T) {
	m := CategoryMapping{3: "c", 1: "a", 10: "j", 2: "b"}
	assert.Equal(t, []string{"a", "b", "c", "j"}, m.Labels())
}

func TestGroupInfo(t *testing.T) {
	reg, err := Load(minimalFS())
	require.NoError(t, err)

	info, err := reg.GroupInfo(schema.BranchSegment)
	require.NoError(t, err)
	require.Len(t, info, 2)
	assert.Equal(t, "W_PRODUCT", info[0].WeightVariable)
	assert.Equal(t, "Q5_1", info[0].Metrics[0].ID)
	assert.True(t, reg.IsKnownRole("Dubai"))
	assert.False(t, reg.IsKnownRole("Ajman"))
}

func TestFingerprint(t *testing.T) {
	a, err := Load(minimalFS())
	require.NoError(t, err)
	b, err := Load(minimalFS())
	require.NoError(t, err)
	assert.NotEmpty(t, a.Fingerprint())
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	fsys := minimalFS()
	fsys["score_colors.yaml"] = &fstest.MapFile{Data: []byte("score_colors:\n  danger: 60\n  warning: 85\n")}
	c, err := Load(fsys)
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}
