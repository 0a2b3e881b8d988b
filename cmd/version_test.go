package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/huangsam/scorecard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInfo(t *testing.T) {
	info, err := collectBuildInfo()
	require.NoError(t, err)
	assert.Equal(t, uint(2), info.HistorySchema)
	assert.Len(t, info.ConfigDigest, 12)
	assert.Equal(t, schema.AllSegments, info.Segments)

	var text bytes.Buffer
	require.NoError(t, writeBuildInfo(&text, info, schema.TextOut))
	assert.Contains(t, text.String(), "scorecard CLI")
	assert.Contains(t, text.String(), "Schema:  v2")

	var js bytes.Buffer
	require.NoError(t, writeBuildInfo(&js, info, schema.JSONOut))
	var got buildInfo
	require.NoError(t, json.Unmarshal(js.Bytes(), &got))
	assert.Equal(t, info, got)
}
