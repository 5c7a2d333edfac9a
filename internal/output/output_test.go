package output

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bandradar/bandradar/internal/core"
)

func sampleResults() []*core.VerificationResult {
	return []*core.VerificationResult{
		{
			Name:            "Velvet Fox",
			Type:            core.NameTypeBand,
			Status:          core.StatusAvailable,
			Details:         "no conflicting names across 3 source(s)",
			Confidence:      0.9,
			ConfidenceLevel: core.ConfidenceVeryHigh,
			Quality:         core.AggregationHigh,
			CheckedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			Name:            "The Beatles",
			Type:            core.NameTypeBand,
			Status:          core.StatusTaken,
			Details:         "\"The Beatles\" is a well-known artist",
			Suggestions:     []string{"The Beatles Collective"},
			Confidence:      0.98,
			ConfidenceLevel: core.ConfidenceVeryHigh,
			Quality:         core.AggregationHigh,
			CheckedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			FromCache:       true,
		},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	_, err = ParseFormat("yaml")
	require.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatResults(sampleResults())
	require.NoError(t, err)

	assert.Contains(t, rendered, "Velvet Fox")
	assert.Contains(t, rendered, "available")
	assert.Contains(t, rendered, "taken (cached)")
	assert.Contains(t, rendered, "1/2 available")
}

func TestJSONFormatterRoundTrips(t *testing.T) {
	rendered, err := (&JSONFormatter{Indent: true}).FormatResults(sampleResults())
	require.NoError(t, err)

	var decoded []core.VerificationResult
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, core.StatusTaken, decoded[1].Status)
	assert.True(t, decoded[1].FromCache)
}

func TestMarkdownFormatter(t *testing.T) {
	rendered, err := (&MarkdownFormatter{}).FormatResults(sampleResults())
	require.NoError(t, err)

	assert.Contains(t, rendered, "| band | Velvet Fox |")
	assert.Contains(t, rendered, "**Score**: 1/2 available")
	assert.Contains(t, rendered, "try: The Beatles Collective")
}

func TestFormattersEmptyInput(t *testing.T) {
	for _, formatter := range []Formatter{&TableFormatter{}, &MarkdownFormatter{}} {
		rendered, err := formatter.FormatResults(nil)
		require.NoError(t, err)
		assert.Empty(t, rendered)
	}
}
