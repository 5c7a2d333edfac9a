package output

import (
	"fmt"
	"strings"

	"github.com/bandradar/bandradar/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders verification results.
type Formatter interface {
	FormatResults(results []*core.VerificationResult) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

func statusLabel(result *core.VerificationResult) string {
	if result == nil {
		return "unknown"
	}
	label := string(result.Status)
	if result.FromCache {
		label += " (cached)"
	}
	return label
}

func confidenceLabel(result *core.VerificationResult) string {
	if result == nil || result.ConfidenceLevel == "" {
		return ""
	}
	return fmt.Sprintf("%s (%.0f%%)", result.ConfidenceLevel, result.Confidence*100)
}

func notesFor(result *core.VerificationResult) string {
	if result == nil {
		return ""
	}

	parts := []string{}
	if result.Details != "" {
		parts = append(parts, result.Details)
	}
	if len(result.SimilarNames) > 0 {
		parts = append(parts, "similar: "+strings.Join(result.SimilarNames, ", "))
	}
	if len(result.Suggestions) > 0 {
		parts = append(parts, "try: "+strings.Join(result.Suggestions, ", "))
	}
	return strings.Join(parts, "; ")
}
