package output

import (
	"fmt"
	"strings"

	"github.com/bandradar/bandradar/internal/core"
)

// MarkdownFormatter renders results as a markdown table.
type MarkdownFormatter struct{}

// FormatResults renders verification results as Markdown.
func (f *MarkdownFormatter) FormatResults(results []*core.VerificationResult) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("## Name availability\n\n")
	sb.WriteString("| Type | Name | Status | Confidence | Notes |\n")
	sb.WriteString("|------|------|--------|------------|-------|\n")

	available := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Status == core.StatusAvailable {
			available++
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			escapeMarkdownCell(string(r.Type)),
			escapeMarkdownCell(r.Name),
			escapeMarkdownCell(statusLabel(r)),
			escapeMarkdownCell(confidenceLabel(r)),
			escapeMarkdownCell(notesFor(r)),
		))
	}

	if len(results) > 1 {
		sb.WriteString(fmt.Sprintf("\n**Score**: %d/%d available\n", available, len(results)))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
