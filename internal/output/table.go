package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/bandradar/bandradar/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResults renders verification results as a table.
func (f *TableFormatter) FormatResults(results []*core.VerificationResult) (string, error) {
	if len(results) == 0 {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Type", "Name", "Status", "Confidence", "Notes"})

	available := 0
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Status == core.StatusAvailable {
			available++
		}
		t.AppendRow(table.Row{
			string(r.Type),
			r.Name,
			statusLabel(r),
			confidenceLabel(r),
			notesFor(r),
		})
	}

	if len(results) > 1 {
		t.AppendFooter(table.Row{
			"",
			"",
			fmt.Sprintf("%d/%d available", available, len(results)),
			"",
			"",
		})
	}

	return t.Render(), nil
}
