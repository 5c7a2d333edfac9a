package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/bandradar/bandradar/internal/output"
)

var (
	historyLimit  int
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent verifications",
	Long:  "List recent verification outcomes recorded in the local store, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(historyOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		rows, err := db.RecentVerifications(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			encoded, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(encoded))
			return nil
		}

		if len(rows) == 0 {
			fmt.Println("No verifications recorded yet.")
			return nil
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Checked", "Type", "Name", "Status", "Confidence", "Cached"})
		for _, row := range rows {
			cached := ""
			if row.FromCache {
				cached = "yes"
			}
			t.AppendRow(table.Row{
				row.CheckedAt.Local().Format(time.DateTime),
				string(row.Type),
				row.Name,
				string(row.Status),
				fmt.Sprintf("%.0f%%", row.Confidence*100),
				cached,
			})
		}
		fmt.Println(t.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum rows to show")
	historyCmd.Flags().StringVar(&historyOutput, "output", "table", "Output format: table, json")
}
