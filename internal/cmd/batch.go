package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify multiple names from file",
	Long: `Read names from a file (one per line, "-" for stdin) and verify
availability. A line may override the default type with a "band:" or
"song:" prefix.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("type", "band", "Default name type: band, song")
	batchCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	batchCmd.Flags().Bool("no-cache", false, "Skip cache lookup")
	batchCmd.Flags().Bool("available-only", false, "Only show names that came back available")
}

func runBatch(cmd *cobra.Command, args []string) error {
	defaultType, err := resolveNameType(cmd)
	if err != nil {
		return err
	}

	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	availableOnly, err := cmd.Flags().GetBool("available-only")
	if err != nil {
		return err
	}

	entries, err := readBatchFile(args[0], defaultType)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return errors.New("no names found in batch file")
	}

	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	verifier, cleanup, closeStore, err := buildCLIVerifier(ctx, cfg, !noCache, true)
	if err != nil {
		return err
	}
	defer closeStore()
	defer cleanup()

	options := core.DefaultRequestOptions()
	options.CacheEnabled = !noCache

	requests := make([]core.NameRequest, len(entries))
	for i, entry := range entries {
		requests[i] = core.NameRequest{Name: entry.name, Type: entry.nameType, Options: options}
	}

	results, err := verifier.VerifyNames(ctx, requests)
	if err != nil {
		return err
	}

	if availableOnly {
		filtered := results[:0]
		for _, result := range results {
			if result.Status == core.StatusAvailable {
				filtered = append(filtered, result)
			}
		}
		results = filtered
	}

	rendered, err := output.NewFormatter(format).FormatResults(results)
	if err != nil {
		return err
	}
	if strings.TrimSpace(rendered) != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(len(results), startedAt)
	}
	return nil
}

type batchEntry struct {
	name     string
	nameType core.NameType
}

func readBatchFile(path string, defaultType core.NameType) ([]batchEntry, error) {
	var reader io.Reader
	if path == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer file.Close() // nolint:errcheck // best-effort cleanup on read-only file
		reader = file
	}

	entries := make([]batchEntry, 0)
	scanner := bufio.NewScanner(reader)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}

		entry := batchEntry{name: raw, nameType: defaultType}
		if prefix, rest, ok := strings.Cut(raw, ":"); ok {
			if typed := core.NameType(strings.ToLower(strings.TrimSpace(prefix))); typed.Valid() {
				entry.nameType = typed
				entry.name = strings.TrimSpace(rest)
			}
		}
		if entry.name == "" {
			return nil, fmt.Errorf("empty name on line %d", line)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
