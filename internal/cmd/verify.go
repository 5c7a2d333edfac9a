package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bandradar/bandradar/internal/config"
	"github.com/bandradar/bandradar/internal/core"
	"github.com/bandradar/bandradar/internal/core/engine"
	"github.com/bandradar/bandradar/internal/core/store"
	"github.com/bandradar/bandradar/internal/observability"
	"github.com/bandradar/bandradar/internal/output"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <name>...",
	Short: "Verify name availability",
	Long:  "Check whether band or song names are already in use across music catalogs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("type", "band", "Name type: band, song")
	verifyCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	verifyCmd.Flags().Bool("no-cache", false, "Skip cache lookup")
	verifyCmd.Flags().Bool("no-store", false, "Run without the local store (no rate limit persistence or history)")
	verifyCmd.Flags().StringSlice("sources", nil, "Restrict to specific sources (spotify, itunes, musicbrainz, domain)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	nameType, err := resolveNameType(cmd)
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
	noStore, err := cmd.Flags().GetBool("no-store")
	if err != nil {
		return err
	}
	sources, err := cmd.Flags().GetStringSlice("sources")
	if err != nil {
		return err
	}

	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	verifier, cleanup, closeStore, err := buildCLIVerifier(ctx, cfg, !noCache, !noStore)
	if err != nil {
		return err
	}
	defer closeStore()
	defer cleanup()

	options := core.DefaultRequestOptions()
	options.CacheEnabled = !noCache
	options.Sources = normalizeSources(sources)

	requests := make([]core.NameRequest, len(args))
	for i, raw := range args {
		requests[i] = core.NameRequest{
			Name:    strings.TrimSpace(raw),
			Type:    nameType,
			Options: options,
		}
	}

	results, err := verifier.VerifyNames(ctx, requests)
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format).FormatResults(results)
	if err != nil {
		return err
	}
	if rendered != "" {
		fmt.Println(rendered)
	}

	if format != output.FormatJSON {
		logThroughput(len(results), startedAt)
	}
	return nil
}

func resolveNameType(cmd *cobra.Command) (core.NameType, error) {
	value, err := cmd.Flags().GetString("type")
	if err != nil {
		return "", err
	}
	nameType := core.NameType(strings.ToLower(strings.TrimSpace(value)))
	if !nameType.Valid() {
		return "", fmt.Errorf("invalid name type %q (want band or song)", value)
	}
	return nameType, nil
}

func normalizeSources(values []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			id := strings.ToLower(strings.TrimSpace(part))
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

// buildCLIVerifier wires the engine for a one-shot CLI run. Store
// trouble degrades to an in-memory run instead of failing the check;
// the store only carries rate limit state and history.
func buildCLIVerifier(ctx context.Context, cfg *config.Config, useCache, useStore bool) (*engine.Verifier, func(), func(), error) {
	closeStore := func() {}

	var st *store.Store
	if useStore {
		db, err := openStore(ctx)
		if err != nil {
			observability.CLILogger.Warn("Store unavailable, continuing without persistence", zap.Error(err))
		} else {
			st = db
			closeStore = func() { _ = db.Close() }
		}
	}

	verifier, cleanup, err := buildVerifier(cfg, st, useCache)
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}
	return verifier, cleanup, closeStore, nil
}

func logThroughput(count int, startedAt time.Time) {
	if count <= 0 {
		return
	}
	elapsed := time.Since(startedAt)
	if elapsed <= 0 {
		return
	}
	rate := float64(count) / elapsed.Seconds()
	observability.CLILogger.Info(
		"Verification throughput",
		zap.Int("names", count),
		zap.Duration("elapsed", elapsed),
		zap.Float64("rate_per_sec", rate),
	)
}
