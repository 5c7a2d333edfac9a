package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bandradar/bandradar/internal/config"
	errwrap "github.com/bandradar/bandradar/internal/errors"
	"github.com/bandradar/bandradar/internal/observability"
	"github.com/bandradar/bandradar/internal/server"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP verification server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit

The server cleanly shuts down in-flight requests and flushes logs on
shutdown.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "server port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	if cfg == nil {
		return errors.New("config not loaded")
	}

	logLevel := cfg.Logging.Level
	observability.InitServerLogger("bandradar", logLevel)
	logger := observability.ServerLogger

	serverCfg := cfg.Server
	if serverHost != "" {
		serverCfg.Host = serverHost
	}
	if serverPort != 0 {
		serverCfg.Port = serverPort
	}

	ctx := cmd.Context()

	st, err := openStore(ctx)
	if err != nil {
		logger.Warn("Store unavailable, serving without persistence", zap.Error(err))
		st = nil
	}

	verifier, cleanup, err := buildVerifier(cfg, st, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if verifier.Dedup != nil && cfg.Cache.SweepInterval > 0 {
		if err := verifier.Dedup.StartSweeper(cfg.Cache.SweepInterval); err != nil {
			logger.Warn("Failed to start dedup sweeper", zap.Error(err))
		}
	}

	logger.Info("Initializing server",
		zap.String("version", versionInfo.Version),
		zap.String("host", serverCfg.Host),
		zap.Int("port", serverCfg.Port),
		zap.Int("sources", len(verifier.Coordinator.Sources)),
		zap.Bool("store", st != nil))

	srv := server.New(serverCfg, verifier, versionInfo.Version)

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}

	// Shutdown handlers run LIFO: server first, then store, then logs.
	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Flushing logger...")
		if err := logger.Sync(); err != nil {
			// Sync errors are often benign (stdout/stderr already closed)
			logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
		}
		return nil
	})

	if st != nil {
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Closing store...")
			return st.Close()
		})
	}

	signals.OnShutdown(func(ctx context.Context) error {
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errwrap.WrapInternal(ctx, err, "server shutdown failed")
		}

		logger.Info("HTTP server stopped gracefully")
		return nil
	})

	if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
		Window:  2 * time.Second,
		Message: "Press Ctrl+C again within 2 seconds to force quit",
	}); err != nil {
		logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server...",
			zap.String("host", serverCfg.Host),
			zap.Int("port", serverCfg.Port))
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	go func() {
		if err := signals.Listen(ctx); err != nil {
			logger.Error("Signal handler error", zap.Error(err))
			errChan <- err
		}
	}()

	if err := <-errChan; err != nil {
		return errwrap.WrapInternal(ctx, err, "server error")
	}

	return nil
}
