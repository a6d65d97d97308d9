package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/caliberhq/caliper/internal/adapters/http/api"
	"github.com/caliberhq/caliper/internal/adapters/http/swagger"
	app "github.com/caliberhq/caliper/internal/app"
	"github.com/caliberhq/caliper/internal/config"
	"github.com/caliberhq/caliper/pkg/logger"
	"github.com/caliberhq/caliper/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 30 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the audit evaluation service",
		Long: `Run the HTTP service that evaluates audit submissions and serves
performance reports.

Configuration is read from defaults, then an optional YAML file named by
CALIPER_CONFIG, then CALIPER_* environment variables.

Example:
  caliper serve
  CALIPER_ADDR=:8080 CALIPER_STORE=sqlite caliper serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), rootOpts)
		},
	}
	return cmd
}

func runServe(ctx context.Context, rootOpts *RootOptions) error {
	log := logger.Get()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if rootOpts.Verbose {
		_ = logger.SetLevelString("debug")
	}

	// Create and start the service with configuration options
	svc := app.New(
		app.WithLogger(log),
		app.WithStoreKind(cfg.Store),
		app.WithDBPath(cfg.DBPath),
		app.WithScorecardGlob(cfg.ScorecardGlob),
		app.WithRosterPath(cfg.RosterPath),
		app.WithFetchWorkers(cfg.FetchWorkers),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxReportDays(cfg.MaxReportDays),
	)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register the API docs under /api-docs
	swagger.Register(ctx, mux)

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server failure
	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// startServiceMetricsUpdater starts a background goroutine that refreshes
// service-level gauges from the service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateServiceMetrics pushes current service stats into the gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if audits, ok := stats["audits"].(int); ok {
		metrics.UpdateStoreAuditsTotal(audits)
	}
	if cards, ok := stats["scorecards"].(int); ok {
		metrics.UpdateScorecardCount(cards)
	}
	if entries, ok := stats["rosterEntries"].(int); ok {
		metrics.UpdateRosterEntries(entries)
	}
	if workers, ok := stats["fetchWorkers"].(int); ok {
		metrics.UpdateFetchWorkerCount(workers)
	}
}
