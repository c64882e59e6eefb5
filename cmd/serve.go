package cmd

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/giygas/anesdose/config"
	"github.com/giygas/anesdose/dosing"
	"github.com/giygas/anesdose/handlers"
	"github.com/giygas/anesdose/health"
	"github.com/giygas/anesdose/interfaces"
	"github.com/giygas/anesdose/logging"
	"github.com/giygas/anesdose/scheduler"
	"github.com/giygas/anesdose/server"
	"github.com/giygas/anesdose/validation"
	"github.com/spf13/cobra"
)

const (
	sweepInterval       = 30 * time.Minute
	sweepIdle           = time.Hour
	logCleanupInterval  = 24 * time.Hour
	healthLogInterval   = time.Hour
	qualityInterval     = 24 * time.Hour
	shutdownGracePeriod = 30 * time.Second
	profilerAddress     = "localhost:6060"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dose reference HTTP API",
		Long: `serve reads its configuration from the environment (PORT, ADDRESS, ENV,
LOG_LEVEL, LOG_DIR, CATALOG_PATH, RATE_LIMIT_RATE, ...) and runs until
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if root.catalogPath != "" {
				cfg.CatalogPath = root.catalogPath
			}
			return serve(ctx, cfg, root.verbose)
		},
	}
}

// serve runs the API until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, cfg *config.Config, verbose bool) error {
	if err := logging.InitLogger(logging.Options{
		Dir:            cfg.LogDir,
		Env:            cfg.Env,
		Level:          cfg.LogLevel,
		Verbose:        verbose,
		RetentionWeeks: cfg.LogRetentionWeeks,
		MaxFileSize:    cfg.MaxLogFileSize,
	}); err != nil {
		logging.Warn("File logging disabled", "error", err)
	}

	store, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logging.Info("Catalog ready", "version", store.Version(), "drugs", store.Len())

	validator := validation.NewCatalogValidator()
	checker := health.NewHealthChecker(store, time.Now())
	handler := handlers.NewHTTPHandler(store, dosing.NewEvaluator(store), validator, checker)
	limiter := server.NewRateLimiter(cfg.RateLimitRate, cfg.RateLimitCapacity)
	srv := server.NewServer(cfg, handler, limiter)

	sched := scheduler.NewScheduler(maintenanceJobs(limiter, checker, validator, store)...)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	if cfg.IsDevelopment() {
		go func() {
			logging.Info("Profiling server started", "url", "http://"+profilerAddress+"/debug/pprof/")
			if err := http.ListenAndServe(profilerAddress, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Warn("Profiling server failed", "error", err)
			}
		}()
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func maintenanceJobs(
	sweeper scheduler.Sweeper,
	checker interfaces.HealthChecker,
	validator interfaces.CatalogValidator,
	store interfaces.CatalogStore,
) []scheduler.Job {
	return []scheduler.Job{
		scheduler.RateLimiterSweepJob(sweeper, sweepInterval, sweepIdle),
		scheduler.LogCleanupJob(logging.CleanupOldLogs, logCleanupInterval),
		scheduler.HealthLogJob(checker, healthLogInterval),
		scheduler.CatalogQualityJob(validator, store, qualityInterval),
	}
}
