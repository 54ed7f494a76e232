// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/garyellow/aisis-planner-go/internal/api"
	"github.com/garyellow/aisis-planner-go/internal/buildinfo"
	"github.com/garyellow/aisis-planner-go/internal/config"
	"github.com/garyellow/aisis-planner-go/internal/importer"
	"github.com/garyellow/aisis-planner-go/internal/logger"
	"github.com/garyellow/aisis-planner-go/internal/metrics"
	"github.com/garyellow/aisis-planner-go/internal/r2client"
	"github.com/garyellow/aisis-planner-go/internal/ratelimit"
	"github.com/garyellow/aisis-planner-go/internal/sentry"
	"github.com/garyellow/aisis-planner-go/internal/storage"
)

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg      *config.Config
	logger   *logger.Logger
	db       *storage.DB // nil when persistence is disabled
	metrics  *metrics.Metrics
	registry *prometheus.Registry
	importer *importer.Importer
	limiter  *ratelimit.KeyedLimiter // nil when rate limiting is disabled
	router   *gin.Engine
	server   *http.Server
	wg       sync.WaitGroup // Track background goroutines for graceful shutdown
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(cfg.LogLevel, os.Stdout, logger.Options{
		BetterStackToken:    cfg.BetterStackToken(),
		BetterStackEndpoint: cfg.BetterStack.Endpoint,
	})

	log = log.WithField("service", "aisis-planner-go")
	if cfg.ServerName != "" {
		log = log.WithField("instance_id", cfg.ServerName)
	} else if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Set as default logger so package-level slog.*Context() calls pick up
	// request_id, run_id and kind through the ContextHandler.
	slog.SetDefault(log.Logger)

	log.WithField("version", buildinfo.String()).Info("Initializing application...")
	if cfg.BetterStackToken() != "" {
		log.WithField("endpoint", cfg.BetterStack.Endpoint).Info("Better Stack logging enabled")
	}

	sentryEnabled := cfg.Sentry.Enabled && cfg.Sentry.DSN != ""
	if sentryEnabled {
		release := cfg.Sentry.Release
		if release == "" {
			release = buildinfo.Version
		}
		if err := sentry.Initialize(sentry.Config{
			DSN:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          release,
			SampleRate:       cfg.Sentry.SampleRate,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
			sentryEnabled = false
		} else {
			log.WithField("environment", cfg.Sentry.Environment).Info("Sentry error reporting enabled")
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)

	opts := []importer.Option{
		importer.WithTimeout(cfg.ParseTimeout),
		importer.WithMaxInputBytes(cfg.MaxInputBytes),
		importer.WithMetrics(m),
	}

	var db *storage.DB
	if cfg.PersistEnabled {
		var err error
		db, err = storage.New(ctx, cfg.SQLitePath())
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		db.SetMetrics(m)
		opts = append(opts, importer.WithStore(db))
		log.WithField("path", cfg.SQLitePath()).Info("Database connected")
	} else {
		log.Info("Persistence disabled, runs are not stored")
	}

	var archive *r2client.Archive
	if cfg.R2.Enabled {
		var err error
		archive, err = newArchive(ctx, cfg)
		if err != nil {
			if db != nil {
				_ = db.Close()
			}
			return nil, fmt.Errorf("r2 archive: %w", err)
		}
		opts = append(opts, importer.WithArchive(archive))
		log.WithField("bucket", cfg.R2.BucketName).
			WithField("prefix", cfg.R2.ArchivePrefix).
			Info("Raw input archive enabled")
	}

	im := importer.New(log, opts...)

	handlerCfg := api.Config{
		Importer:         im,
		Metrics:          m,
		Logger:           log,
		PersistByDefault: cfg.PersistEnabled,
		MaxBodyBytes:     2 * int64(cfg.MaxInputBytes),
	}
	if db != nil {
		handlerCfg.DB = db
	}
	if archive != nil {
		handlerCfg.Archive = archive
	}

	routerOpts := api.RouterOptions{
		Logger:      log,
		Gatherer:    registry,
		MetricsAuth: cfg.Metrics,
		Sentry:      sentryEnabled,
	}
	var limiter *ratelimit.KeyedLimiter
	if cfg.RateLimit > 0 {
		burst, rate := ratelimit.PerMinute(cfg.RateLimit)
		limiter = ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:          "parse",
			Burst:         burst,
			RefillRate:    rate,
			CleanupPeriod: config.RateLimiterCleanup,
			Metrics:       m,
		})
		routerOpts.RateLimiter = limiter
		log.WithField("per_minute", cfg.RateLimit).Info("Parse rate limiting enabled")
	}

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.NewHandler(handlerCfg), routerOpts)

	app := &Application{
		cfg:      cfg,
		logger:   log,
		db:       db,
		metrics:  m,
		registry: registry,
		importer: im,
		limiter:  limiter,
		router:   router,
	}
	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

func newArchive(ctx context.Context, cfg *config.Config) (*r2client.Archive, error) {
	client, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2Endpoint(),
		AccessKeyID: cfg.R2.AccessKeyID,
		SecretKey:   cfg.R2.SecretAccessKey,
		BucketName:  cfg.R2.BucketName,
	})
	if err != nil {
		return nil, err
	}
	return r2client.NewArchive(client, cfg.R2.ArchivePrefix)
}

// Run starts the HTTP server and background jobs.
//
// Graceful shutdown sequence:
//  1. Receive shutdown signal (SIGINT/SIGTERM)
//  2. Cancel context so background jobs stop
//  3. Wait for background jobs to complete
//  4. Stop the HTTP server, then drain archive uploads and close resources
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startBackgroundJobs(ctx)
	serverErr := a.startHTTPServer()

	select {
	case sig := <-a.waitForShutdownSignal():
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErr:
		a.logger.WithError(err).Error("HTTP server error")
	}

	cancel()

	a.logger.Info("Waiting for background jobs to finish...")
	start := time.Now()
	a.wg.Wait()
	a.logger.WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("All background jobs completed")

	return a.shutdown()
}

// Handler returns the HTTP handler, for tests and embedding.
func (a *Application) Handler() http.Handler {
	return a.router
}

// startBackgroundJobs starts all background goroutines tracked by WaitGroup.
func (a *Application) startBackgroundJobs(ctx context.Context) {
	if a.db == nil || a.cfg.RunRetention <= 0 {
		return
	}
	a.wg.Go(func() {
		a.retentionCleanup(ctx)
	})
}

// startHTTPServer starts the HTTP server in a goroutine. A failure to serve
// is delivered on the returned channel.
func (a *Application) startHTTPServer() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return errCh
}

// waitForShutdownSignal returns a channel that receives SIGINT/SIGTERM.
func (a *Application) waitForShutdownSignal() <-chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return quit
}

// shutdown stops the HTTP server and releases resources.
// It must run after background jobs have stopped.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
	}

	a.logger.Info("Waiting for archive uploads to complete...")
	if err := a.importer.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Archive uploads did not finish before shutdown timeout")
	}

	a.logger.Info("Closing resources...")
	if a.limiter != nil {
		a.limiter.Stop()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
		}
	}

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Warn("Logger shutdown timed out")
	}
	return nil
}

// retentionCleanup deletes expired runs on startup and then every
// RetentionCleanupInterval, exiting on context cancellation.
func (a *Application) retentionCleanup(ctx context.Context) {
	a.logger.Debug("Retention cleanup job started")
	defer a.logger.Debug("Retention cleanup job stopped")

	a.runRetentionCleanup(ctx, time.Now())

	ticker := time.NewTicker(config.RetentionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.logger.Debug("Retention cleanup received shutdown signal")
			return
		case now := <-ticker.C:
			a.runRetentionCleanup(ctx, now)
		}
	}
}

// runRetentionCleanup removes runs created before now minus the retention.
func (a *Application) runRetentionCleanup(ctx context.Context, now time.Time) int64 {
	ctx, cancel := context.WithTimeout(ctx, config.RetentionCleanupTimeout)
	defer cancel()

	start := time.Now()
	cutoff := now.Add(-a.cfg.RunRetention)
	deleted, err := a.db.DeleteRunsBefore(ctx, cutoff)
	if err != nil {
		a.logger.WithError(err).Error("Failed to delete expired runs")
		return 0
	}
	a.logger.WithField("deleted", deleted).
		WithField("cutoff", cutoff.Format(time.RFC3339)).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Retention cleanup completed")
	return deleted
}
