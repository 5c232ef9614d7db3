package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mozillians/backend/internal/bootstrap"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/logger"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/telemetry"
	"github.com/mozillians/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

//go:generate swag init -g main.go -d ./,../../internal/interfaces/http -o ../../docs --parseInternal

//	@title			Mozillians Directory API
//	@version		2.0
//	@description	Privacy scoped read API over the community directory: profiles, groups, skills and languages.

//	@contact.name	Mozillians
//	@contact.url	https://github.com/mozillians/backend

//	@license.name	BSD 3-Clause
//	@license.url	https://opensource.org/licenses/BSD-3-Clause

//	@BasePath	/

//	@securityDefinitions.apikey	ApiKeyHeader
//	@in							header
//	@name						X-API-KEY
//	@description				Application API key

//	@securityDefinitions.apikey	ApiKeyQuery
//	@in							query
//	@name						api-key
//	@description				Application API key

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Signed access token. Format: "Bearer {token}"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	loader, err := config.NewLoader()
	if err != nil {
		return err
	}
	cfg, err := loader.Config()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, level, err := logger.NewWithLevel(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	logs, err := telemetry.NewLoggerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	log = telemetry.Bridge(log, logs, cfg.Telemetry.ServiceName, zapcore.InfoLevel)

	log.Info("Starting Mozillians directory API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(cfg.Profiling, log)
	if err != nil {
		return err
	}
	traces, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	if profiler.Enabled() && cfg.Profiling.SpanProfiles {
		traces.EnableSpanProfiles()
	}
	meters, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	taskMetrics, err := telemetry.NewTaskMetrics(meters.Meter("mozillians"))
	if err != nil {
		return fmt.Errorf("failed to create task metrics: %w", err)
	}

	loader.Watch(func(next *config.Config, err error) {
		if err != nil {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
			return
		}
		level.SetLevel(logger.ParseLevel(next.Log.Level))
		log.Info("Configuration reloaded", zap.String("log_level", next.Log.Level))
	})

	app, err := bootstrap.New(ctx, cfg, log, taskMetrics)
	if err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}

	var reaper *scheduler.DailyTrigger
	if cfg.Reaper.Enabled {
		reaper = scheduler.NewDailyTrigger("remove_incomplete_accounts", scheduler.DailyTriggerConfig{
			Hour:          cfg.Reaper.Hour,
			Minute:        cfg.Reaper.Minute,
			CheckInterval: time.Minute,
		}, app.Reaper.Fire(cfg.Reaper.MaxDays), logger.Named(log, "reaper"))
		if err := reaper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start reaper: %w", err)
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, cfg.HTTP.RateLimitBurst)
	}
	engine, err := newEngine(cfg, app, limiter, version)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	})
	if limiter != nil {
		g.Go(func() error { return limiter.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	serveErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if reaper != nil {
		if err := reaper.Stop(shutdownCtx); err != nil {
			log.Warn("Reaper stop failed", zap.Error(err))
		}
	}
	if err := app.Close(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer":   traces.Shutdown,
		"meter":    meters.Shutdown,
		"logger":   logs.Shutdown,
		"profiler": profiler.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		return serveErr
	}
	log.Info("Server exited gracefully")
	return nil
}
