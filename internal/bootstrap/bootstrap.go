// Package bootstrap assembles the repositories, services and background
// machinery shared by the server and the task runner.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	appdir "github.com/mozillians/backend/internal/application/directory"
	appevent "github.com/mozillians/backend/internal/application/event"
	"github.com/mozillians/backend/internal/application/indexing"
	"github.com/mozillians/backend/internal/application/maintenance"
	"github.com/mozillians/backend/internal/application/newsletter"
	"github.com/mozillians/backend/internal/application/photo"
	"github.com/mozillians/backend/internal/domain/directory"
	"github.com/mozillians/backend/internal/infrastructure/auth"
	"github.com/mozillians/backend/internal/infrastructure/basket"
	"github.com/mozillians/backend/internal/infrastructure/cache"
	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/mozillians/backend/internal/infrastructure/event"
	"github.com/mozillians/backend/internal/infrastructure/logger"
	"github.com/mozillians/backend/internal/infrastructure/mail"
	"github.com/mozillians/backend/internal/infrastructure/markdown"
	"github.com/mozillians/backend/internal/infrastructure/metrics"
	"github.com/mozillians/backend/internal/infrastructure/persistence"
	"github.com/mozillians/backend/internal/infrastructure/scheduler"
	"github.com/mozillians/backend/internal/infrastructure/search"
	"github.com/mozillians/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

// App holds every long-lived component of a process
type App struct {
	Config *config.Config
	Logger *zap.Logger

	DB    *persistence.Database
	Redis *cache.Factory

	Profiles directory.ProfileRepository
	Groups   directory.GroupRepository
	Skills   directory.SkillRepository
	Apps     directory.APIAppRepository

	Bus       *event.InMemoryEventBus
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Registry
	Photos    storage.ObjectStore
	Tokens    *auth.JWTService

	URLs       appdir.URLBuilder
	ReadModel  *appdir.ReadModel
	Serializer *appdir.Serializer
	Writer     *appdir.ProfileWriter
	Indexing   *indexing.Service
	Newsletter *newsletter.Service
	Reaper     *maintenance.Reaper

	dedup cache.DedupStore
}

// New connects to the database, Redis and object storage and builds the
// services on top. Extra observers receive task outcomes next to the
// Prometheus registry.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, observers ...scheduler.Observer) (*App, error) {
	a := &App{Config: cfg, Logger: log, Metrics: metrics.NewRegistry()}

	if err := a.openDatabase(ctx); err != nil {
		return nil, err
	}

	a.Redis = cache.NewFactory(cfg.Redis, cache.WithLogger(log))
	if err := a.Redis.Connect(ctx); err != nil {
		a.closeDatabase()
		return nil, err
	}
	client := a.Redis.Client()

	a.Profiles = persistence.NewGormProfileRepository(a.DB.DB)
	a.Groups = persistence.NewGormGroupRepository(a.DB.DB)
	a.Skills = persistence.NewGormSkillRepository(a.DB.DB)
	a.Apps = persistence.NewGormAPIAppRepository(a.DB.DB)

	var revoked auth.RevocationList = auth.NewInMemoryRevocationList()
	var index search.Store = search.NewMemoryStore()
	if client != nil {
		a.Apps = cache.NewAPIAppCache(a.Apps, client, 0, log)
		revoked = auth.NewRedisRevocationList(client)
		index = search.NewRedisStore(client, cfg.Search.KeyPrefix)
	}
	a.Tokens = auth.NewJWTService(cfg.JWT, revoked)
	a.dedup = a.Redis.DedupStore()

	photos, err := newObjectStore(ctx, cfg, log)
	if err != nil {
		a.closeDatabase()
		_ = a.Redis.Close()
		return nil, err
	}
	a.Photos = photos

	a.Bus = event.NewInMemoryEventBus(log)
	a.URLs = appdir.NewURLBuilder(cfg.App.SiteURL)
	a.ReadModel = appdir.NewReadModel(a.Profiles, a.Groups, a.Skills, log)
	a.Serializer = appdir.NewSerializer(a.URLs,
		storage.NewPhotoURLResolver(photos, cfg.Storage.PresignExpiry, cfg.Storage.GravatarDefault),
		markdown.NewRenderer())
	a.Writer = appdir.NewProfileWriter(a.Profiles, a.Bus, log)
	a.Indexing = indexing.NewService(cfg.Search, index, a.Profiles, a.Groups, log)
	a.Reaper = maintenance.NewReaper(a.Profiles, a.Bus, log)

	var basketClient newsletter.Client
	if cfg.Basket.Enabled() {
		c, err := basket.NewClient(cfg.Basket)
		if err != nil {
			a.closeDatabase()
			_ = a.Redis.Close()
			return nil, fmt.Errorf("failed to create basket client: %w", err)
		}
		basketClient = c
	} else {
		log.Info("Newsletter sync disabled, basket is not fully configured")
	}
	a.Newsletter = newsletter.NewService(cfg.Basket, basketClient, a.Profiles, a.Groups, log)

	sched, err := scheduler.NewScheduler(scheduler.Config{
		MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
		QueueSize:         cfg.Scheduler.QueueSize,
		JobTimeout:        cfg.Scheduler.JobTimeout,
	}, logger.Named(log, "scheduler"), scheduler.WithObserver(append(scheduler.Observers{a.Metrics}, observers...)))
	if err != nil {
		a.closeDatabase()
		_ = a.Redis.Close()
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	a.Scheduler = sched
	a.registerExecutors()

	appevent.Register(a.Bus, a.Scheduler, cfg.Basket, a.dedup, log)
	return a, nil
}

func (a *App) openDatabase(ctx context.Context) error {
	var opts []logger.GormLoggerOption
	if a.Config.Telemetry.DBSlowQueryThresh > 0 {
		opts = append(opts, logger.WithSlowThreshold(a.Config.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(a.Config.Log.Level), opts...)

	dbOpts := []persistence.Option{persistence.WithGormLogger(gormLog)}
	if a.Config.Telemetry.Enabled && a.Config.Telemetry.DBTraceEnabled {
		dbOpts = append(dbOpts, persistence.WithTracing(a.Config.Database.DBName))
	}
	db, err := persistence.Open(ctx, &a.Config.Database, dbOpts...)
	if err != nil {
		return err
	}
	if err := a.Metrics.Register(db.StatsCollector(a.Config.Database.DBName)); err != nil {
		_ = db.Close()
		return err
	}
	a.DB = db
	a.Logger.Info("Database connected successfully")
	return nil
}

func (a *App) closeDatabase() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Error("Error closing database", zap.Error(err))
	}
}

func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (storage.ObjectStore, error) {
	if !cfg.Storage.Enabled {
		log.Info("Object storage disabled, photos are kept in memory")
		return storage.NewMemoryObjectStorage(strings.TrimRight(cfg.App.SiteURL, "/") + "/media"), nil
	}
	s3, err := storage.NewS3ObjectStorage(&cfg.Storage,
		storage.WithLogger(log),
		storage.WithPresignExpiry(cfg.Storage.PresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage: %w", err)
	}
	if err := s3.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare bucket %s: %w", s3.Bucket(), err)
	}
	return s3, nil
}

func (a *App) registerExecutors() {
	log := a.Logger
	notifier := newsletter.NewNotifier(mail.NewSender(a.Config.Mail, log), a.Config.Mail.From, a.Config.Basket.Managers, log)

	a.Scheduler.Register(newsletter.JobKindSync, newsletter.NewSyncExecutor(a.Newsletter, notifier, log))
	a.Scheduler.Register(newsletter.JobKindUnsubscribe, newsletter.NewUnsubscribeExecutor(a.Newsletter, notifier, log))
	a.Scheduler.Register(indexing.JobKindIndex, a.Indexing.IndexExecutor())
	a.Scheduler.Register(indexing.JobKindUnindex, a.Indexing.UnindexExecutor())
	a.Scheduler.Register(photo.JobKindThumbnails, photo.NewThumbnailer(a.Photos, log).Executor())
}

// Start runs the event bus and the task workers
func (a *App) Start(ctx context.Context) error {
	if err := a.Bus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Drain waits until every submitted task, retries included, has finished
func (a *App) Drain(ctx context.Context) error {
	return a.Scheduler.Wait(ctx)
}

// Close stops the background machinery and releases connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Scheduler.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("scheduler: %w", err))
	}
	if err := a.Bus.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("event bus: %w", err))
	}
	if err := a.dedup.Close(); err != nil {
		errs = append(errs, fmt.Errorf("dedup store: %w", err))
	}
	if err := a.Redis.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}
	return errors.Join(errs...)
}
