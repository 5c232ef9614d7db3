package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mozillians/backend/internal/infrastructure/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the PostgreSQL connection shared by the directory repositories.
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Option adjusts how Open connects.
type Option func(*openOptions)

type openOptions struct {
	log     gormlogger.Interface
	tracing string
}

// WithGormLogger routes GORM output through l instead of discarding it.
func WithGormLogger(l gormlogger.Interface) Option {
	return func(o *openOptions) { o.log = l }
}

// WithTracing turns every statement into an OpenTelemetry span tagged with
// dbName. Bound values stay out of the spans since they hold profile data.
func WithTracing(dbName string) Option {
	return func(o *openOptions) { o.tracing = dbName }
}

// Open connects to the database in cfg, sizes its pool and checks that it
// answers.
func Open(ctx context.Context, cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	o := openOptions{log: gormlogger.Default.LogMode(gormlogger.Silent)}
	for _, opt := range opts {
		opt(&o)
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:                 o.log,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db, err := wrap(gdb)
	if err != nil {
		return nil, err
	}

	db.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	db.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	db.sql.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	db.sql.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := db.sql.PingContext(ctx); err != nil {
		_ = db.sql.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if o.tracing != "" {
		if err := db.EnableTracing(o.tracing); err != nil {
			_ = db.sql.Close()
			return nil, err
		}
	}
	return db, nil
}

func wrap(gdb *gorm.DB) (*Database, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return &Database{DB: gdb, sql: sqlDB}, nil
}

// Ping reports whether the database answers. It backs the health endpoint.
func (d *Database) Ping() error {
	return d.sql.Ping()
}

func (d *Database) Close() error {
	return d.sql.Close()
}

// StatsCollector exports the connection pool statistics, labelled with
// dbName, for the metrics registry.
func (d *Database) StatsCollector(dbName string) prometheus.Collector {
	return collectors.NewDBStatsCollector(d.sql, dbName)
}

// EnableTracing registers the otelgorm plugin. A second call fails since the
// plugin is already installed.
func (d *Database) EnableTracing(dbName string) error {
	plugin := otelgorm.NewPlugin(otelgorm.WithDBName(dbName), otelgorm.WithoutQueryVariables())
	if err := d.DB.Use(plugin); err != nil {
		return fmt.Errorf("failed to register tracing plugin: %w", err)
	}
	return nil
}
