// Package postgres provides the relational storage of assessments and alerts.
// It runs on PostgreSQL in production and on SQLite for local runs and tests.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// OpenDatabase opens the gorm handle selected by cfg.Driver and applies pool settings.
func OpenDatabase(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	case "postgres", "":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, errors.ErrValidation(fmt.Sprintf("unsupported database driver %q", cfg.Driver))
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error(ctx, "Failed to open database", err, logger.String("driver", cfg.Driver))
		return nil, errors.ErrUnavailable("database connection failed").WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.ErrInternal("failed to access sql.DB").WithCause(err)
	}
	if cfg.MaxConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Minute)
	}
	if cfg.MaxConnIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		log.Error(ctx, "Database ping failed", err, logger.String("driver", cfg.Driver))
		return nil, errors.ErrUnavailable("database ping failed").WithCause(err)
	}

	if cfg.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "Database connection established",
		logger.String("driver", cfg.Driver),
		logger.Bool("auto_migrate", cfg.AutoMigrate),
	)
	return db, nil
}

// Migrate creates or updates the assessment and alert tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&AssessmentDBM{}, &AlertDBM{}); err != nil {
		return errors.ErrInternal("schema migration failed").WithCause(err)
	}
	return nil
}

// NewPool creates a pgx connection pool for read paths that need explicit
// transaction control.
func NewPool(ctx context.Context, cfg *config.DatabaseConfig, log logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetURL())
	if err != nil {
		return nil, errors.ErrValidation("invalid database url").WithCause(err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = int32(cfg.MinConns)
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxConnLifetime) * time.Minute
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = time.Duration(cfg.MaxConnIdleTime) * time.Minute
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		log.Error(ctx, "Failed to create pgx pool", err)
		return nil, errors.ErrUnavailable("database pool creation failed").WithCause(err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, errors.ErrUnavailable("database ping failed").WithCause(err)
	}

	log.Info(ctx, "pgx pool initialized",
		logger.Int("max_conns", int(poolConfig.MaxConns)),
		logger.Int("total_conns", int(pool.Stat().TotalConns())),
	)
	return pool, nil
}
