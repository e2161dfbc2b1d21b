// Package app assembles the risk engine from configuration. The server and the
// riskctl CLI share it so both drive the same services.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/turtacn/riskengine/internal/application/service"
	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/domain/models"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/internal/infrastructure/messaging"
	"github.com/turtacn/riskengine/internal/infrastructure/monitoring"
	"github.com/turtacn/riskengine/internal/infrastructure/notification"
	"github.com/turtacn/riskengine/internal/infrastructure/persistence/postgres"
	redisstore "github.com/turtacn/riskengine/internal/infrastructure/persistence/redis"
	"github.com/turtacn/riskengine/internal/infrastructure/snapshot"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/logger"
)

// Container holds the wired components and the resources they own.
type Container struct {
	Config  *config.Config
	Logger  logger.Logger
	Metrics *monitoring.Metrics
	Tracing *monitoring.TracingManager

	DB        *gorm.DB
	Pool      *pgxpool.Pool
	Redis     redis.UniversalClient
	Inbox     *redisstore.Inbox
	Snapshots domainService.SnapshotProvider
	Scoring   *service.ScoringRegistry

	Assessments service.AssessmentAppService
	Alerts      service.AlertLifecycleService

	closers []func(context.Context) error
}

// New builds every component described by cfg. Metrics are registered on reg.
// On error, whatever was opened is closed again.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (c *Container, err error) {
	c = &Container{Config: cfg, Logger: log}
	defer func() {
		if err != nil {
			_ = c.Close(context.WithoutCancel(ctx))
			c = nil
		}
	}()

	c.Metrics = monitoring.NewMetricsWithRegistry(reg)
	if c.Tracing, err = monitoring.NewTracingManager(cfg.Tracing, log); err != nil {
		return c, err
	}
	c.onClose(c.Tracing.Shutdown)

	if c.DB, err = postgres.OpenDatabase(ctx, &cfg.Database, log); err != nil {
		return c, err
	}
	c.onClose(func(context.Context) error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	if cfg.Redis.Enabled {
		if c.Redis, err = redisstore.NewClient(ctx, &cfg.Redis, log); err != nil {
			return c, err
		}
		c.onClose(func(context.Context) error { return c.Redis.Close() })
		c.Inbox = redisstore.NewInbox(c.Redis, constants.InAppInboxMaxLen)
	}

	if c.Snapshots, err = c.buildSnapshots(ctx); err != nil {
		return c, err
	}

	if c.Scoring, err = service.NewScoringRegistry(cfg.Scoring, time.Now, log); err != nil {
		return c, err
	}

	metrics := monitoring.NewMetricsAdapter(c.Metrics)
	dispatcher := service.NewNotificationDispatcher(
		c.buildProviders(),
		service.RetryPolicyFromConfig(cfg.Notification),
		metrics, log,
	)

	var publisher domainService.AlertEventPublisher
	if cfg.Kafka.Enabled {
		kp := messaging.NewKafkaAlertPublisher(cfg.Kafka, log)
		c.onClose(func(context.Context) error { return kp.Close() })
		publisher = kp
	}

	var sweepLock domainService.SweepLock
	if c.Redis != nil {
		sweepLock = redisstore.NewSweepLock(c.Redis, constants.SweepLockKey, cfg.Alerts.SweepLockTTL, log)
	}

	alertRepo := postgres.NewAlertRepository(c.DB, log)
	orchestrator := service.NewAlertOrchestrator(
		domainService.NewAlertGenerator(),
		alertRepo, dispatcher, publisher,
		cfg.Alerts.Recipients, metrics, log,
	)
	c.Assessments = service.NewAssessmentAppService(
		c.Snapshots,
		postgres.NewAssessmentRepository(c.DB, log),
		c.Scoring,
		orchestrator,
		service.AssessmentSettingsFromConfig(cfg.Assessment),
		metrics, log,
	)
	c.Alerts = service.NewAlertLifecycleService(
		alertRepo, dispatcher, publisher, sweepLock,
		service.AlertSettingsFromConfig(cfg.Alerts),
		metrics, log,
	)
	return c, nil
}

func (c *Container) buildSnapshots(ctx context.Context) (domainService.SnapshotProvider, error) {
	cfg := c.Config
	var provider domainService.SnapshotProvider
	switch cfg.Snapshot.Source {
	case "postgres":
		if cfg.Database.Driver != "postgres" {
			return nil, fmt.Errorf("snapshot source postgres requires database.driver postgres, got %q", cfg.Database.Driver)
		}
		pool, err := postgres.NewPool(ctx, &cfg.Database, c.Logger)
		if err != nil {
			return nil, err
		}
		c.Pool = pool
		c.onClose(func(context.Context) error {
			pool.Close()
			return nil
		})
		provider = snapshot.NewPostgresSnapshotProvider(pool, c.Logger)
	default:
		if cfg.Snapshot.StaticFile == "" {
			provider = snapshot.NewStaticProvider()
			break
		}
		static, err := snapshot.LoadStaticProvider(cfg.Snapshot.StaticFile)
		if err != nil {
			return nil, err
		}
		provider = static
	}

	if cfg.Snapshot.CacheTTL > 0 {
		cleanup := cfg.Snapshot.CleanupInterval
		if cleanup <= 0 {
			cleanup = 2 * cfg.Snapshot.CacheTTL
		}
		provider = snapshot.NewCachedProvider(provider, cfg.Snapshot.CacheTTL, cleanup, c.Logger)
	}
	return provider, nil
}

// buildProviders maps each enabled channel to a delivery provider. A webhook
// channel without a URL is logged instead of sent.
func (c *Container) buildProviders() []domainService.NotificationProvider {
	cfg := c.Config.Notification
	var providers []domainService.NotificationProvider

	webhook := func(channel models.Channel, wc config.WebhookChannelConfig) {
		switch {
		case !wc.Enabled:
		case wc.URL == "":
			providers = append(providers, notification.NewLogProvider(channel, c.Logger))
		default:
			providers = append(providers, notification.NewWebhookProvider(channel, wc.URL, wc.Timeout, c.Logger))
		}
	}
	webhook(models.ChannelEmail, cfg.Email)
	webhook(models.ChannelSMS, cfg.SMS)

	if cfg.InApp.Enabled {
		if c.Inbox != nil {
			providers = append(providers, notification.NewInAppProvider(c.Inbox))
		} else {
			providers = append(providers, notification.NewLogProvider(models.ChannelInApp, c.Logger))
		}
	}
	return providers
}

func (c *Container) onClose(fn func(context.Context) error) {
	c.closers = append(c.closers, fn)
}

// HealthChecks returns one readiness probe per external dependency.
func (c *Container) HealthChecks() map[string]func(context.Context) error {
	checks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := c.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if c.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return c.Redis.Ping(ctx).Err() }
	}
	if c.Pool != nil {
		checks["snapshot_pool"] = c.Pool.Ping
	}
	return checks
}

// Close releases resources in reverse order of acquisition.
func (c *Container) Close(ctx context.Context) error {
	var err error
	for i := len(c.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, c.closers[i](ctx))
	}
	c.closers = nil
	return err
}
