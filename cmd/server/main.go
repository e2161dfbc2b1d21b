package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/riskengine/internal/app"
	"github.com/turtacn/riskengine/internal/application/service"
	"github.com/turtacn/riskengine/internal/config"
	"github.com/turtacn/riskengine/internal/infrastructure/messaging"
	"github.com/turtacn/riskengine/internal/infrastructure/monitoring"
	httpapi "github.com/turtacn/riskengine/internal/interfaces/http"
	"github.com/turtacn/riskengine/internal/interfaces/http/handlers"
	"github.com/turtacn/riskengine/pkg/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", "", "path to the configuration file")
	flag.Parse()

	os.Exit(run(*configFile, prometheus.DefaultRegisterer))
}

// run blocks until the engine stops and returns the process exit code.
// Resources are released before it returns, on success and on failure.
func run(configFile string, reg prometheus.Registerer) int {
	// Logger for startup
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info"})
	if err != nil {
		log.Printf("Failed to create startup logger: %v", err)
		return 1
	}

	// Load config
	loader := config.NewLoader(startupLogger)
	cfg, err := loader.Load(configFile)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	// Initialize logger
	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, appLogger, reg)
	if err != nil {
		appLogger.Error(ctx, "Failed to initialize risk engine", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			appLogger.Error(closeCtx, "Failed to release resources", err)
		}
	}()

	// Scoring weights and priors follow the config file without a restart.
	loader.WatchScoring(func(sc config.ScoringConfig) {
		if err := container.Scoring.Update(sc); err != nil {
			appLogger.Error(context.Background(), "Rejected scoring configuration", err)
		}
	})

	checks := make(map[string]handlers.HealthCheck)
	for name, check := range container.HealthChecks() {
		checks[name] = check
	}
	router := httpapi.NewRouter(cfg, appLogger, httpapi.Dependencies{
		Metrics: container.Metrics,
		Tracer:  container.Tracing.Tracer(),
		Redis:   container.Redis,
		Health:  handlers.NewHealthHandler(checks, appLogger),
		Risk:    handlers.NewRiskHandler(container.Assessments, appLogger),
		Alert:   handlers.NewAlertHandler(container.Alerts, appLogger),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(router.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return router.Stop(shutdownCtx)
	})

	if cfg.Alerts.SweepEnabled {
		sweeper := service.NewAlertSweeper(container.Alerts, cfg.Alerts.SweepInterval, appLogger)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	if cfg.Kafka.Enabled {
		consumer := messaging.NewAssessmentRequestConsumer(cfg.Kafka, container.Assessments, appLogger)
		g.Go(func() error {
			defer consumer.Close()
			return consumer.Run(gctx)
		})
	}

	appLogger.Info(ctx, "Risk engine started",
		logger.String("address", cfg.Server.Addr()),
		logger.Bool("sweep_enabled", cfg.Alerts.SweepEnabled),
		logger.Bool("kafka_enabled", cfg.Kafka.Enabled),
	)

	if err := g.Wait(); err != nil {
		appLogger.Error(context.Background(), "Risk engine stopped with error", err)
		return 1
	}
	appLogger.Info(context.Background(), "Risk engine stopped")
	return 0
}
