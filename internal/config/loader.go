package config

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/constants"
	"github.com/turtacn/riskengine/pkg/logger"
)

// Loader reads configuration from file and environment and can watch the file for changes.
type Loader struct {
	v   *viper.Viper
	log logger.Logger
	mu  sync.Mutex
}

// NewLoader creates a loader with every default registered.
func NewLoader(log logger.Logger) *Loader {
	v := viper.New()
	setDefaults(v)
	return &Loader{v: v, log: log}
}

// Load reads the configuration. An explicit file overrides the search paths.
func (l *Loader) Load(file string) (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := l.v
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/riskengine/")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Load from environment variables
	v.SetEnvPrefix("RISKENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return l.decode()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// WatchScoring calls onChange with the new scoring section whenever the config
// file is written. Invalid edits are logged and ignored.
func (l *Loader) WatchScoring(onChange func(ScoringConfig)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		ctx := context.Background()
		l.mu.Lock()
		cfg, err := l.decode()
		l.mu.Unlock()
		if err != nil {
			l.log.Error(ctx, "Ignoring invalid configuration change", err, logger.String("file", e.Name))
			return
		}
		l.log.Info(ctx, "Scoring configuration reloaded", logger.String("file", e.Name))
		onChange(cfg.Scoring)
	})
	l.v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.enable_pprof", false)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "riskengine")
	v.SetDefault("database.database", "riskengine")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.sqlite_path", "riskengine.db")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 60)
	v.SetDefault("database.max_conn_idle_time", 10)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addresses", []string{"localhost:6379"})
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.idempotency_ttl", "24h")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.alert_events_topic", constants.DefaultAlertEventsTopic)
	v.SetDefault("kafka.assessment_requests_topic", constants.DefaultAssessmentRequestsTopic)
	v.SetDefault("kafka.consumer_group", constants.AssessmentRequestsConsumerGroup)

	v.SetDefault("snapshot.source", "postgres")
	v.SetDefault("snapshot.cache_ttl", "30s")
	v.SetDefault("snapshot.cleanup_interval", "5m")

	weights := make(map[string]float64)
	for c, w := range service.DefaultWeights() {
		weights[string(c)] = w
	}
	priors := make(map[string]float64)
	for c, p := range service.DefaultConfidencePriors() {
		priors[string(c)] = p
	}
	policy := service.DefaultConcentrationPolicy()
	v.SetDefault("scoring.weights", map[string]interface{}{defaultWeightsKey: weights})
	v.SetDefault("scoring.confidence_priors", priors)
	v.SetDefault("scoring.concentration.threshold", policy.Threshold)
	v.SetDefault("scoring.concentration.multiplier", policy.Multiplier)

	v.SetDefault("assessment.entity_timeout", constants.DefaultEntityAssessmentTimeout)
	v.SetDefault("assessment.portfolio_concurrency", constants.DefaultPortfolioConcurrency)
	v.SetDefault("assessment.next_assessment_interval", constants.DefaultNextAssessmentInterval)

	v.SetDefault("alerts.sweep_enabled", true)
	v.SetDefault("alerts.sweep_interval", constants.DefaultSweepInterval)
	v.SetDefault("alerts.reminder_interval", constants.DefaultReminderInterval)
	v.SetDefault("alerts.sweep_lock_ttl", constants.DefaultSweepLockTTL)

	v.SetDefault("notification.max_attempts", constants.DefaultNotificationMaxAttempts)
	v.SetDefault("notification.initial_backoff", constants.DefaultNotificationInitialBackoff)
	v.SetDefault("notification.max_backoff", constants.DefaultNotificationMaxBackoff)
	v.SetDefault("notification.email.enabled", false)
	v.SetDefault("notification.email.timeout", "5s")
	v.SetDefault("notification.sms.enabled", false)
	v.SetDefault("notification.sms.timeout", "5s")
	v.SetDefault("notification.in_app.enabled", true)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.default_rps", 20)
	v.SetDefault("rate_limit.burst_size", 40)
	v.SetDefault("rate_limit.portfolio_rpm", 6)

	v.SetDefault("log.level", string(constants.LogLevelInfo))
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_path", "stdout")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("tracing.service_name", constants.ServiceName)
	v.SetDefault("tracing.sample_rate", 1.0)
}
