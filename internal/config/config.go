package config

import (
	"fmt"
	"time"
)

// Config holds the application's configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Kafka        KafkaConfig        `mapstructure:"kafka"`
	Snapshot     SnapshotConfig     `mapstructure:"snapshot"`
	Scoring      ScoringConfig      `mapstructure:"scoring"`
	Assessment   AssessmentConfig   `mapstructure:"assessment"`
	Alerts       AlertsConfig       `mapstructure:"alerts"`
	Notification NotificationConfig `mapstructure:"notification"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Log          LogConfig          `mapstructure:"log"`
	Tracing      TracingConfig      `mapstructure:"tracing"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnablePprof  bool          `mapstructure:"enable_pprof"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// Addr returns the listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite".
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxConns        int    `mapstructure:"max_conns"`
	MinConns        int    `mapstructure:"min_conns"`
	MaxConnLifetime int    `mapstructure:"max_conn_lifetime"`  // in minutes
	MaxConnIdleTime int    `mapstructure:"max_conn_idle_time"` // in minutes
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// GetURL returns the connection string in URL form, as pgx expects.
func (c *DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

type RedisConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	Addresses    []string `mapstructure:"addresses"`
	Password     string   `mapstructure:"password"`
	DB           int      `mapstructure:"db"`
	PoolSize     int      `mapstructure:"pool_size"`
	MinIdleConns int      `mapstructure:"min_idle_conns"`

	// IdempotencyTTL is how long an Idempotency-Key is remembered; zero disables the check.
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type KafkaConfig struct {
	Enabled                 bool     `mapstructure:"enabled"`
	Brokers                 []string `mapstructure:"brokers"`
	AlertEventsTopic        string   `mapstructure:"alert_events_topic"`
	AssessmentRequestsTopic string   `mapstructure:"assessment_requests_topic"`
	ConsumerGroup           string   `mapstructure:"consumer_group"`
}

// SnapshotConfig controls where entity attributes come from.
type SnapshotConfig struct {
	// Source is "postgres" or "static".
	Source          string        `mapstructure:"source"`
	StaticFile      string        `mapstructure:"static_file"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ScoringConfig is the hot-reloadable part of the configuration.
type ScoringConfig struct {
	// Weights maps an assessment type (or "default") to category weights.
	Weights          map[string]map[string]float64 `mapstructure:"weights"`
	ConfidencePriors map[string]float64            `mapstructure:"confidence_priors"`
	Concentration    ConcentrationConfig           `mapstructure:"concentration"`
}

type ConcentrationConfig struct {
	Threshold  float64 `mapstructure:"threshold"`
	Multiplier float64 `mapstructure:"multiplier"`
}

type AssessmentConfig struct {
	EntityTimeout          time.Duration `mapstructure:"entity_timeout"`
	PortfolioConcurrency   int           `mapstructure:"portfolio_concurrency"`
	NextAssessmentInterval time.Duration `mapstructure:"next_assessment_interval"`
}

type AlertsConfig struct {
	SweepEnabled       bool          `mapstructure:"sweep_enabled"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval"`
	ReminderInterval   time.Duration `mapstructure:"reminder_interval"`
	SweepLockTTL       time.Duration `mapstructure:"sweep_lock_ttl"`
	Recipients         []string      `mapstructure:"recipients"`
	EscalationContacts []string      `mapstructure:"escalation_contacts"`
}

type NotificationConfig struct {
	MaxAttempts    int                  `mapstructure:"max_attempts"`
	InitialBackoff time.Duration        `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration        `mapstructure:"max_backoff"`
	Email          WebhookChannelConfig `mapstructure:"email"`
	SMS            WebhookChannelConfig `mapstructure:"sms"`
	InApp          InAppChannelConfig   `mapstructure:"in_app"`
}

// WebhookChannelConfig points a channel at an HTTP delivery gateway.
type WebhookChannelConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type InAppChannelConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RateLimitConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DefaultRPS   float64 `mapstructure:"default_rps"`
	BurstSize    int     `mapstructure:"burst_size"`
	PortfolioRPM int     `mapstructure:"portfolio_rpm"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	JaegerEndpoint string  `mapstructure:"jaeger_endpoint"`
	ServiceName    string  `mapstructure:"service_name"`
	SampleRate     float64 `mapstructure:"sample_rate"`
}

// Validate checks for essential configuration values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Snapshot.Source {
	case "postgres", "static":
	default:
		return fmt.Errorf("snapshot.source must be postgres or static, got %q", c.Snapshot.Source)
	}
	if c.Assessment.PortfolioConcurrency <= 0 {
		return fmt.Errorf("assessment.portfolio_concurrency must be positive")
	}
	if c.Assessment.EntityTimeout <= 0 {
		return fmt.Errorf("assessment.entity_timeout must be positive")
	}
	if c.Alerts.SweepInterval <= 0 {
		return fmt.Errorf("alerts.sweep_interval must be positive")
	}
	if c.Notification.MaxAttempts <= 0 {
		return fmt.Errorf("notification.max_attempts must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Redis.Enabled && len(c.Redis.Addresses) == 0 {
		return fmt.Errorf("redis.addresses is required when redis is enabled")
	}
	return c.Scoring.Validate()
}
