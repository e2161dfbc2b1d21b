package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/logger"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 10*time.Second, cfg.Assessment.EntityTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Assessment.NextAssessmentInterval)
	assert.Equal(t, time.Minute, cfg.Alerts.SweepInterval)
	assert.Equal(t, 3, cfg.Notification.MaxAttempts)

	set, err := cfg.Scoring.WeightSet()
	require.NoError(t, err)
	w, ok := set.For(models.AssessmentTypeComprehensive).Weight(models.CategoryMaintenance)
	assert.True(t, ok)
	assert.Equal(t, 0.25, w)

	policy := cfg.Scoring.Policy()
	assert.Equal(t, 0.2, policy.Threshold)
	assert.Equal(t, 2.0, policy.Multiplier)
}

func TestLoad_PerAssessmentTypeWeights(t *testing.T) {
	cfg, err := NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, `
scoring:
  weights:
    market:
      market: 0.6
      financial: 0.4
  confidence_priors:
    payment: 0.5
`))
	require.NoError(t, err)

	set, err := cfg.Scoring.WeightSet()
	require.NoError(t, err)
	market := set.For(models.AssessmentTypeMarket)
	assert.Equal(t, 2, market.Len())
	w, _ := market.Weight(models.CategoryMarket)
	assert.Equal(t, 0.6, w)

	// other assessment types keep the default table
	assert.Equal(t, 10, set.For(models.AssessmentTypeChurn).Len())
	assert.Equal(t, 0.5, cfg.Scoring.Priors()[models.CategoryPayment])
}

func TestLoad_RejectsInvalidScoring(t *testing.T) {
	_, err := NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, `
scoring:
  weights:
    market:
      markett: 0.6
`))
	assert.Error(t, err)

	_, err = NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, `
scoring:
  weights:
    quick:
      market: 0.6
`))
	assert.Error(t, err)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	t.Setenv("RISKENGINE_ASSESSMENT_PORTFOLIO_CONCURRENCY", "3")
	t.Setenv("RISKENGINE_DATABASE_DRIVER", "sqlite")

	cfg, err := NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Assessment.PortfolioConcurrency)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg, err := NewLoader(logger.NewNoopLogger()).Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	bad := *cfg
	bad.Kafka.Enabled = true
	bad.Kafka.Brokers = nil
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Database.Driver = "mysql"
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Scoring.Concentration.Threshold = 1.5
	assert.Error(t, bad.Validate())
}
