// Package service provides application-level services that orchestrate domain services and repositories
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/turtacn/riskengine/internal/config"
	domainService "github.com/turtacn/riskengine/internal/domain/service"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
)

// ScoringState is one immutable generation of the scoring configuration.
type ScoringState struct {
	Weights    domainService.WeightSet
	Calculator *domainService.FactorCalculator
	Policy     domainService.ConcentrationPolicy
}

// ScoringRegistry holds the current scoring state. Reloads swap the whole
// state atomically; a running assessment keeps the state it started with.
type ScoringRegistry struct {
	current atomic.Pointer[ScoringState]
	clock   func() time.Time
	logger  logger.Logger
}

// NewScoringRegistry builds the initial state from cfg.
func NewScoringRegistry(cfg config.ScoringConfig, clock func() time.Time, log logger.Logger) (*ScoringRegistry, error) {
	if clock == nil {
		clock = time.Now
	}
	r := &ScoringRegistry{clock: clock, logger: log.WithComponent("scoring_registry")}
	if err := r.Update(cfg); err != nil {
		return nil, err
	}
	return r, nil
}

// Update validates cfg and replaces the current state. An invalid cfg leaves
// the current state in place.
func (r *ScoringRegistry) Update(cfg config.ScoringConfig) error {
	if err := cfg.Validate(); err != nil {
		return errors.ErrValidation("invalid scoring configuration").WithCause(err)
	}
	weights, err := cfg.WeightSet()
	if err != nil {
		return errors.ErrValidation("invalid scoring weights").WithCause(err)
	}

	state := &ScoringState{
		Weights: weights,
		Calculator: domainService.NewFactorCalculator(
			domainService.WithClock(r.clock),
			domainService.WithConfidencePriors(cfg.Priors()),
			domainService.WithCalculatorLogger(r.logger),
		),
		Policy: cfg.Policy(),
	}
	r.current.Store(state)
	r.logger.Info(context.Background(), "Scoring configuration applied",
		logger.Int("weight_tables", len(cfg.Weights)),
		logger.Float64("concentration_threshold", state.Policy.Threshold),
		logger.Float64("concentration_multiplier", state.Policy.Multiplier),
	)
	return nil
}

// Current returns the active scoring state.
func (r *ScoringRegistry) Current() *ScoringState {
	return r.current.Load()
}
