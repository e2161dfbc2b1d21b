package config

import (
	"fmt"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/internal/domain/service"
)

// defaultWeightsKey selects the fallback weight table.
const defaultWeightsKey = "default"

// Validate checks that every weight table and prior is well formed.
func (s ScoringConfig) Validate() error {
	_, err := s.WeightSet()
	if err != nil {
		return err
	}
	for k, v := range s.ConfidencePriors {
		if !models.Category(k).Valid() {
			return fmt.Errorf("scoring.confidence_priors: unknown category %q", k)
		}
		if v < 0 || v > 1 {
			return fmt.Errorf("scoring.confidence_priors.%s must be within [0,1]", k)
		}
	}
	if s.Concentration.Threshold < 0 || s.Concentration.Threshold > 1 {
		return fmt.Errorf("scoring.concentration.threshold must be within [0,1]")
	}
	if s.Concentration.Multiplier < 0 {
		return fmt.Errorf("scoring.concentration.multiplier must not be negative")
	}
	return nil
}

// WeightSet builds the immutable per-assessment-type weight tables.
func (s ScoringConfig) WeightSet() (service.WeightSet, error) {
	fallback := service.DefaultWeightTable()
	byType := make(map[models.AssessmentType]service.WeightTable)

	for key, raw := range s.Weights {
		weights := make(map[models.Category]float64, len(raw))
		for c, w := range raw {
			weights[models.Category(c)] = w
		}
		table, err := service.NewWeightTable(weights)
		if err != nil {
			return service.WeightSet{}, fmt.Errorf("scoring.weights.%s: %w", key, err)
		}
		if key == defaultWeightsKey {
			fallback = table
			continue
		}
		at := models.AssessmentType(key)
		if !at.Valid() {
			return service.WeightSet{}, fmt.Errorf("scoring.weights: unknown assessment type %q", key)
		}
		byType[at] = table
	}
	return service.NewWeightSet(fallback, byType), nil
}

// Priors returns the configured confidence priors keyed by category.
func (s ScoringConfig) Priors() map[models.Category]float64 {
	priors := make(map[models.Category]float64, len(s.ConfidencePriors))
	for k, v := range s.ConfidencePriors {
		priors[models.Category(k)] = v
	}
	return priors
}

// Policy returns the concentration policy.
func (s ScoringConfig) Policy() service.ConcentrationPolicy {
	return service.ConcentrationPolicy{
		Threshold:  s.Concentration.Threshold,
		Multiplier: s.Concentration.Multiplier,
	}
}

// DefaultScoringConfig returns the stock weights, priors and concentration policy.
func DefaultScoringConfig() ScoringConfig {
	policy := service.DefaultConcentrationPolicy()
	return ScoringConfig{
		Concentration: ConcentrationConfig{
			Threshold:  policy.Threshold,
			Multiplier: policy.Multiplier,
		},
	}
}
