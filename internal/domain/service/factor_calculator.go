package service

import (
	"context"
	"fmt"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/errors"
	"github.com/turtacn/riskengine/pkg/logger"
	"github.com/turtacn/riskengine/pkg/utils"
)

// FactorCalculator turns an entity snapshot into per-category risk factors.
// It is stateless apart from its configuration and safe for concurrent use.
type FactorCalculator struct {
	rules  map[ruleKey]factorRule
	priors map[models.Category]float64
	clock  func() time.Time
	log    logger.Logger
}

// CalculatorOption configures a FactorCalculator.
type CalculatorOption func(*FactorCalculator)

// WithClock sets the clock used to derive ages.
func WithClock(clock func() time.Time) CalculatorOption {
	return func(c *FactorCalculator) { c.clock = clock }
}

// WithConfidencePriors overrides the per-category confidence priors.
func WithConfidencePriors(priors map[models.Category]float64) CalculatorOption {
	return func(c *FactorCalculator) {
		for k, v := range priors {
			c.priors[k] = v
		}
	}
}

// WithCalculatorLogger sets the logger used for degraded factors.
func WithCalculatorLogger(log logger.Logger) CalculatorOption {
	return func(c *FactorCalculator) { c.log = log }
}

// NewFactorCalculator creates a calculator with the stock rule set.
func NewFactorCalculator(opts ...CalculatorOption) *FactorCalculator {
	c := &FactorCalculator{
		rules:  defaultFactorRules(),
		priors: DefaultConfidencePriors(),
		clock:  time.Now,
		log:    logger.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate scores one category for a snapshot. On a rule failure it returns a
// zero-score factor together with a computation error; callers keep the factor.
func (c *FactorCalculator) Calculate(category models.Category, snapshot *models.EntitySnapshot) (factor models.RiskFactor, err error) {
	if snapshot == nil {
		return models.RiskFactor{}, errors.ErrValidation("snapshot is required")
	}
	rule, ok := c.rules[ruleKey{snapshot.EntityType, category}]
	if !ok {
		return models.RiskFactor{}, errors.ErrValidation(
			fmt.Sprintf("category %s does not apply to %s", category, snapshot.EntityType))
	}

	factor = models.RiskFactor{
		Category:               category,
		Impact:                 rule.Impact,
		Probability:            rule.Probability,
		Confidence:             c.prior(category, rule),
		Trend:                  models.TrendStable,
		ContributingAttributes: append([]string(nil), rule.Attributes...),
	}

	defer func() {
		if r := recover(); r != nil {
			factor.Score = 0
			factor.Trend = models.TrendStable
			err = errors.ErrComputation(string(category), fmt.Sprintf("factor rule panicked: %v", r))
		}
	}()

	in := ruleInput{Snapshot: snapshot, Now: c.clock()}
	factor.Score = utils.Clamp(rule.Score(in), 0, MaxScore)
	if rule.Trend != nil {
		factor.Trend = rule.Trend(in)
	}
	return factor, nil
}

// CalculateAll scores every category of the snapshot's entity type and stamps
// each factor with its weight from weights. Degraded factors are logged and kept.
func (c *FactorCalculator) CalculateAll(ctx context.Context, snapshot *models.EntitySnapshot, weights WeightTable) (map[models.Category]models.RiskFactor, error) {
	if snapshot == nil || !snapshot.EntityType.Valid() || snapshot.EntityType == models.EntityTypePortfolio {
		return nil, errors.ErrValidation("factor calculation requires a property or tenant snapshot")
	}

	categories := models.CategoriesFor(snapshot.EntityType)
	factors := make(map[models.Category]models.RiskFactor, len(categories))
	for _, category := range categories {
		factor, err := c.Calculate(category, snapshot)
		if err != nil {
			c.log.Warn(ctx, "Risk factor degraded to zero",
				logger.String("entity_type", string(snapshot.EntityType)),
				logger.String("entity_id", snapshot.EntityID),
				logger.String("category", string(category)),
				logger.Error(err),
			)
		}
		if w, ok := weights.Weight(category); ok {
			factor.Weight = w
		}
		factors[category] = factor
	}
	return factors, nil
}

func (c *FactorCalculator) prior(category models.Category, rule factorRule) float64 {
	if p, ok := c.priors[category]; ok {
		return utils.Clamp(p, 0, 1)
	}
	return rule.Prior
}
