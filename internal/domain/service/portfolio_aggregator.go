package service

import (
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/utils"
)

// ConcentrationPolicy is the tunable concentration-risk heuristic. When the
// share of high and critical entities exceeds Threshold the overall score is
// raised by share*Multiplier.
type ConcentrationPolicy struct {
	Threshold  float64 `mapstructure:"threshold"`
	Multiplier float64 `mapstructure:"multiplier"`
}

// DefaultConcentrationPolicy returns the stock policy.
func DefaultConcentrationPolicy() ConcentrationPolicy {
	return ConcentrationPolicy{Threshold: 0.2, Multiplier: 2}
}

// Portfolio roll-up constants.
const (
	portfolioConfidence           = 0.8
	portfolioDataQuality          = 0.9
	concentrationImpact           = 4.0
	concentrationFactorConfidence = 0.9
	concentrationFactorAttribute  = "high_risk_concentration"
)

// PortfolioResult is a portfolio roll-up of entity-level assessments.
type PortfolioResult struct {
	OverallScore            float64
	RiskLevel               models.RiskLevel
	Confidence              float64
	DataQuality             float64
	HighRiskFraction        float64
	ConcentrationAdjustment float64
	CriticalCount           int
	HighCount               int
	Total                   int
	Factors                 map[models.Category]models.RiskFactor
	Strategies              []models.MitigationStrategy
}

// PortfolioAggregator rolls entity summaries up into one portfolio score.
type PortfolioAggregator struct {
	policy ConcentrationPolicy
	weight float64
}

// NewPortfolioAggregator creates an aggregator with the given policy and the
// concentration weight taken from weights.
func NewPortfolioAggregator(policy ConcentrationPolicy, weights WeightTable) *PortfolioAggregator {
	w, _ := weights.Weight(models.CategoryConcentration)
	return &PortfolioAggregator{policy: policy, weight: w}
}

// Aggregate computes the portfolio score. An empty input yields a zero, minimal result.
func (a *PortfolioAggregator) Aggregate(summaries []models.EntityRiskSummary) PortfolioResult {
	if len(summaries) == 0 {
		return PortfolioResult{
			RiskLevel:  models.RiskLevelMinimal,
			Factors:    map[models.Category]models.RiskFactor{},
			Strategies: []models.MitigationStrategy{},
		}
	}

	var sum float64
	result := PortfolioResult{Total: len(summaries)}
	for _, s := range summaries {
		sum += s.RiskScore
		switch s.RiskLevel {
		case models.RiskLevelCritical:
			result.CriticalCount++
		case models.RiskLevelHigh:
			result.HighCount++
		}
	}

	mean := sum / float64(len(summaries))
	result.HighRiskFraction = float64(result.CriticalCount+result.HighCount) / float64(len(summaries))
	if result.HighRiskFraction > a.policy.Threshold {
		result.ConcentrationAdjustment = result.HighRiskFraction * a.policy.Multiplier
	}

	result.OverallScore = utils.Clamp(mean+result.ConcentrationAdjustment, 0, MaxScore)
	result.RiskLevel = LevelOf(result.OverallScore)
	result.Confidence = portfolioConfidence
	result.DataQuality = portfolioDataQuality
	result.Factors = map[models.Category]models.RiskFactor{
		models.CategoryConcentration: {
			Category:               models.CategoryConcentration,
			Score:                  utils.Clamp(result.ConcentrationAdjustment, 0, MaxScore),
			Weight:                 a.weight,
			Impact:                 concentrationImpact,
			Probability:            result.HighRiskFraction,
			Confidence:             concentrationFactorConfidence,
			Trend:                  models.TrendStable,
			ContributingAttributes: []string{concentrationFactorAttribute},
		},
	}
	result.Strategies = PortfolioStrategies(result.CriticalCount, result.HighCount, result.Total)
	return result
}
