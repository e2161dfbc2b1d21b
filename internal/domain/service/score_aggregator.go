package service

import (
	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/utils"
)

// AggregateResult is the derived part of a risk assessment.
type AggregateResult struct {
	OverallScore float64
	RiskLevel    models.RiskLevel
	Confidence   float64
	DataQuality  float64
	// NeedsReview is set when no factor produced a nonzero score.
	NeedsReview bool
}

// ScoreAggregator combines risk factors into an overall score using an injected weight table.
type ScoreAggregator struct {
	weights WeightTable
}

// NewScoreAggregator creates an aggregator bound to weights.
func NewScoreAggregator(weights WeightTable) *ScoreAggregator {
	return &ScoreAggregator{weights: weights}
}

// Aggregate computes the weighted mean of factor scores over the weights present,
// capped at MaxScore. It never assumes the weights sum to one.
func (a *ScoreAggregator) Aggregate(factors map[models.Category]models.RiskFactor) AggregateResult {
	if len(factors) == 0 {
		return AggregateResult{RiskLevel: models.RiskLevelMinimal, NeedsReview: true}
	}

	var weightedSum, weightSum, confidenceSum float64
	scored := 0
	for category, f := range factors {
		if w, ok := a.weights.Weight(category); ok {
			weightedSum += f.Score * w
			weightSum += w
		}
		confidenceSum += f.Confidence
		if f.Score > 0 {
			scored++
		}
	}

	var overall float64
	if weightSum > 0 {
		overall = utils.Clamp(weightedSum/weightSum, 0, MaxScore)
	}

	result := AggregateResult{
		OverallScore: overall,
		RiskLevel:    LevelOf(overall),
		Confidence:   confidenceSum / float64(len(factors)),
		DataQuality:  float64(scored) / float64(len(factors)),
	}
	if scored == 0 {
		result.OverallScore = 0
		result.RiskLevel = models.RiskLevelMinimal
		result.DataQuality = 0
		result.NeedsReview = true
	}
	return result
}
