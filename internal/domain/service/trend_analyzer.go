package service

import (
	"math"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
	"github.com/turtacn/riskengine/pkg/utils"
)

// TrendPoint is one historical overall score.
type TrendPoint struct {
	Score float64
	Date  time.Time
}

// AnalyzeTrend compares the mean of the most recent scores with the mean of
// the older ones. points must be ordered oldest first.
func AnalyzeTrend(points []TrendPoint) models.TrendResult {
	n := len(points)
	if n < TrendMinPoints {
		return models.TrendResult{Trend: models.TrendInsufficientData, Assessments: n}
	}

	scores := make([]float64, n)
	for i, p := range points {
		scores[i] = p.Score
	}

	recentN := n
	if recentN > TrendRecentWindow {
		recentN = TrendRecentWindow
	}
	olderN := n - TrendRecentWindow
	if olderN < 1 {
		olderN = 1
	}

	recent := utils.Mean(scores[n-recentN:])
	older := utils.Mean(scores[:olderN])
	delta := recent - older

	result := models.TrendResult{
		Direction:     directionOf(delta),
		Magnitude:     math.Abs(delta),
		RecentAverage: recent,
		OlderAverage:  older,
		Assessments:   n,
	}
	switch {
	case math.Abs(delta) < TrendStableThreshold:
		result.Trend = models.TrendStable
	case delta > 0:
		result.Trend = models.TrendWorsening
	default:
		result.Trend = models.TrendImproving
	}
	if !points[0].Date.IsZero() {
		result.Period = &models.TrendPeriod{From: points[0].Date, To: points[n-1].Date}
	}
	return result
}

// AnalyzeScores is AnalyzeTrend over bare scores.
func AnalyzeScores(scores []float64) models.TrendResult {
	points := make([]TrendPoint, len(scores))
	for i, s := range scores {
		points[i] = TrendPoint{Score: s}
	}
	return AnalyzeTrend(points)
}

func directionOf(delta float64) models.TrendDirection {
	switch {
	case delta > 0:
		return models.DirectionIncreasing
	case delta < 0:
		return models.DirectionDecreasing
	}
	return models.DirectionStable
}
