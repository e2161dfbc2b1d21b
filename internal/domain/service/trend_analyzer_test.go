package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/riskengine/internal/domain/models"
)

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	assert.Equal(t, models.TrendInsufficientData, AnalyzeScores(nil).Trend)

	one := AnalyzeScores([]float64{2.5})
	assert.Equal(t, models.TrendInsufficientData, one.Trend)
	assert.Equal(t, 1, one.Assessments)
}

func TestAnalyzeTrend_Worsening(t *testing.T) {
	result := AnalyzeScores([]float64{1.0, 1.1, 1.3, 1.8, 2.4})

	assert.Equal(t, models.TrendWorsening, result.Trend)
	assert.Equal(t, models.DirectionIncreasing, result.Direction)
	assert.InDelta(t, 1.52, result.RecentAverage, 1e-9)
	assert.InDelta(t, 1.0, result.OlderAverage, 1e-9)
	assert.InDelta(t, 0.52, result.Magnitude, 1e-9)
	assert.Nil(t, result.Period)
}

func TestAnalyzeTrend_Improving(t *testing.T) {
	// older: mean(4.5, 4.0) = 4.25, recent: mean(3.0, 2.8, 2.5, 2.2, 2.0) = 2.5
	result := AnalyzeScores([]float64{4.5, 4.0, 3.0, 2.8, 2.5, 2.2, 2.0})

	assert.Equal(t, models.TrendImproving, result.Trend)
	assert.Equal(t, models.DirectionDecreasing, result.Direction)
	assert.InDelta(t, 4.25, result.OlderAverage, 1e-9)
	assert.InDelta(t, 2.5, result.RecentAverage, 1e-9)
}

func TestAnalyzeTrend_StableReportsRawDirection(t *testing.T) {
	result := AnalyzeScores([]float64{2.0, 2.2})

	assert.Equal(t, models.TrendStable, result.Trend)
	assert.Equal(t, models.DirectionIncreasing, result.Direction)

	flat := AnalyzeScores([]float64{2.0, 2.0, 2.0})
	assert.Equal(t, models.DirectionStable, flat.Direction)
}

func TestAnalyzeTrend_Period(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := []TrendPoint{
		{Score: 1.0, Date: start},
		{Score: 1.2, Date: start.AddDate(0, 1, 0)},
		{Score: 3.0, Date: start.AddDate(0, 2, 0)},
	}
	result := AnalyzeTrend(points)

	require.NotNil(t, result.Period)
	assert.Equal(t, start, result.Period.From)
	assert.Equal(t, start.AddDate(0, 2, 0), result.Period.To)
	assert.Equal(t, 3, result.Assessments)
}
