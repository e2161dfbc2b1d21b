package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/riskengine/internal/domain/models"
)

func TestLevelOf_Boundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.RiskLevel
	}{
		{5.0, models.RiskLevelCritical},
		{4.0, models.RiskLevelCritical},
		{3.999, models.RiskLevelHigh},
		{3.0, models.RiskLevelHigh},
		{2.999, models.RiskLevelMedium},
		{2.0, models.RiskLevelMedium},
		{1.0, models.RiskLevelLow},
		{0.999, models.RiskLevelMinimal},
		{0, models.RiskLevelMinimal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LevelOf(tc.score), "score %v", tc.score)
	}
}

func TestThresholdFor(t *testing.T) {
	assert.Equal(t, models.PriorityImmediate, ThresholdFor(4.5).Priority)
	assert.Equal(t, time.Hour, ThresholdFor(4.0).EscalationWindow)
	assert.Equal(t, models.PriorityUrgent, ThresholdFor(3.2).Priority)
	assert.Equal(t, 4*time.Hour, ThresholdFor(3.0).EscalationWindow)
	assert.Equal(t, models.PriorityHigh, ThresholdFor(2.0).Priority)
	assert.Equal(t, 24*time.Hour, ThresholdFor(2.5).EscalationWindow)
	assert.Equal(t, models.PriorityMedium, ThresholdFor(1.0).Priority)
	assert.Equal(t, 72*time.Hour, ThresholdFor(1.0).EscalationWindow)

	// below the lowest band falls into the medium row
	assert.Equal(t, models.PriorityMedium, ThresholdFor(0.2).Priority)
	assert.Equal(t, 72*time.Hour, ThresholdFor(0.2).EscalationWindow)
}

func TestEscalationWindow(t *testing.T) {
	assert.Equal(t, time.Hour, EscalationWindow(models.PriorityImmediate))
	assert.Equal(t, 4*time.Hour, EscalationWindow(models.PriorityUrgent))
	assert.Equal(t, 24*time.Hour, EscalationWindow(models.PriorityHigh))
	assert.Equal(t, 72*time.Hour, EscalationWindow(models.PriorityMedium))
}

func TestNextPriority(t *testing.T) {
	assert.Equal(t, models.PriorityHigh, NextPriority(models.PriorityMedium))
	assert.Equal(t, models.PriorityImmediate, NextPriority(models.PriorityHigh))
	assert.Equal(t, models.PriorityImmediate, NextPriority(models.PriorityUrgent))
	assert.Equal(t, models.PriorityImmediate, NextPriority(models.PriorityImmediate))

	for p := range escalationMap {
		assert.GreaterOrEqual(t, NextPriority(p).Rank(), p.Rank(), "escalation from %s must not lower priority", p)
	}
}

func TestDetermineAlertType(t *testing.T) {
	assert.Equal(t, "maintenance_critical", DetermineAlertType(models.CategoryMaintenance, 4.5))
	assert.Equal(t, "churn_high", DetermineAlertType(models.CategoryChurn, 3.2))
	assert.Equal(t, "", DetermineAlertType(models.CategoryMarket, 1.5))
	assert.Equal(t, "payment_critical", DetermineAlertType(models.CategoryPayment, 4.0))
	assert.Equal(t, "market_high", DetermineAlertType(models.CategoryMarket, 3.0))
	assert.Equal(t, "", DetermineAlertType(models.CategoryMarket, 2.999))
}

func TestStrategyBands(t *testing.T) {
	assert.Equal(t, models.PriorityImmediate, StrategyPriority(4.0))
	assert.Equal(t, models.PriorityUrgent, StrategyPriority(3.5))
	assert.Equal(t, models.PriorityHigh, StrategyPriority(2.0))

	assert.Equal(t, "1-2 weeks", TimelineBand(4.2))
	assert.Equal(t, "2-4 weeks", TimelineBand(3.0))
	assert.Equal(t, "1-2 months", TimelineBand(2.5))
}

func TestCostBand(t *testing.T) {
	assert.Equal(t, "$15,000+", CostBand(models.CategoryMaintenance, 4.1))
	assert.Equal(t, "$2,000-10,000", CostBand(models.CategoryChurn, 3.1))
	assert.Equal(t, "$1,000-3,000", CostBand(models.CategoryMarket, 2.1))
	assert.Equal(t, "$20,000+", CostBand(models.CategoryFinancial, 4.0))
	assert.Equal(t, "$500-1,000", CostBand(models.CategoryPayment, 2.0))
	assert.Equal(t, "$3,000-8,000", CostBand(models.CategoryBehavioral, 3.9))

	// categories without their own row use the maintenance row
	assert.Equal(t, "$5,000-15,000", CostBand(models.CategoryCompliance, 3.0))
	assert.Equal(t, "$1,000-5,000", CostBand(models.CategoryOperational, 2.0))
}

func TestCategoryCoverage(t *testing.T) {
	rules := defaultFactorRules()
	priors := DefaultConfidencePriors()
	weights := DefaultWeightTable()

	for _, c := range models.AllCategories {
		assert.True(t, c.Valid())
		_, ok := priors[c]
		assert.True(t, ok, "missing confidence prior for %s", c)
		_, ok = weights.Weight(c)
		assert.True(t, ok, "missing default weight for %s", c)

		switch c {
		case models.CategoryMaintenance, models.CategoryMarket, models.CategoryOperational, models.CategoryCompliance:
			_, ok := rules[ruleKey{models.EntityTypeProperty, c}]
			assert.True(t, ok, "missing property rule for %s", c)
		case models.CategoryChurn, models.CategoryPayment, models.CategoryBehavioral, models.CategorySatisfaction:
			_, ok := rules[ruleKey{models.EntityTypeTenant, c}]
			assert.True(t, ok, "missing tenant rule for %s", c)
		case models.CategoryFinancial:
			_, ok := rules[ruleKey{models.EntityTypeProperty, c}]
			assert.True(t, ok)
			_, ok = rules[ruleKey{models.EntityTypeTenant, c}]
			assert.True(t, ok)
		case models.CategoryConcentration:
			assert.Equal(t, []models.Category{c}, models.CategoriesFor(models.EntityTypePortfolio))
		default:
			t.Fatalf("category %s has no coverage case", c)
		}
	}
	assert.False(t, models.Category("maintainance").Valid())
}

func TestWeightTable(t *testing.T) {
	_, err := NewWeightTable(map[models.Category]float64{"bogus": 0.5})
	assert.Error(t, err)

	_, err = NewWeightTable(map[models.Category]float64{models.CategoryMarket: 1.5})
	assert.Error(t, err)

	src := map[models.Category]float64{models.CategoryMarket: 0.5}
	table, err := NewWeightTable(src)
	assert.NoError(t, err)
	src[models.CategoryMarket] = 0.9
	w, ok := table.Weight(models.CategoryMarket)
	assert.True(t, ok)
	assert.Equal(t, 0.5, w, "table must not alias the source map")

	set := NewWeightSet(DefaultWeightTable(), map[models.AssessmentType]WeightTable{
		models.AssessmentTypeMarket: table,
	})
	assert.Equal(t, 1, set.For(models.AssessmentTypeMarket).Len())
	assert.Equal(t, 10, set.For(models.AssessmentTypeComprehensive).Len())
}
