package service

import (
	"strings"
	"time"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// band adds Add to a score when a value crosses Bound.
type band struct {
	Bound float64
	Add   float64
}

// above returns the contribution of the first band whose Bound v exceeds.
func above(v float64, bands []band) float64 {
	for _, b := range bands {
		if v > b.Bound {
			return b.Add
		}
	}
	return 0
}

// below returns the contribution of the first band whose Bound v is under.
func below(v float64, bands []band) float64 {
	for _, b := range bands {
		if v < b.Bound {
			return b.Add
		}
	}
	return 0
}

// Band tables. Each is ordered from the most to the least severe bound.
var (
	propertyAgeBands        = []band{{50, 2.0}, {30, 1.0}, {20, 0.5}}
	maintenanceRecordBands  = []band{{10, 1.0}, {5, 0.5}}
	vacancyBands            = []band{{20, 2.0}, {10, 1.0}, {5, 0.5}}
	unitCountBands          = []band{{100, 1.0}, {50, 0.5}}
	buildingAgeBands        = []band{{40, 1.0}, {20, 0.5}}
	renewalLikelihoodBands  = []band{{0.3, 2.0}, {0.5, 1.0}, {0.7, 0.5}}
	churnViolationBands     = []band{{5, 1.5}, {2, 1.0}, {0, 0.5}}
	latePaymentRateBands    = []band{{0.5, 2.0}, {0.3, 1.5}, {0.1, 1.0}, {0, 0.5}}
	complaintBands          = []band{{10, 2.0}, {5, 1.0}, {2, 0.5}}
	behavioralViolationBand = []band{{3, 1.0}, {1, 0.5}}
	satisfactionBands       = []band{{2.0, 2.0}, {3.0, 1.0}, {4.0, 0.5}}

	marketTrendAdds = map[models.MarketTrend]float64{
		models.MarketTrendDecreasing: 1.5,
		models.MarketTrendStable:     0.5,
	}
	screeningRiskAdds = map[string]float64{
		"high":   2.0,
		"medium": 1.0,
	}
)

// Financial stress on a property: high vacancy on a high-value asset.
const (
	financialVacancyBound = 15.0
	financialValueBound   = 1_000_000.0
	financialStressAdd    = 2.0
	commercialAdd         = 0.5
)

// ruleInput is what a factor rule reads.
type ruleInput struct {
	Snapshot *models.EntitySnapshot
	Now      time.Time
}

func (in ruleInput) property() *models.PropertyAttributes {
	if in.Snapshot.Property == nil {
		return &models.PropertyAttributes{}
	}
	return in.Snapshot.Property
}

func (in ruleInput) tenant() *models.TenantAttributes {
	if in.Snapshot.Tenant == nil {
		return &models.TenantAttributes{}
	}
	return in.Snapshot.Tenant
}

// factorRule describes how one category is scored for one entity type.
type factorRule struct {
	Prior       float64
	Impact      float64
	Probability float64
	Attributes  []string
	Score       func(in ruleInput) float64
	// Trend is optional; nil means stable.
	Trend func(in ruleInput) models.Trend
}

type ruleKey struct {
	EntityType models.EntityType
	Category   models.Category
}

func propertyAge(in ruleInput) (float64, bool) {
	p := in.property()
	if p.YearBuilt == nil || *p.YearBuilt <= 0 {
		return 0, false
	}
	return float64(in.Now.Year() - *p.YearBuilt), true
}

// defaultFactorRules returns the stock rule set keyed by entity type and category.
func defaultFactorRules() map[ruleKey]factorRule {
	return map[ruleKey]factorRule{
		{models.EntityTypeProperty, models.CategoryMaintenance}: {
			Prior: 0.8, Impact: 3.0, Probability: 0.7,
			Attributes: []string{"property_age", "maintenance_history"},
			Score: func(in ruleInput) float64 {
				var score float64
				if age, ok := propertyAge(in); ok {
					score += above(age, propertyAgeBands)
				}
				score += above(float64(in.property().MaintenanceRecordCount), maintenanceRecordBands)
				return score
			},
		},
		{models.EntityTypeProperty, models.CategoryMarket}: {
			Prior: 0.7, Impact: 4.0, Probability: 0.6,
			Attributes: []string{"vacancy_rate", "market_trend"},
			Score: func(in ruleInput) float64 {
				var score float64
				p := in.property()
				if p.VacancyRate != nil {
					score += above(*p.VacancyRate, vacancyBands)
				}
				score += marketTrendAdds[p.MarketTrend]
				return score
			},
			Trend: func(in ruleInput) models.Trend {
				return in.property().MarketTrend.FactorTrend()
			},
		},
		{models.EntityTypeProperty, models.CategoryFinancial}: {
			Prior: 0.6, Impact: 5.0, Probability: 0.4,
			Attributes: []string{"revenue_stability", "debt_service"},
			Score: func(in ruleInput) float64 {
				p := in.property()
				if p.VacancyRate == nil || p.MarketValue == nil {
					return 0
				}
				if *p.VacancyRate > financialVacancyBound && *p.MarketValue > financialValueBound {
					return financialStressAdd
				}
				return 0
			},
		},
		{models.EntityTypeProperty, models.CategoryOperational}: {
			Prior: 0.7, Impact: 3.0, Probability: 0.5,
			Attributes: []string{"property_size", "management_complexity"},
			Score: func(in ruleInput) float64 {
				var score float64
				p := in.property()
				if p.TotalUnits != nil {
					score += above(float64(*p.TotalUnits), unitCountBands)
				}
				if strings.EqualFold(p.PropertyType, "commercial") {
					score += commercialAdd
				}
				return score
			},
		},
		{models.EntityTypeProperty, models.CategoryCompliance}: {
			Prior: 0.8, Impact: 4.0, Probability: 0.3,
			Attributes: []string{"building_age", "regulatory_compliance"},
			Score: func(in ruleInput) float64 {
				if age, ok := propertyAge(in); ok {
					return above(age, buildingAgeBands)
				}
				return 0
			},
		},
		{models.EntityTypeTenant, models.CategoryChurn}: {
			Prior: 0.7, Impact: 4.0, Probability: 0.6,
			Attributes: []string{"renewal_likelihood", "lease_violations"},
			Score: func(in ruleInput) float64 {
				var score float64
				t := in.tenant()
				if t.RenewalLikelihood != nil {
					score += below(*t.RenewalLikelihood, renewalLikelihoodBands)
				}
				score += above(float64(t.LeaseViolationCount), churnViolationBands)
				return score
			},
			Trend: func(in ruleInput) models.Trend {
				switch t := in.tenant().RiskTrend; t {
				case models.TrendImproving, models.TrendWorsening:
					return t
				}
				return models.TrendStable
			},
		},
		{models.EntityTypeTenant, models.CategoryPayment}: {
			Prior: 0.8, Impact: 5.0, Probability: 0.7,
			Attributes: []string{"payment_history", "late_payment_rate"},
			Score: func(in ruleInput) float64 {
				t := in.tenant()
				if t.PaymentsTotal <= 0 {
					return 0
				}
				rate := float64(t.PaymentsLate) / float64(t.PaymentsTotal)
				return above(rate, latePaymentRateBands)
			},
		},
		{models.EntityTypeTenant, models.CategoryBehavioral}: {
			Prior: 0.7, Impact: 3.0, Probability: 0.5,
			Attributes: []string{"complaint_history", "lease_violations"},
			Score: func(in ruleInput) float64 {
				t := in.tenant()
				return above(float64(t.ComplaintCount), complaintBands) +
					above(float64(t.LeaseViolationCount), behavioralViolationBand)
			},
		},
		{models.EntityTypeTenant, models.CategoryFinancial}: {
			Prior: 0.6, Impact: 4.0, Probability: 0.4,
			Attributes: []string{"credit_score", "income_stability"},
			Score: func(in ruleInput) float64 {
				return screeningRiskAdds[strings.ToLower(in.tenant().ScreeningRiskLevel)]
			},
		},
		{models.EntityTypeTenant, models.CategorySatisfaction}: {
			Prior: 0.7, Impact: 3.0, Probability: 0.6,
			Attributes: []string{"satisfaction_rating", "feedback_analysis"},
			Score: func(in ruleInput) float64 {
				t := in.tenant()
				if t.SatisfactionRating == nil || *t.SatisfactionRating <= 0 {
					return 0
				}
				return below(*t.SatisfactionRating, satisfactionBands)
			},
		},
	}
}

// DefaultConfidencePriors returns the stock per-category confidence priors.
func DefaultConfidencePriors() map[models.Category]float64 {
	return map[models.Category]float64{
		models.CategoryMaintenance:   0.8,
		models.CategoryMarket:        0.7,
		models.CategoryFinancial:     0.6,
		models.CategoryOperational:   0.7,
		models.CategoryCompliance:    0.8,
		models.CategoryChurn:         0.7,
		models.CategoryPayment:       0.8,
		models.CategoryBehavioral:    0.7,
		models.CategorySatisfaction:  0.7,
		models.CategoryConcentration: 0.9,
	}
}
