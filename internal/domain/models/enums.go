package models

import "fmt"

// EntityType identifies what kind of entity an assessment describes.
type EntityType string

const (
	EntityTypeProperty  EntityType = "property"
	EntityTypeTenant    EntityType = "tenant"
	EntityTypePortfolio EntityType = "portfolio"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeProperty, EntityTypeTenant, EntityTypePortfolio:
		return true
	}
	return false
}

// ParseEntityType converts s into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// Category is a closed set of risk categories.
type Category string

const (
	CategoryMaintenance   Category = "maintenance"
	CategoryChurn         Category = "churn"
	CategoryMarket        Category = "market"
	CategoryFinancial     Category = "financial"
	CategoryOperational   Category = "operational"
	CategoryCompliance    Category = "compliance"
	CategoryBehavioral    Category = "behavioral"
	CategoryPayment       Category = "payment"
	CategorySatisfaction  Category = "satisfaction"
	CategoryConcentration Category = "concentration"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryMaintenance,
	CategoryChurn,
	CategoryMarket,
	CategoryFinancial,
	CategoryOperational,
	CategoryCompliance,
	CategoryBehavioral,
	CategoryPayment,
	CategorySatisfaction,
	CategoryConcentration,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryMaintenance, CategoryChurn, CategoryMarket, CategoryFinancial,
		CategoryOperational, CategoryCompliance, CategoryBehavioral, CategoryPayment,
		CategorySatisfaction, CategoryConcentration:
		return true
	}
	return false
}

// CategoriesFor returns the factor set evaluated for an entity type.
func CategoriesFor(t EntityType) []Category {
	switch t {
	case EntityTypeProperty:
		return []Category{CategoryMaintenance, CategoryMarket, CategoryFinancial, CategoryOperational, CategoryCompliance}
	case EntityTypeTenant:
		return []Category{CategoryChurn, CategoryPayment, CategoryBehavioral, CategoryFinancial, CategorySatisfaction}
	case EntityTypePortfolio:
		return []Category{CategoryConcentration}
	}
	return nil
}

// AssessmentType labels an assessment run and selects its weight table.
type AssessmentType string

const (
	AssessmentTypeComprehensive AssessmentType = "comprehensive"
	AssessmentTypeMaintenance   AssessmentType = "maintenance"
	AssessmentTypeChurn         AssessmentType = "churn"
	AssessmentTypeMarket        AssessmentType = "market"
	AssessmentTypeFinancial     AssessmentType = "financial"
	AssessmentTypeOperational   AssessmentType = "operational"
	AssessmentTypeCompliance    AssessmentType = "compliance"
	AssessmentTypePortfolio     AssessmentType = "portfolio"
)

// Valid reports whether a is a known assessment type.
func (a AssessmentType) Valid() bool {
	switch a {
	case AssessmentTypeComprehensive, AssessmentTypeMaintenance, AssessmentTypeChurn,
		AssessmentTypeMarket, AssessmentTypeFinancial, AssessmentTypeOperational,
		AssessmentTypeCompliance, AssessmentTypePortfolio:
		return true
	}
	return false
}

// RiskLevel is the discretized bucket of an overall score.
type RiskLevel string

const (
	RiskLevelMinimal  RiskLevel = "minimal"
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Trend classifies how an entity's risk is moving.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendStable           Trend = "stable"
	TrendWorsening        Trend = "worsening"
	TrendInsufficientData Trend = "insufficient_data"
)

// TrendDirection reports the raw sign of a score change.
type TrendDirection string

const (
	DirectionIncreasing TrendDirection = "increasing"
	DirectionDecreasing TrendDirection = "decreasing"
	DirectionStable     TrendDirection = "stable"
)

// MarketTrend is the local market direction reported for a property.
type MarketTrend string

const (
	MarketTrendIncreasing MarketTrend = "increasing"
	MarketTrendStable     MarketTrend = "stable"
	MarketTrendDecreasing MarketTrend = "decreasing"
)

// FactorTrend maps a market direction to a factor trend. Rising markets lower risk.
func (m MarketTrend) FactorTrend() Trend {
	switch m {
	case MarketTrendDecreasing:
		return TrendWorsening
	case MarketTrendIncreasing:
		return TrendImproving
	}
	return TrendStable
}

// Priority orders mitigation strategies and alerts.
type Priority string

const (
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityUrgent    Priority = "urgent"
	PriorityImmediate Priority = "immediate"
)

// Rank returns the severity order of p; higher is more severe.
func (p Priority) Rank() int {
	switch p {
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	case PriorityImmediate:
		return 4
	}
	return 0
}
