package models

import "time"

// EntitySnapshot is a point-in-time read of an entity's risk-relevant attributes.
// Absent attributes are nil or zero and contribute nothing to a score.
type EntitySnapshot struct {
	EntityType EntityType          `json:"entity_type"`
	EntityID   string              `json:"entity_id"`
	Name       string              `json:"name"`
	Property   *PropertyAttributes `json:"property,omitempty"`
	Tenant     *TenantAttributes   `json:"tenant,omitempty"`
	CapturedAt time.Time           `json:"captured_at"`
}

// DisplayName returns the entity name, falling back to its id.
func (s *EntitySnapshot) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.EntityID
}

// PropertyAttributes holds the property inputs of the factor rules.
type PropertyAttributes struct {
	YearBuilt              *int        `json:"year_built,omitempty"`
	MaintenanceRecordCount int         `json:"maintenance_record_count"`
	VacancyRate            *float64    `json:"vacancy_rate,omitempty"` // percent, 0-100
	MarketTrend            MarketTrend `json:"market_trend,omitempty"`
	MarketValue            *float64    `json:"market_value,omitempty"`
	TotalUnits             *int        `json:"total_units,omitempty"`
	PropertyType           string      `json:"property_type,omitempty"`
}

// TenantAttributes holds the tenant inputs of the factor rules.
type TenantAttributes struct {
	RenewalLikelihood   *float64 `json:"renewal_likelihood,omitempty"` // 0-1
	LeaseViolationCount int      `json:"lease_violation_count"`
	PaymentsTotal       int      `json:"payments_total"`
	PaymentsLate        int      `json:"payments_late"`
	ComplaintCount      int      `json:"complaint_count"`
	ScreeningRiskLevel  string   `json:"screening_risk_level,omitempty"`
	SatisfactionRating  *float64 `json:"satisfaction_rating,omitempty"` // 1-5
	RiskTrend           Trend    `json:"risk_trend,omitempty"`
}

// EntityRef names an entity for portfolio enumeration.
type EntityRef struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Name       string     `json:"name"`
}
