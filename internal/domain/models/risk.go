package models

import "time"

// RiskFactor is one category's score/weight/impact/probability/confidence/trend tuple.
type RiskFactor struct {
	Category               Category `json:"category"`
	Score                  float64  `json:"score"`
	Weight                 float64  `json:"weight"`
	Impact                 float64  `json:"impact"`
	Probability            float64  `json:"probability"`
	Confidence             float64  `json:"confidence"`
	Trend                  Trend    `json:"trend"`
	ContributingAttributes []string `json:"contributing_attributes"`
}

// MitigationStrategy is a prioritized, category-scoped remediation plan.
type MitigationStrategy struct {
	Category          Category `json:"category"`
	RiskScore         float64  `json:"risk_score"`
	Priority          Priority `json:"priority"`
	Actions           []string `json:"actions"`
	EstimatedCostBand string   `json:"estimated_cost_band"`
	TimelineBand      string   `json:"timeline_band"`
}

// RiskAssessment is the immutable result of one assessment run.
type RiskAssessment struct {
	ID                   string                  `json:"id"`
	EntityType           EntityType              `json:"entity_type"`
	EntityID             string                  `json:"entity_id"`
	EntityName           string                  `json:"entity_name,omitempty"`
	AssessmentType       AssessmentType          `json:"assessment_type"`
	OverallScore         float64                 `json:"overall_score"`
	RiskLevel            RiskLevel               `json:"risk_level"`
	Confidence           float64                 `json:"confidence"`
	Factors              map[Category]RiskFactor `json:"factors"`
	MitigationStrategies []MitigationStrategy    `json:"mitigation_strategies"`
	AssessmentDate       time.Time               `json:"assessment_date"`
	NextAssessmentDate   time.Time               `json:"next_assessment_date"`
	DataQuality          float64                 `json:"data_quality"`
	NeedsReview          bool                    `json:"needs_review"`
	PreviousScore        *float64                `json:"previous_score,omitempty"`
	Portfolio            *PortfolioSummary       `json:"portfolio,omitempty"`
}

// PortfolioSummary describes the entity pool behind a portfolio assessment.
type PortfolioSummary struct {
	TotalProperties    int      `json:"total_properties"`
	TotalTenants       int      `json:"total_tenants"`
	AssessedProperties int      `json:"assessed_properties"`
	AssessedTenants    int      `json:"assessed_tenants"`
	CriticalRisks      int      `json:"critical_risks"`
	HighRisks          int      `json:"high_risks"`
	Failed             []string `json:"failed,omitempty"`
}

// EntityRiskSummary is the slice of a completed entity assessment a portfolio roll-up needs.
type EntityRiskSummary struct {
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	EntityName string     `json:"entity_name,omitempty"`
	RiskScore  float64    `json:"risk_score"`
	RiskLevel  RiskLevel  `json:"risk_level"`
}

// QueryOptions pages and filters assessment history reads.
type QueryOptions struct {
	Limit          int
	Offset         int
	AssessmentType AssessmentType
}

// TrendPeriod is the date range covered by a trend analysis.
type TrendPeriod struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TrendResult is the outcome of comparing recent and older assessment scores.
type TrendResult struct {
	Trend         Trend          `json:"trend"`
	Direction     TrendDirection `json:"direction,omitempty"`
	Magnitude     float64        `json:"magnitude"`
	RecentAverage float64        `json:"recent_average"`
	OlderAverage  float64        `json:"older_average"`
	Assessments   int            `json:"assessments"`
	Period        *TrendPeriod   `json:"period,omitempty"`
}
