package service

import "github.com/turtacn/riskengine/internal/domain/models"

// alertTemplate is the title and description of one alert type.
type alertTemplate struct {
	Title       string
	Description string
}

var alertTemplates = map[string]alertTemplate{
	"maintenance_critical": {"Critical Maintenance Issue", "Equipment failure or critical maintenance required"},
	"maintenance_high":     {"High Priority Maintenance", "Maintenance issue requires urgent attention"},
	"churn_critical":       {"Critical Churn Risk", "Tenant at immediate risk of termination"},
	"churn_high":           {"High Churn Risk", "Tenant showing strong indicators of leaving"},
	"market_critical":      {"Critical Market Risk", "Severe market conditions affecting property value"},
	"payment_critical":     {"Critical Payment Risk", "Payment failure or severe delinquency"},
	"compliance_critical":  {"Critical Compliance Issue", "Regulatory compliance violation detected"},
}

const fallbackAlertTitle = "Risk Alert"

// alertSteps are the immediate response steps per category.
var alertSteps = map[models.Category][]string{
	models.CategoryMaintenance: {
		"Schedule emergency maintenance inspection",
		"Contact qualified repair service",
		"Implement temporary safety measures",
		"Monitor situation continuously",
	},
	models.CategoryChurn: {
		"Schedule tenant meeting to discuss concerns",
		"Review lease terms and incentives",
		"Implement tenant retention program",
		"Monitor tenant satisfaction metrics",
	},
	models.CategoryMarket: {
		"Review current market conditions",
		"Adjust pricing strategy if needed",
		"Consider property improvements",
		"Monitor market trends weekly",
	},
	models.CategoryPayment: {
		"Contact tenant regarding payment status",
		"Review payment history and patterns",
		"Implement payment plan if appropriate",
		"Monitor payment status closely",
	},
	models.CategoryCompliance: {
		"Review compliance requirements",
		"Contact legal/compliance expert",
		"Implement corrective actions",
		"Document compliance measures",
	},
}

var baseAlertSteps = []string{
	"Review detailed risk assessment",
	"Assess current mitigation options",
	"Implement immediate containment measures",
	"Schedule follow-up evaluation",
}

var overallAlertSteps = []string{
	"Review detailed risk assessment",
	"Prioritize high-risk factors",
	"Develop comprehensive mitigation plan",
	"Schedule follow-up assessment",
}

// riskLevelProse describes a risk level in overall alert descriptions.
var riskLevelProse = map[models.RiskLevel]string{
	models.RiskLevelCritical: "critical risk requiring immediate action",
	models.RiskLevelHigh:     "high risk needing urgent attention",
	models.RiskLevelMedium:   "moderate risk requiring monitoring",
	models.RiskLevelLow:      "low risk that should be tracked",
	models.RiskLevelMinimal:  "minimal risk with normal monitoring",
}

func stepsFor(category models.Category) []string {
	if steps, ok := alertSteps[category]; ok {
		return append([]string(nil), steps...)
	}
	return append([]string(nil), baseAlertSteps...)
}

// attributeInfo is the display name and description of a contributing attribute.
type attributeInfo struct {
	Name        string
	Description string
}

var attributeCatalog = map[string]attributeInfo{
	"property_age":            {"Property Age", "Age of the property affects maintenance costs and market value"},
	"maintenance_history":     {"Maintenance History", "Historical maintenance records indicate property condition"},
	"vacancy_rate":            {"Vacancy Rate", "Current vacancy rate affects revenue stability"},
	"market_trend":            {"Market Trend", "Local market trends impact property value and rental rates"},
	"revenue_stability":       {"Revenue Stability", "Consistency of rental income and expense management"},
	"debt_service":            {"Debt Service Coverage", "Ability to meet mortgage and loan payment obligations"},
	"property_size":           {"Property Size", "Number of units affects management complexity and risk"},
	"management_complexity":   {"Management Complexity", "Property type and size affect operational requirements"},
	"building_age":            {"Building Age", "Building age affects compliance with modern regulations"},
	"regulatory_compliance":   {"Regulatory Compliance", "Adherence to local, state, and federal regulations"},
	"renewal_likelihood":      {"Renewal Likelihood", "Probability of tenant renewing their lease"},
	"lease_violations":        {"Lease Violations", "Historical record of lease term violations"},
	"payment_history":         {"Payment History", "Pattern of rent payment timeliness and reliability"},
	"late_payment_rate":       {"Late Payment Rate", "Percentage of payments received after due date"},
	"complaint_history":       {"Complaint History", "Frequency and severity of tenant complaints"},
	"credit_score":            {"Credit Score", "Tenant creditworthiness and financial reliability"},
	"income_stability":        {"Income Stability", "Consistency of tenant income and employment"},
	"satisfaction_rating":     {"Satisfaction Rating", "Tenant satisfaction with property and services"},
	"high_risk_concentration": {"High Risk Concentration", "Share of portfolio entities at high or critical risk"},
}

const fallbackAttributeDescription = "Risk factor assessment based on available data"

// AttributeDisplayName returns the human-readable name of an attribute key.
func AttributeDisplayName(key string) string {
	if info, ok := attributeCatalog[key]; ok {
		return info.Name
	}
	return key
}

// AttributeDescription returns the explanation of an attribute key.
func AttributeDescription(key string) string {
	if info, ok := attributeCatalog[key]; ok {
		return info.Description
	}
	return fallbackAttributeDescription
}
