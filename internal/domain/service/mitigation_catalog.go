package service

import "github.com/turtacn/riskengine/internal/domain/models"

// mitigationActions is the remediation catalog used for assessment strategies.
var mitigationActions = map[models.Category][]string{
	models.CategoryMaintenance: {
		"Schedule preventive maintenance inspections",
		"Create maintenance budget allocation",
		"Implement equipment monitoring systems",
		"Train staff on maintenance procedures",
	},
	models.CategoryChurn: {
		"Implement tenant retention program",
		"Improve tenant communication channels",
		"Offer lease renewal incentives",
		"Conduct tenant satisfaction surveys",
	},
	models.CategoryMarket: {
		"Monitor local market trends regularly",
		"Adjust rental pricing strategy",
		"Improve property marketing efforts",
		"Consider property improvements for competitiveness",
	},
	models.CategoryFinancial: {
		"Review and optimize operating expenses",
		"Improve cash flow management",
		"Diversify income sources",
		"Implement financial monitoring systems",
	},
	models.CategoryPayment: {
		"Implement stricter payment policies",
		"Offer payment plan options",
		"Improve tenant financial communication",
		"Consider tenant financial assistance programs",
	},
	models.CategoryBehavioral: {
		"Enhance tenant screening process",
		"Implement clear lease terms and policies",
		"Improve tenant education and communication",
		"Establish tenant dispute resolution process",
	},
	models.CategoryCompliance: {
		"Conduct regulatory compliance audit",
		"Update building systems to current code",
		"Engage compliance consultant",
		"Document compliance remediation",
	},
}

const genericMitigationAction = "Develop customized mitigation strategy"

// MitigationActions returns the catalog actions for a category, or the generic fallback.
func MitigationActions(category models.Category) []string {
	if actions, ok := mitigationActions[category]; ok {
		return append([]string(nil), actions...)
	}
	return []string{genericMitigationAction}
}

// portfolioStrategyTemplate describes a portfolio-level remediation plan.
type portfolioStrategyTemplate struct {
	Priority  models.Priority
	RiskScore float64
	CostBand  string
	Timeline  string
	Actions   []string
}

var (
	portfolioCriticalStrategy = portfolioStrategyTemplate{
		Priority:  models.PriorityImmediate,
		RiskScore: 4.0,
		CostBand:  "$10,000+",
		Timeline:  "1-2 weeks",
		Actions: []string{
			"Immediate intervention required for critical risk entities",
			"Allocate emergency resources for high-priority mitigation",
			"Implement enhanced monitoring for critical entities",
			"Consider professional risk management consultation",
		},
	}
	portfolioHighStrategy = portfolioStrategyTemplate{
		Priority:  models.PriorityUrgent,
		RiskScore: 3.0,
		CostBand:  "$5,000-15,000",
		Timeline:  "2-4 weeks",
		Actions: []string{
			"Develop comprehensive risk mitigation plan",
			"Prioritize high-risk entities for intervention",
			"Implement portfolio-wide risk monitoring system",
			"Review and strengthen risk management policies",
		},
	}
)

// portfolioHighShare is the share of high-risk entities above which the urgent plan applies.
const portfolioHighShare = 0.1

func (t portfolioStrategyTemplate) strategy() models.MitigationStrategy {
	return models.MitigationStrategy{
		Category:          models.CategoryConcentration,
		RiskScore:         t.RiskScore,
		Priority:          t.Priority,
		Actions:           append([]string(nil), t.Actions...),
		EstimatedCostBand: t.CostBand,
		TimelineBand:      t.Timeline,
	}
}
