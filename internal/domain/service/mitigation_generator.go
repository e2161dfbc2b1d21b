package service

import (
	"sort"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// MitigationGenerator derives prioritized remediation strategies from factors.
type MitigationGenerator struct{}

// NewMitigationGenerator creates a generator over the stock catalog.
func NewMitigationGenerator() *MitigationGenerator {
	return &MitigationGenerator{}
}

// Generate emits one strategy per factor scoring at least MitigationTrigger,
// ordered immediate, urgent, high. Ties keep category order.
func (g *MitigationGenerator) Generate(factors map[models.Category]models.RiskFactor) []models.MitigationStrategy {
	strategies := make([]models.MitigationStrategy, 0)
	for _, category := range models.AllCategories {
		f, ok := factors[category]
		if !ok || f.Score < MitigationTrigger {
			continue
		}
		strategies = append(strategies, models.MitigationStrategy{
			Category:          category,
			RiskScore:         f.Score,
			Priority:          StrategyPriority(f.Score),
			Actions:           MitigationActions(category),
			EstimatedCostBand: CostBand(category, f.Score),
			TimelineBand:      TimelineBand(f.Score),
		})
	}
	SortStrategies(strategies)
	return strategies
}

// SortStrategies orders strategies most urgent first, preserving input order on ties.
func SortStrategies(strategies []models.MitigationStrategy) {
	sort.SliceStable(strategies, func(i, j int) bool {
		return strategies[i].Priority.Rank() > strategies[j].Priority.Rank()
	})
}

// PortfolioStrategies returns the portfolio-level plans for the given risk counts.
func PortfolioStrategies(critical, high, total int) []models.MitigationStrategy {
	strategies := make([]models.MitigationStrategy, 0, 2)
	if critical > 0 {
		strategies = append(strategies, portfolioCriticalStrategy.strategy())
	}
	if total > 0 && float64(high) > float64(total)*portfolioHighShare {
		strategies = append(strategies, portfolioHighStrategy.strategy())
	}
	return strategies
}
