package service

import (
	"fmt"

	"github.com/turtacn/riskengine/internal/domain/models"
)

// WeightTable is an immutable category weight table.
type WeightTable struct {
	weights map[models.Category]float64
}

// NewWeightTable copies weights into a new table. Unknown categories and
// weights outside [0,1] are rejected.
func NewWeightTable(weights map[models.Category]float64) (WeightTable, error) {
	copied := make(map[models.Category]float64, len(weights))
	for c, w := range weights {
		if !c.Valid() {
			return WeightTable{}, fmt.Errorf("unknown category %q in weight table", c)
		}
		if w < 0 || w > 1 {
			return WeightTable{}, fmt.Errorf("weight for %s must be within [0,1], got %v", c, w)
		}
		copied[c] = w
	}
	return WeightTable{weights: copied}, nil
}

// Weight returns the weight of c and whether the table defines it.
func (t WeightTable) Weight(c models.Category) (float64, bool) {
	w, ok := t.weights[c]
	return w, ok
}

// Len returns the number of weighted categories.
func (t WeightTable) Len() int {
	return len(t.weights)
}

// DefaultWeights is the stock weight table.
func DefaultWeights() map[models.Category]float64 {
	return map[models.Category]float64{
		models.CategoryMaintenance:   0.25,
		models.CategoryChurn:         0.20,
		models.CategoryMarket:        0.15,
		models.CategoryFinancial:     0.15,
		models.CategoryOperational:   0.10,
		models.CategoryCompliance:    0.10,
		models.CategoryBehavioral:    0.15,
		models.CategoryPayment:       0.20,
		models.CategorySatisfaction:  0.10,
		models.CategoryConcentration: 0.05,
	}
}

// DefaultWeightTable returns the stock weight table.
func DefaultWeightTable() WeightTable {
	t, _ := NewWeightTable(DefaultWeights())
	return t
}

// WeightSet selects a weight table per assessment type with a fallback.
type WeightSet struct {
	fallback WeightTable
	byType   map[models.AssessmentType]WeightTable
}

// NewWeightSet builds a set from a fallback table and per-type overrides.
func NewWeightSet(fallback WeightTable, byType map[models.AssessmentType]WeightTable) WeightSet {
	copied := make(map[models.AssessmentType]WeightTable, len(byType))
	for k, v := range byType {
		copied[k] = v
	}
	return WeightSet{fallback: fallback, byType: copied}
}

// For returns the table for an assessment type.
func (s WeightSet) For(a models.AssessmentType) WeightTable {
	if t, ok := s.byType[a]; ok {
		return t
	}
	return s.fallback
}
