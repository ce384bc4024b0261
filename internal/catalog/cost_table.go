package catalog

import "strings"

// Customization kinds accepted by the cost table
const (
	KindSugar = "sugar"
	KindIce   = "ice"
)

// CustomizationCost is the ingredient draw of a single sugar/ice selection
type CustomizationCost struct {
	IngredientID string
	Amount       float64
}

// CostTable maps sugar-level and ice-level selections to the ingredient
// and quantity they consume. Static reference data.
type CostTable struct {
	costs map[string]map[string]CustomizationCost
}

// NewCostTable creates the standard drink customization cost table
func NewCostTable() *CostTable {
	return &CostTable{
		costs: map[string]map[string]CustomizationCost{
			KindSugar: {
				"none":  {IngredientID: "syrup-cane", Amount: 0},
				"light": {IngredientID: "syrup-cane", Amount: 5},
				"half":  {IngredientID: "syrup-cane", Amount: 10},
				"less":  {IngredientID: "syrup-cane", Amount: 15},
				"full":  {IngredientID: "syrup-cane", Amount: 20},
			},
			KindIce: {
				"no-ice":      {IngredientID: "ice", Amount: 0},
				"less-ice":    {IngredientID: "ice", Amount: 40},
				"regular-ice": {IngredientID: "ice", Amount: 80},
			},
		},
	}
}

// Lookup returns the cost entry for a (kind, value) selection.
// The second return value is false when the selection is unknown.
func (t *CostTable) Lookup(kind, value string) (CustomizationCost, bool) {
	entries, ok := t.costs[kind]
	if !ok {
		return CustomizationCost{}, false
	}
	cost, ok := entries[strings.ToLower(value)]
	return cost, ok
}
