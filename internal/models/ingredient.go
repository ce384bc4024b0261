package models

// Ingredient is a stock ledger record for an ingredient or packaging
// item. Stock is mutated exclusively through signed increments so that
// concurrent deductions settle without lost updates.
type Ingredient struct {
	ID          string  `json:"id" bson:"_id"`
	Name        string  `json:"name" bson:"name"`
	Stock       float64 `json:"stock" bson:"stock"`
	IsTopping   bool    `json:"isTopping" bson:"isTopping"`
	PortionSize float64 `json:"portionSize,omitempty" bson:"portionSize,omitempty"`
	Price       float64 `json:"price,omitempty" bson:"price,omitempty"`
}
