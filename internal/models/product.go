package models

// RecipeItem is one ingredient draw of a product's recipe,
// expressed per unit sold
type RecipeItem struct {
	IngredientID string  `json:"ingredientId" bson:"ingredientId"`
	Quantity     float64 `json:"quantity" bson:"quantity"`
}

// Product represents a menu item available for order.
// Recipe is static reference data and is never mutated by the engine.
type Product struct {
	ID       string       `json:"id" bson:"_id"`
	Name     string       `json:"name" bson:"name"`
	Price    float64      `json:"price" bson:"price"`
	Category string       `json:"category" bson:"category"`
	Sizes    []string     `json:"sizes,omitempty" bson:"sizes,omitempty"`
	Recipe   []RecipeItem `json:"recipe,omitempty" bson:"recipe,omitempty"`
}
