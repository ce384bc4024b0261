package catalog

import (
	"context"
	"errors"

	"github.com/sundroptea/teahouse-backend/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

// Repository defines the read-only interface for catalog data access
type Repository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// InMemoryRepository implements Repository with in-memory storage
type InMemoryRepository struct {
	products map[string]models.Product
}

// NewInMemoryRepository creates a new in-memory catalog repository with seed data
func NewInMemoryRepository() *InMemoryRepository {
	products := map[string]models.Product{
		"1": {
			ID: "1", Name: "Pearl Milk Tea", Price: 5.50, Category: "milk tea",
			Sizes: []string{"Tall", "Grande", "Venti"},
			Recipe: []models.RecipeItem{
				{IngredientID: "black-tea", Quantity: 200},
				{IngredientID: "milk", Quantity: 80},
				{IngredientID: "creamer", Quantity: 20},
			},
		},
		"2": {
			ID: "2", Name: "Jasmine Green Tea", Price: 4.25, Category: "fresh tea",
			Sizes: []string{"Tall", "Grande", "Venti"},
			Recipe: []models.RecipeItem{
				{IngredientID: "jasmine-tea", Quantity: 250},
			},
		},
		"3": {
			ID: "3", Name: "Taro Milk Tea", Price: 5.95, Category: "milk tea",
			Sizes: []string{"Tall", "Grande", "Venti"},
			Recipe: []models.RecipeItem{
				{IngredientID: "taro-paste", Quantity: 60},
				{IngredientID: "milk", Quantity: 100},
			},
		},
		"4": {
			ID: "4", Name: "Brown Sugar Latte", Price: 6.25, Category: "coffee",
			Sizes: []string{"Tall", "Grande", "Venti"},
			Recipe: []models.RecipeItem{
				{IngredientID: "espresso", Quantity: 40},
				{IngredientID: "milk", Quantity: 180},
				{IngredientID: "brown-sugar-syrup", Quantity: 25},
			},
		},
		"5": {
			ID: "5", Name: "Popcorn Chicken", Price: 6.99, Category: "snack",
			Recipe: []models.RecipeItem{
				{IngredientID: "chicken-bites", Quantity: 150},
				{IngredientID: "frying-batter", Quantity: 30},
			},
		},
		"6": {
			ID: "6", Name: "Egg Waffle", Price: 4.99, Category: "snack",
			Recipe: []models.RecipeItem{
				{IngredientID: "waffle-batter", Quantity: 120},
			},
		},
	}

	return &InMemoryRepository{
		products: products,
	}
}

// GetAll returns all products
func (r *InMemoryRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0, len(r.products))
	for _, product := range r.products {
		products = append(products, product)
	}
	return products, nil
}

// GetByID returns a product by its ID
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product, exists := r.products[id]
	if !exists {
		return nil, ErrProductNotFound
	}
	return &product, nil
}

// beverageCategories are the categories that ship in a cup; everything
// else is packed as a meal
var beverageCategories = map[string]bool{
	"milk tea":  true,
	"fresh tea": true,
	"fruit tea": true,
	"coffee":    true,
}

// IsBeverage classifies a product category for packaging purposes
func IsBeverage(category string) bool {
	return beverageCategories[category]
}
