package storage

import "github.com/sundroptea/teahouse-backend/internal/models"

// DefaultIngredients is the starter stock ledger for the memory
// backend. Quantities are grams or millilitres for consumables and
// piece counts for packaging.
func DefaultIngredients() []models.Ingredient {
	return []models.Ingredient{
		// recipe ingredients
		{ID: "black-tea", Name: "Black Tea", Stock: 20000},
		{ID: "jasmine-tea", Name: "Jasmine Green Tea", Stock: 20000},
		{ID: "milk", Name: "Fresh Milk", Stock: 30000},
		{ID: "creamer", Name: "Creamer", Stock: 8000},
		{ID: "taro-paste", Name: "Taro Paste", Stock: 6000},
		{ID: "espresso", Name: "Espresso", Stock: 5000},
		{ID: "brown-sugar-syrup", Name: "Brown Sugar Syrup", Stock: 4000},
		{ID: "chicken-bites", Name: "Chicken Bites", Stock: 12000},
		{ID: "frying-batter", Name: "Frying Batter", Stock: 5000},
		{ID: "waffle-batter", Name: "Waffle Batter", Stock: 6000},

		// customization ingredients
		{ID: "syrup-cane", Name: "Cane Syrup", Stock: 5000},
		{ID: "ice", Name: "Ice", Stock: 50000},

		// toppings (PortionSize 0 falls back to the default portion)
		{ID: "pearls", Name: "Tapioca Pearls", Stock: 8000, IsTopping: true, Price: 0.75},
		{ID: "pudding", Name: "Egg Pudding", Stock: 4000, IsTopping: true, PortionSize: 40, Price: 0.95},
		{ID: "grass-jelly", Name: "Grass Jelly", Stock: 4000, IsTopping: true, PortionSize: 35, Price: 0.85},
		{ID: "aloe", Name: "Aloe Vera", Stock: 3000, IsTopping: true, Price: 0.90},

		// packaging
		{ID: "cup-tall", Name: "Tall Cup", Stock: 500},
		{ID: "cup-grande", Name: "Grande Cup", Stock: 500},
		{ID: "cup-venti", Name: "Venti Cup", Stock: 500},
		{ID: "lid-tall", Name: "Tall Lid", Stock: 500},
		{ID: "lid-grande", Name: "Grande Lid", Stock: 500},
		{ID: "lid-venti", Name: "Venti Lid", Stock: 500},
		{ID: "straw", Name: "Straw", Stock: 2000},
		{ID: "napkin", Name: "Napkin", Stock: 5000},
		{ID: "takeout-box", Name: "Takeout Box", Stock: 800},
	}
}
