// Package inventory implements the inventory deduction engine and the
// stock availability checker. Both run the same requirements pass over
// an order's line items (customizations, toppings, recipe), so the
// deductor and the checker can never disagree about how much stock an
// order consumes; the deductor additionally charges packaging.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sundroptea/teahouse-backend/internal/catalog"
	"github.com/sundroptea/teahouse-backend/internal/models"
	"github.com/sundroptea/teahouse-backend/internal/storage"
)

var (
	// ErrDeductionFailed means the atomic ledger write failed and no
	// stock was deducted. The caller must not mark the order as
	// deducted.
	ErrDeductionFailed = errors.New("inventory deduction failed")
)

const (
	// defaultToppingPortion is used when a topping record carries no
	// per-portion size
	defaultToppingPortion = 30.0

	napkinsPerItem = 2
)

// Catalog is the read-only product lookup the engine needs
type Catalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// CostTable resolves sugar/ice selections to ingredient draws
type CostTable interface {
	Lookup(kind, value string) (catalog.CustomizationCost, bool)
}

// Engine computes and applies stock decrements for orders
type Engine struct {
	catalog Catalog
	costs   CostTable
	ledger  storage.LedgerStore
	log     *slog.Logger
}

// NewEngine creates a new inventory engine
func NewEngine(cat Catalog, costs CostTable, ledger storage.LedgerStore, log *slog.Logger) *Engine {
	return &Engine{
		catalog: cat,
		costs:   costs,
		ledger:  ledger,
		log:     log,
	}
}

// DeductionResult reports the decrements applied and any soft warnings
// collected on the way (unknown toppings, missing recipes).
type DeductionResult struct {
	Applied  []storage.StockDelta `json:"applied"`
	Warnings []string             `json:"warnings,omitempty"`
}

// AvailabilityResult is the outcome of a pre-flight stock check
type AvailabilityResult struct {
	Available    bool     `json:"available"`
	Insufficient []string `json:"insufficient,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// requirements computes the positive per-ingredient consumption of the
// line items across customizations, toppings and recipes. Unresolvable
// toppings and products degrade to warnings rather than blocking the
// order. Only storage failures are returned as errors.
func (e *Engine) requirements(ctx context.Context, items []models.LineItem) (map[string]float64, []string, error) {
	required := make(map[string]float64)
	var warnings []string

	for _, item := range items {
		qty := float64(item.Quantity)

		if c := item.Customization; c != nil {
			for _, sel := range []struct{ kind, value string }{
				{catalog.KindSugar, c.SugarLevel},
				{catalog.KindIce, c.IceLevel},
			} {
				if sel.value == "" {
					continue
				}
				cost, ok := e.costs.Lookup(sel.kind, sel.value)
				if !ok {
					warnings = append(warnings, fmt.Sprintf("unknown %s level %q, no ingredient charged", sel.kind, sel.value))
					continue
				}
				if cost.Amount > 0 {
					required[cost.IngredientID] += cost.Amount * qty
				}
			}

			for _, name := range c.Toppings {
				topping, err := e.ledger.ToppingByName(ctx, name)
				if errors.Is(err, storage.ErrIngredientNotFound) {
					warnings = append(warnings, fmt.Sprintf("topping %q not found, skipping", name))
					continue
				}
				if err != nil {
					return nil, nil, err
				}
				portion := topping.PortionSize
				if portion <= 0 {
					portion = defaultToppingPortion
				}
				required[topping.ID] += portion * qty
			}
		}

		product, err := e.catalog.GetByID(ctx, item.ProductID)
		if err != nil || len(product.Recipe) == 0 {
			warnings = append(warnings, fmt.Sprintf("no recipe found for product %s, skipping recipe deduction", item.ProductID))
			continue
		}
		for _, ri := range product.Recipe {
			required[ri.IngredientID] += ri.Quantity * qty
		}
	}

	return required, warnings, nil
}

// packaging computes the per-ingredient packaging consumption of the
// line items: cup, lid and straw for beverages, takeout box for meals,
// napkins for both. Items whose product cannot be resolved are skipped;
// the requirements pass already warned about them.
func (e *Engine) packaging(ctx context.Context, items []models.LineItem) map[string]float64 {
	pack := make(map[string]float64)

	for _, item := range items {
		product, err := e.catalog.GetByID(ctx, item.ProductID)
		if err != nil {
			continue
		}
		qty := float64(item.Quantity)

		if catalog.IsBeverage(product.Category) {
			if size := strings.ToLower(item.Size); size != "" {
				pack["cup-"+size] += qty
				pack["lid-"+size] += qty
			}
			pack["straw"] += qty
			pack["napkin"] += napkinsPerItem * qty
		} else {
			pack["takeout-box"] += qty
			pack["napkin"] += napkinsPerItem * qty
		}
	}

	return pack
}

// Deduct computes the full set of ledger decrements for the line items
// and applies them as one atomic multi-key write. Either every
// decrement lands or none does; a ledger failure surfaces as
// ErrDeductionFailed with no stock changed.
func (e *Engine) Deduct(ctx context.Context, items []models.LineItem) (*DeductionResult, error) {
	required, warnings, err := e.requirements(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeductionFailed, err)
	}

	for id, amount := range e.packaging(ctx, items) {
		required[id] += amount
	}

	deltas := make([]storage.StockDelta, 0, len(required))
	for id, amount := range required {
		deltas = append(deltas, storage.StockDelta{IngredientID: id, Delta: -amount})
	}
	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].IngredientID < deltas[j].IngredientID
	})

	if len(deltas) > 0 {
		if err := e.ledger.ApplyIncrements(ctx, deltas); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeductionFailed, err)
		}
	}

	for _, w := range warnings {
		e.log.Warn("inventory deduction warning", "warning", w)
	}

	return &DeductionResult{Applied: deltas, Warnings: warnings}, nil
}

// CheckAvailability reports whether current stock satisfies the line
// items' consumption (customizations, toppings, recipe; packaging is
// assumed non-blocking). It accumulates every shortfall instead of
// failing fast and never mutates the ledger.
func (e *Engine) CheckAvailability(ctx context.Context, items []models.LineItem) (*AvailabilityResult, error) {
	required, warnings, err := e.requirements(ctx, items)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := &AvailabilityResult{Available: true, Warnings: warnings}
	for _, id := range ids {
		ing, err := e.ledger.Ingredient(ctx, id)
		if errors.Is(err, storage.ErrIngredientNotFound) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("ingredient %s not in stock ledger", id))
			continue
		}
		if err != nil {
			return nil, err
		}
		if ing.Stock < required[id] {
			result.Available = false
			result.Insufficient = append(result.Insufficient,
				fmt.Sprintf("%s: required %.0f, available %.0f", ing.Name, required[id], ing.Stock))
		}
	}

	return result, nil
}
