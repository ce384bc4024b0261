package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/sundroptea/teahouse-backend/internal/models"
)

// MemoryStore implements LedgerStore, OrderStore and ProfileStore with
// map-backed storage. It is the default backend for local runs and the
// fake used by tests; LedgerWrites lets tests assert on how many atomic
// ledger writes an operation performed.
type MemoryStore struct {
	mu           sync.RWMutex
	ingredients  map[string]models.Ingredient
	orders       map[string]models.Order
	profiles     map[string]models.CustomerProfile
	ledgerWrites int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		ingredients: make(map[string]models.Ingredient),
		orders:      make(map[string]models.Order),
		profiles:    make(map[string]models.CustomerProfile),
	}
}

// SeedIngredients loads ingredient records, replacing any existing
// record with the same ID
func (m *MemoryStore) SeedIngredients(ingredients ...models.Ingredient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ing := range ingredients {
		m.ingredients[ing.ID] = ing
	}
}

// SeedProfiles loads customer profiles
func (m *MemoryStore) SeedProfiles(profiles ...models.CustomerProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range profiles {
		m.profiles[p.ID] = p
	}
}

// LedgerWrites returns the number of atomic ledger write operations
// performed so far
func (m *MemoryStore) LedgerWrites() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledgerWrites
}

// Stock returns the current stock quantity of an ingredient
func (m *MemoryStore) Stock(ctx context.Context, ingredientID string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ing, exists := m.ingredients[ingredientID]
	if !exists {
		return 0, ErrIngredientNotFound
	}
	return ing.Stock, nil
}

// Ingredient returns an ingredient record by ID
func (m *MemoryStore) Ingredient(ctx context.Context, ingredientID string) (*models.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ing, exists := m.ingredients[ingredientID]
	if !exists {
		return nil, ErrIngredientNotFound
	}
	return &ing, nil
}

// ToppingByName resolves a topping ingredient by display name
func (m *MemoryStore) ToppingByName(ctx context.Context, name string) (*models.Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ing := range m.ingredients {
		if ing.IsTopping && ing.Name == name {
			found := ing
			return &found, nil
		}
	}
	return nil, ErrIngredientNotFound
}

// ApplyIncrements applies all deltas or none of them. Every ingredient
// is verified to exist before any stock changes, so a bad delta leaves
// the ledger untouched.
func (m *MemoryStore) ApplyIncrements(ctx context.Context, deltas []StockDelta) error {
	if len(deltas) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range deltas {
		if _, exists := m.ingredients[d.IngredientID]; !exists {
			return fmt.Errorf("%w: %s", ErrIngredientNotFound, d.IngredientID)
		}
	}

	for _, d := range deltas {
		ing := m.ingredients[d.IngredientID]
		ing.Stock += d.Delta
		m.ingredients[d.IngredientID] = ing
	}

	// The whole batch counts as one atomic write
	m.ledgerWrites++
	return nil
}

// Insert stores a new order
func (m *MemoryStore) Insert(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders[order.ID] = *order
	return nil
}

// Get returns an order by ID
func (m *MemoryStore) Get(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, ErrOrderNotFound
	}
	return &order, nil
}

func applyStatusUpdate(order *models.Order, upd StatusUpdate) {
	if upd.Status != "" {
		order.Status = upd.Status
	}
	if upd.CompletedAt != nil {
		order.CompletedAt = upd.CompletedAt
	}
	if upd.MarkInventoryDeducted {
		order.InventoryDeducted = true
	}
	if upd.MarkLoyaltyAccrued {
		order.LoyaltyAccrued = true
	}
}

// UpdateStatus applies a status update unconditionally
func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	applyStatusUpdate(&order, upd)
	m.orders[id] = order
	return nil
}

// UpdateStatusIf applies a status update only while the guarded flag is
// still false. Check and write happen under one lock, mirroring a
// conditional single-document update.
func (m *MemoryStore) UpdateStatusIf(ctx context.Context, id string, upd StatusUpdate, cond Condition) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return false, ErrOrderNotFound
	}

	switch cond {
	case IfInventoryNotDeducted:
		if order.InventoryDeducted {
			return false, nil
		}
	case IfLoyaltyNotAccrued:
		if order.LoyaltyAccrued {
			return false, nil
		}
	}

	applyStatusUpdate(&order, upd)
	m.orders[id] = order
	return true, nil
}

// ClearInventoryDeducted releases a deduction claim after a failed
// ledger write
func (m *MemoryStore) ClearInventoryDeducted(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return ErrOrderNotFound
	}
	order.InventoryDeducted = false
	m.orders[id] = order
	return nil
}

// Profile returns a customer profile by ID
func (m *MemoryStore) Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	profile, exists := m.profiles[customerID]
	if !exists {
		return nil, ErrProfileNotFound
	}
	return &profile, nil
}

// ApplyProfileIncrements applies the loyalty increments and the history
// append as one update
func (m *MemoryStore) ApplyProfileIncrements(ctx context.Context, customerID string, inc ProfileIncrements, entry models.RewardEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	profile, exists := m.profiles[customerID]
	if !exists {
		return ErrProfileNotFound
	}

	profile.Points += inc.Points
	profile.LifetimePoints += inc.LifetimePoints
	profile.TotalOrders += inc.Orders
	profile.TotalSpent += inc.Spent
	profile.RewardsHistory = append(profile.RewardsHistory, entry)
	m.profiles[customerID] = profile
	return nil
}
