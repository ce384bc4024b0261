package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sundroptea/teahouse-backend/internal/models"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrProfileNotFound    = errors.New("customer profile not found")
)

// StockDelta is a signed increment against one stock ledger record.
// Increments commute, so concurrent deductions against the same
// ingredient settle without lost updates.
type StockDelta struct {
	IngredientID string  `json:"ingredientId"`
	Delta        float64 `json:"delta"`
}

// StatusUpdate describes the single persisted write the order state
// machine issues per transition.
type StatusUpdate struct {
	Status                models.OrderStatus
	CompletedAt           *time.Time
	MarkInventoryDeducted bool
	MarkLoyaltyAccrued    bool
}

// Condition guards a conditional status update. A conditional update
// applies only when the guarded flag is still false, as one atomic
// operation at the storage layer.
type Condition int

const (
	Unconditional Condition = iota
	IfInventoryNotDeducted
	IfLoyaltyNotAccrued
)

// ProfileIncrements is the set of signed increments applied to a
// customer profile when loyalty points accrue.
type ProfileIncrements struct {
	Points         int
	LifetimePoints int
	Orders         int
	Spent          float64
}

// LedgerStore is the stock ledger: point reads plus an atomic
// multi-key increment. Implementations must apply the whole increment
// list or none of it.
type LedgerStore interface {
	Stock(ctx context.Context, ingredientID string) (float64, error)
	Ingredient(ctx context.Context, ingredientID string) (*models.Ingredient, error)
	ToppingByName(ctx context.Context, name string) (*models.Ingredient, error)
	ApplyIncrements(ctx context.Context, deltas []StockDelta) error
}

// OrderStore persists orders. UpdateStatusIf is the conditional
// variant of the status write; it returns false (with no error and no
// state change) when the guarding condition does not hold.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, upd StatusUpdate) error
	UpdateStatusIf(ctx context.Context, id string, upd StatusUpdate, cond Condition) (bool, error)
	ClearInventoryDeducted(ctx context.Context, id string) error
}

// ProfileStore persists customer loyalty profiles. ApplyProfileIncrements
// must apply the increments and the history append as one atomic update.
type ProfileStore interface {
	Profile(ctx context.Context, customerID string) (*models.CustomerProfile, error)
	ApplyProfileIncrements(ctx context.Context, customerID string, inc ProfileIncrements, entry models.RewardEntry) error
}
