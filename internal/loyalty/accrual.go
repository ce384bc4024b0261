// Package loyalty credits reward points to customer profiles when an
// order completes. Points are a static lookup by unit size; the whole
// award (counters plus history entry) is one atomic profile update.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sundroptea/teahouse-backend/internal/models"
	"github.com/sundroptea/teahouse-backend/internal/storage"
)

var (
	// ErrAccrualFailed means the profile update did not apply. Callers
	// treat this as non-fatal to order completion.
	ErrAccrualFailed = errors.New("loyalty accrual failed")
)

// pointsBySize maps a drink size tier to points earned per unit
var pointsBySize = map[string]int{
	"tall":   3,
	"grande": 4,
	"venti":  5,
}

// bundlePoints is earned per unit by items without a size tier
// (meal bundles)
const bundlePoints = 5

func pointsForItem(item models.LineItem) int {
	if item.Size == "" {
		return bundlePoints
	}
	return pointsBySize[strings.ToLower(item.Size)]
}

// Accruer awards loyalty points against customer profiles
type Accruer struct {
	profiles storage.ProfileStore
	log      *slog.Logger
}

// NewAccruer creates a new loyalty accruer
func NewAccruer(profiles storage.ProfileStore, log *slog.Logger) *Accruer {
	return &Accruer{
		profiles: profiles,
		log:      log,
	}
}

// Result reports the points credited by one accrual
type Result struct {
	Points  int  `json:"points"`
	Awarded bool `json:"awarded"`
}

// Accrue sums the points earned by the line items and applies them to
// the customer profile together with the order counters and a single
// rewards-history entry, in one atomic update. A zero-point order makes
// no update and appends no history entry.
func (a *Accruer) Accrue(ctx context.Context, customerID string, items []models.LineItem, orderTotal float64) (*Result, error) {
	total := 0
	var earned []string
	for _, item := range items {
		points := pointsForItem(item)
		if points <= 0 {
			continue
		}
		total += points * item.Quantity
		earned = append(earned, item.ProductName)
	}

	if total == 0 {
		return &Result{}, nil
	}

	entry := models.RewardEntry{
		Points:      total,
		Description: fmt.Sprintf("Earned %d points from %s", total, strings.Join(earned, ", ")),
		Date:        time.Now().UTC(),
	}
	inc := storage.ProfileIncrements{
		Points:         total,
		LifetimePoints: total,
		Orders:         1,
		Spent:          orderTotal,
	}

	if err := a.profiles.ApplyProfileIncrements(ctx, customerID, inc, entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAccrualFailed, err)
	}

	a.log.Info("loyalty points accrued", "customer_id", customerID, "points", total)
	return &Result{Points: total, Awarded: true}, nil
}
