package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sundroptea/teahouse-backend/internal/inventory"
	"github.com/sundroptea/teahouse-backend/internal/loyalty"
	"github.com/sundroptea/teahouse-backend/internal/models"
	"github.com/sundroptea/teahouse-backend/internal/storage"
)

var (
	ErrInvalidProduct    = errors.New("invalid product")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrEmptyOrder        = errors.New("order must contain at least one item")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// transitions is the order lifecycle graph. completed and cancelled are
// terminal; cancellation is reachable from every non-terminal state and
// never restores already-deducted stock.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusWaiting:   {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted: nil,
	models.StatusCancelled: nil,
}

func canTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ProductCatalog is the product lookup the order service needs
type ProductCatalog interface {
	GetByID(ctx context.Context, id string) (*models.Product, error)
}

// OrderService owns the order lifecycle: creation, status transitions,
// and the sequencing of inventory deduction and loyalty accrual.
// Double-deduction safety comes from the inventoryDeducted flag claimed
// with a single conditional write, not from in-process locking.
type OrderService struct {
	catalog ProductCatalog
	orders  storage.OrderStore
	ledger  storage.LedgerStore
	engine  *inventory.Engine
	loyalty *loyalty.Accruer
	log     *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(cat ProductCatalog, orders storage.OrderStore, ledger storage.LedgerStore, engine *inventory.Engine, accruer *loyalty.Accruer, log *slog.Logger) *OrderService {
	return &OrderService{
		catalog: cat,
		orders:  orders,
		ledger:  ledger,
		engine:  engine,
		loyalty: accruer,
		log:     log,
	}
}

// CreateOrder validates the request, persists the order and attempts
// the initial inventory deduction. A failed deduction never fails order
// creation: the order stands with inventoryDeducted false and is
// reconciled administratively (or deducted on the ready transition).
func (s *OrderService) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	items := make([]models.LineItem, 0, len(req.Items))
	subtotal := 0.0
	for _, reqItem := range req.Items {
		if reqItem.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		product, err := s.catalog.GetByID(ctx, reqItem.ProductID)
		if err != nil {
			return nil, ErrInvalidProduct
		}

		unitPrice := product.Price
		if reqItem.Customization != nil {
			for _, name := range reqItem.Customization.Toppings {
				topping, err := s.ledger.ToppingByName(ctx, name)
				if err != nil {
					continue
				}
				unitPrice += topping.Price
			}
		}

		items = append(items, models.LineItem{
			ProductID:     product.ID,
			ProductName:   product.Name,
			Quantity:      reqItem.Quantity,
			Size:          reqItem.Size,
			UnitPrice:     unitPrice,
			Customization: reqItem.Customization,
		})
		subtotal += unitPrice * float64(reqItem.Quantity)
	}

	now := time.Now().UTC()
	order := &models.Order{
		ID:            uuid.New().String(),
		Number:        generateOrderNumber(now),
		CustomerID:    req.CustomerID,
		Items:         items,
		Subtotal:      subtotal,
		PaymentMethod: req.PaymentMethod,
		Status:        models.StatusWaiting,
		CreatedAt:     now,
	}

	if err := s.orders.Insert(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	if err := s.claimAndDeduct(ctx, order, models.StatusWaiting); err != nil {
		s.log.Warn("initial inventory deduction failed, order accepted for reconciliation",
			"order_id", order.ID, "error", err)
	} else {
		order.InventoryDeducted = true
	}

	return order, nil
}

// Transition moves an order to targetStatus, running the side effects
// the target requires. The new status is persisted as a single update;
// illegal edges and unknown orders change nothing.
func (s *OrderService) Transition(ctx context.Context, orderID string, target models.OrderStatus) error {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return err
	}

	if !canTransition(order.Status, target) {
		return ErrInvalidTransition
	}

	switch target {
	case models.StatusPreparing, models.StatusCancelled:
		return s.orders.UpdateStatus(ctx, orderID, storage.StatusUpdate{Status: target})
	case models.StatusReady:
		return s.claimAndDeduct(ctx, order, target)
	case models.StatusCompleted:
		return s.complete(ctx, order)
	}
	return ErrInvalidTransition
}

// claimAndDeduct persists the target status and claims the
// inventoryDeducted flag in one conditional write, then applies the
// ledger decrements. Claiming before deducting is what closes the
// check-then-set race: two concurrent calls cannot both win the claim.
// If the ledger write fails the claim is released so a retry (or
// administrative reconciliation) can deduct later; the status change
// itself stands.
func (s *OrderService) claimAndDeduct(ctx context.Context, order *models.Order, target models.OrderStatus) error {
	upd := storage.StatusUpdate{Status: target, MarkInventoryDeducted: true}
	claimed, err := s.orders.UpdateStatusIf(ctx, order.ID, upd, storage.IfInventoryNotDeducted)
	if err != nil {
		return err
	}

	if !claimed {
		// Inventory already deducted: idempotent no-op, zero ledger
		// writes. Persist the status on its own if it changed.
		if target != order.Status {
			return s.orders.UpdateStatus(ctx, order.ID, storage.StatusUpdate{Status: target})
		}
		return nil
	}

	result, err := s.engine.Deduct(ctx, order.Items)
	if err != nil {
		if clearErr := s.orders.ClearInventoryDeducted(ctx, order.ID); clearErr != nil {
			s.log.Error("failed to release deduction claim", "order_id", order.ID, "error", clearErr)
		}
		return err
	}

	s.log.Info("inventory deducted", "order_id", order.ID,
		"decrements", len(result.Applied), "warnings", len(result.Warnings))
	return nil
}

// complete persists the completed status, the completion timestamp and
// the loyaltyAccrued claim in one conditional write, then accrues
// points. Accrual failures are logged, never rolled back into the
// status change; walk-in orders accrue nothing.
func (s *OrderService) complete(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	upd := storage.StatusUpdate{
		Status:             models.StatusCompleted,
		CompletedAt:        &now,
		MarkLoyaltyAccrued: true,
	}
	claimed, err := s.orders.UpdateStatusIf(ctx, order.ID, upd, storage.IfLoyaltyNotAccrued)
	if err != nil {
		return err
	}
	if !claimed {
		// A concurrent completion already accrued; just persist the
		// status without a second award.
		return s.orders.UpdateStatus(ctx, order.ID,
			storage.StatusUpdate{Status: models.StatusCompleted, CompletedAt: &now})
	}

	if order.CustomerID == "" {
		return nil
	}

	if _, err := s.loyalty.Accrue(ctx, order.CustomerID, order.Items, order.Subtotal); err != nil {
		s.log.Warn("loyalty accrual failed, order completed without points",
			"order_id", order.ID, "customer_id", order.CustomerID, "error", err)
	}
	return nil
}

// GetOrder returns an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, storage.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

// CheckAvailability runs a read-only pre-flight stock check over the
// requested items
func (s *OrderService) CheckAvailability(ctx context.Context, items []models.OrderItemRequest) (*inventory.AvailabilityResult, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}

	lineItems := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		lineItems = append(lineItems, models.LineItem{
			ProductID:     item.ProductID,
			Quantity:      item.Quantity,
			Size:          item.Size,
			Customization: item.Customization,
		})
	}
	return s.engine.CheckAvailability(ctx, lineItems)
}

// generateOrderNumber builds the human-facing order number: order date
// plus a random suffix
func generateOrderNumber(t time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:6])
	return fmt.Sprintf("%s-%s", t.Format("20060102"), suffix)
}
