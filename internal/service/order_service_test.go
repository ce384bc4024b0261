package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sundroptea/teahouse-backend/internal/catalog"
	"github.com/sundroptea/teahouse-backend/internal/inventory"
	"github.com/sundroptea/teahouse-backend/internal/loyalty"
	"github.com/sundroptea/teahouse-backend/internal/models"
	"github.com/sundroptea/teahouse-backend/internal/storage"
	"github.com/sundroptea/teahouse-backend/pkg/logger"
)

func newTestService(store *storage.MemoryStore) *OrderService {
	log := logger.New("error")
	cat := catalog.NewInMemoryRepository()
	engine := inventory.NewEngine(cat, catalog.NewCostTable(), store, log)
	accruer := loyalty.NewAccruer(store, log)
	return NewOrderService(cat, store, store, engine, accruer, log)
}

func seededService() (*OrderService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	store.SeedIngredients(storage.DefaultIngredients()...)
	store.SeedProfiles(models.CustomerProfile{ID: "cust-1", Name: "Mei"})
	return newTestService(store), store
}

func TestOrderService_CreateOrder(t *testing.T) {
	tests := []struct {
		name    string
		req     models.OrderRequest
		wantErr error
	}{
		{
			name: "valid order with single item",
			req: models.OrderRequest{
				PaymentMethod: "card",
				Items: []models.OrderItemRequest{
					{ProductID: "1", Quantity: 2, Size: "Grande"},
				},
			},
			wantErr: nil,
		},
		{
			name: "valid order with multiple items",
			req: models.OrderRequest{
				PaymentMethod: "cash",
				Items: []models.OrderItemRequest{
					{ProductID: "1", Quantity: 1, Size: "Tall"},
					{ProductID: "5", Quantity: 3},
				},
			},
			wantErr: nil,
		},
		{
			name: "empty order",
			req: models.OrderRequest{
				Items: []models.OrderItemRequest{},
			},
			wantErr: ErrEmptyOrder,
		},
		{
			name: "invalid quantity - zero",
			req: models.OrderRequest{
				Items: []models.OrderItemRequest{
					{ProductID: "1", Quantity: 0},
				},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "invalid quantity - negative",
			req: models.OrderRequest{
				Items: []models.OrderItemRequest{
					{ProductID: "1", Quantity: -1},
				},
			},
			wantErr: ErrInvalidQuantity,
		},
		{
			name: "invalid product ID",
			req: models.OrderRequest{
				Items: []models.OrderItemRequest{
					{ProductID: "99999", Quantity: 1},
				},
			},
			wantErr: ErrInvalidProduct,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := seededService()
			order, err := svc.CreateOrder(context.Background(), tt.req)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("CreateOrder() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("CreateOrder() unexpected error = %v", err)
			}
			if order.ID == "" {
				t.Error("CreateOrder() order ID is empty")
			}
			if order.Number == "" {
				t.Error("CreateOrder() order number is empty")
			}
			if order.Status != models.StatusWaiting {
				t.Errorf("status = %s, want waiting", order.Status)
			}
			if !order.InventoryDeducted {
				t.Error("expected inventory to be deducted at creation")
			}
			if order.Subtotal <= 0 {
				t.Errorf("subtotal = %v, want > 0", order.Subtotal)
			}
			if len(order.Items) != len(tt.req.Items) {
				t.Errorf("items count = %d, want %d", len(order.Items), len(tt.req.Items))
			}
		})
	}
}

func TestCreateOrder_DeductsOnce(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, models.OrderRequest{
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	if store.LedgerWrites() != 1 {
		t.Errorf("ledger writes after creation = %d, want 1", store.LedgerWrites())
	}

	stock, _ := store.Stock(ctx, "cup-grande")
	if stock != 499 {
		t.Errorf("cup-grande stock = %v, want 499", stock)
	}
}

func TestCreateOrder_ToppingSurcharge(t *testing.T) {
	svc, _ := seededService()
	ctx := context.Background()

	// Pearl Milk Tea 5.50 + Tapioca Pearls 0.75
	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{
				ProductID: "1", Quantity: 2, Size: "Tall",
				Customization: &models.Customization{Toppings: []string{"Tapioca Pearls"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	if order.Items[0].UnitPrice != 6.25 {
		t.Errorf("unit price = %v, want 6.25", order.Items[0].UnitPrice)
	}
	if order.Subtotal != 12.50 {
		t.Errorf("subtotal = %v, want 12.50", order.Subtotal)
	}
}

func TestCreateOrder_SurvivesDeductionFailure(t *testing.T) {
	// An empty ledger makes every deduction fail; order creation must
	// still succeed with the flag left unset
	store := storage.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}
	if order.InventoryDeducted {
		t.Error("inventoryDeducted should stay false after a failed deduction")
	}

	stored, err := svc.GetOrder(ctx, order.ID)
	if err != nil {
		t.Fatalf("GetOrder() unexpected error = %v", err)
	}
	if stored.InventoryDeducted {
		t.Error("persisted inventoryDeducted should be false after claim release")
	}
	if stored.Status != models.StatusWaiting {
		t.Errorf("status = %s, want waiting", stored.Status)
	}
}

func TestTransition_Graph(t *testing.T) {
	tests := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		wantErr error
	}{
		{models.StatusWaiting, models.StatusPreparing, nil},
		{models.StatusWaiting, models.StatusCancelled, nil},
		{models.StatusWaiting, models.StatusReady, ErrInvalidTransition},
		{models.StatusWaiting, models.StatusCompleted, ErrInvalidTransition},
		{models.StatusPreparing, models.StatusReady, nil},
		{models.StatusPreparing, models.StatusCancelled, nil},
		{models.StatusPreparing, models.StatusCompleted, ErrInvalidTransition},
		{models.StatusPreparing, models.StatusWaiting, ErrInvalidTransition},
		{models.StatusReady, models.StatusCompleted, nil},
		{models.StatusReady, models.StatusCancelled, nil},
		{models.StatusReady, models.StatusPreparing, ErrInvalidTransition},
		{models.StatusCompleted, models.StatusCancelled, ErrInvalidTransition},
		{models.StatusCompleted, models.StatusReady, ErrInvalidTransition},
		{models.StatusCancelled, models.StatusPreparing, ErrInvalidTransition},
		{models.StatusCancelled, models.StatusCompleted, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			svc, store := seededService()
			ctx := context.Background()

			order := &models.Order{ID: "o1", Status: tt.from, InventoryDeducted: true}
			if err := store.Insert(ctx, order); err != nil {
				t.Fatalf("Insert() unexpected error = %v", err)
			}

			err := svc.Transition(ctx, "o1", tt.to)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transition(%s -> %s) error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
			}

			stored, _ := store.Get(ctx, "o1")
			if tt.wantErr != nil && stored.Status != tt.from {
				t.Errorf("status changed to %s on an invalid transition", stored.Status)
			}
			if tt.wantErr == nil && stored.Status != tt.to {
				t.Errorf("status = %s, want %s", stored.Status, tt.to)
			}
		})
	}
}

func TestTransition_OrderNotFound(t *testing.T) {
	svc, _ := seededService()

	err := svc.Transition(context.Background(), "missing", models.StatusPreparing)
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Transition() error = %v, want ErrOrderNotFound", err)
	}
}

func TestTransition_ReadyIsIdempotent(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	// Order already deducted (the default creation flow)
	order := &models.Order{
		ID:                "o1",
		Status:            models.StatusPreparing,
		InventoryDeducted: true,
		Items: []models.LineItem{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	}
	if err := store.Insert(ctx, order); err != nil {
		t.Fatalf("Insert() unexpected error = %v", err)
	}

	writesBefore := store.LedgerWrites()
	stockBefore, _ := store.Stock(ctx, "black-tea")

	if err := svc.Transition(ctx, "o1", models.StatusReady); err != nil {
		t.Fatalf("Transition() unexpected error = %v", err)
	}

	if store.LedgerWrites() != writesBefore {
		t.Errorf("ledger writes = %d, want %d (zero additional writes)", store.LedgerWrites(), writesBefore)
	}
	stockAfter, _ := store.Stock(ctx, "black-tea")
	if stockAfter != stockBefore {
		t.Errorf("stock moved from %v to %v on an already-deducted order", stockBefore, stockAfter)
	}

	stored, _ := store.Get(ctx, "o1")
	if stored.Status != models.StatusReady {
		t.Errorf("status = %s, want ready", stored.Status)
	}
	if !stored.InventoryDeducted {
		t.Error("inventoryDeducted flag must stay true")
	}
}

func TestTransition_ReadyDeductsWhenPending(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	order := &models.Order{
		ID:     "o1",
		Status: models.StatusPreparing,
		Items: []models.LineItem{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	}
	if err := store.Insert(ctx, order); err != nil {
		t.Fatalf("Insert() unexpected error = %v", err)
	}

	if err := svc.Transition(ctx, "o1", models.StatusReady); err != nil {
		t.Fatalf("Transition() unexpected error = %v", err)
	}

	if store.LedgerWrites() != 1 {
		t.Errorf("ledger writes = %d, want 1", store.LedgerWrites())
	}
	stock, _ := store.Stock(ctx, "black-tea")
	if stock != 19800 {
		t.Errorf("black-tea stock = %v, want 19800", stock)
	}

	stored, _ := store.Get(ctx, "o1")
	if !stored.InventoryDeducted {
		t.Error("expected inventoryDeducted = true")
	}
}

func TestTransition_DeductionFailureReleasesClaim(t *testing.T) {
	// No ingredients seeded: the atomic ledger write fails
	store := storage.NewMemoryStore()
	svc := newTestService(store)
	ctx := context.Background()

	order := &models.Order{
		ID:     "o1",
		Status: models.StatusPreparing,
		Items: []models.LineItem{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	}
	if err := store.Insert(ctx, order); err != nil {
		t.Fatalf("Insert() unexpected error = %v", err)
	}

	err := svc.Transition(ctx, "o1", models.StatusReady)
	if !errors.Is(err, inventory.ErrDeductionFailed) {
		t.Fatalf("Transition() error = %v, want ErrDeductionFailed", err)
	}

	stored, _ := store.Get(ctx, "o1")
	// The status change stands; the deduction flag must not
	if stored.Status != models.StatusReady {
		t.Errorf("status = %s, want ready (status change is committed)", stored.Status)
	}
	if stored.InventoryDeducted {
		t.Error("inventoryDeducted must be false after a failed ledger write")
	}
}

func TestTransition_CancelDoesNotRestock(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	stockAfterCreate, _ := store.Stock(ctx, "black-tea")
	writesAfterCreate := store.LedgerWrites()

	if err := svc.Transition(ctx, order.ID, models.StatusCancelled); err != nil {
		t.Fatalf("Transition() unexpected error = %v", err)
	}

	// Cancellation performs no ledger writes: deducted stock stays gone
	stockAfterCancel, _ := store.Stock(ctx, "black-tea")
	if stockAfterCancel != stockAfterCreate {
		t.Errorf("stock moved from %v to %v on cancellation", stockAfterCreate, stockAfterCancel)
	}
	if store.LedgerWrites() != writesAfterCreate {
		t.Errorf("ledger writes = %d, want %d", store.LedgerWrites(), writesAfterCreate)
	}

	stored, _ := store.Get(ctx, order.ID)
	if stored.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", stored.Status)
	}
}

func TestTransition_CompleteAccruesOnce(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		CustomerID:    "cust-1",
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 2, Size: "Grande"},
			{ProductID: "2", Quantity: 1, Size: "Venti"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	for _, status := range []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusCompleted} {
		if err := svc.Transition(ctx, order.ID, status); err != nil {
			t.Fatalf("Transition(%s) unexpected error = %v", status, err)
		}
	}

	stored, _ := store.Get(ctx, order.ID)
	if stored.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
	if stored.CompletedAt == nil {
		t.Error("expected completedAt to be set")
	}
	if !stored.LoyaltyAccrued {
		t.Error("expected loyaltyAccrued = true")
	}

	// Grande 4/unit x2 + Venti 5/unit x1 = 13
	profile, _ := store.Profile(ctx, "cust-1")
	if profile.Points != 13 {
		t.Errorf("points = %d, want 13", profile.Points)
	}
	if profile.TotalOrders != 1 {
		t.Errorf("total orders = %d, want 1", profile.TotalOrders)
	}
	if profile.TotalSpent != stored.Subtotal {
		t.Errorf("total spent = %v, want %v", profile.TotalSpent, stored.Subtotal)
	}
	if len(profile.RewardsHistory) != 1 {
		t.Fatalf("history entries = %d, want exactly 1", len(profile.RewardsHistory))
	}
	desc := profile.RewardsHistory[0].Description
	for _, name := range []string{"Pearl Milk Tea", "Jasmine Green Tea"} {
		if !strings.Contains(desc, name) {
			t.Errorf("history description %q missing %q", desc, name)
		}
	}

	// A retried completion is an illegal edge and must not double-award
	if err := svc.Transition(ctx, order.ID, models.StatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second completion error = %v, want ErrInvalidTransition", err)
	}
	profile, _ = store.Profile(ctx, "cust-1")
	if profile.Points != 13 {
		t.Errorf("points after retry = %d, want 13", profile.Points)
	}
}

func TestTransition_CompleteWalkInAccruesNothing(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		PaymentMethod: "cash",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	for _, status := range []models.OrderStatus{models.StatusPreparing, models.StatusReady, models.StatusCompleted} {
		if err := svc.Transition(ctx, order.ID, status); err != nil {
			t.Fatalf("Transition(%s) unexpected error = %v", status, err)
		}
	}

	profile, _ := store.Profile(ctx, "cust-1")
	if profile.Points != 0 || len(profile.RewardsHistory) != 0 {
		t.Errorf("walk-in order moved a customer profile: %+v", profile)
	}
}

func TestTransition_AccrualFailureIsNonFatal(t *testing.T) {
	svc, store := seededService()
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, models.OrderRequest{
		CustomerID:    "ghost", // no such profile
		PaymentMethod: "card",
		Items: []models.OrderItemRequest{
			{ProductID: "1", Quantity: 1, Size: "Grande"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() unexpected error = %v", err)
	}

	for _, status := range []models.OrderStatus{models.StatusPreparing, models.StatusReady} {
		if err := svc.Transition(ctx, order.ID, status); err != nil {
			t.Fatalf("Transition(%s) unexpected error = %v", status, err)
		}
	}

	// Accrual fails but the completion must still succeed
	if err := svc.Transition(ctx, order.ID, models.StatusCompleted); err != nil {
		t.Fatalf("Transition(completed) unexpected error = %v", err)
	}

	stored, _ := store.Get(ctx, order.ID)
	if stored.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", stored.Status)
	}
}

func TestCheckAvailability_Validation(t *testing.T) {
	svc, _ := seededService()
	ctx := context.Background()

	if _, err := svc.CheckAvailability(ctx, nil); !errors.Is(err, ErrEmptyOrder) {
		t.Errorf("CheckAvailability(nil) error = %v, want ErrEmptyOrder", err)
	}

	items := []models.OrderItemRequest{{ProductID: "1", Quantity: 0}}
	if _, err := svc.CheckAvailability(ctx, items); !errors.Is(err, ErrInvalidQuantity) {
		t.Errorf("CheckAvailability() error = %v, want ErrInvalidQuantity", err)
	}

	ok := []models.OrderItemRequest{{ProductID: "1", Quantity: 1, Size: "Tall"}}
	result, err := svc.CheckAvailability(ctx, ok)
	if err != nil {
		t.Fatalf("CheckAvailability() unexpected error = %v", err)
	}
	if !result.Available {
		t.Errorf("expected available = true, insufficient: %v", result.Insufficient)
	}
}
