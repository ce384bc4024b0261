package models

import "time"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	StatusWaiting   OrderStatus = "waiting"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition is defined out of s
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Customization holds the per-item drink customizations.
// A closed struct rather than an open map so missing-field handling
// stays exhaustive.
type Customization struct {
	SugarLevel string   `json:"sugarLevel,omitempty" bson:"sugarLevel,omitempty"`
	IceLevel   string   `json:"iceLevel,omitempty" bson:"iceLevel,omitempty"`
	Toppings   []string `json:"toppings,omitempty" bson:"toppings,omitempty"`
}

// LineItem is one product entry within an order.
// ProductName and UnitPrice are denormalized at placement time for
// receipts; line items are immutable once the order is placed.
type LineItem struct {
	ProductID     string         `json:"productId" bson:"productId"`
	ProductName   string         `json:"productName" bson:"productName"`
	Quantity      int            `json:"quantity" bson:"quantity"`
	Size          string         `json:"size,omitempty" bson:"size,omitempty"`
	UnitPrice     float64        `json:"unitPrice" bson:"unitPrice"`
	Customization *Customization `json:"customization,omitempty" bson:"customization,omitempty"`
}

// Order is a placed order. Status, InventoryDeducted, LoyaltyAccrued
// and CompletedAt are owned by the order state machine and must only
// change through its transition operations.
type Order struct {
	ID                string      `json:"id" bson:"_id"`
	Number            string      `json:"number" bson:"number"`
	CustomerID        string      `json:"customerId,omitempty" bson:"customerId,omitempty"`
	Items             []LineItem  `json:"items" bson:"items"`
	Subtotal          float64     `json:"subtotal" bson:"subtotal"`
	PaymentMethod     string      `json:"paymentMethod" bson:"paymentMethod"`
	Status            OrderStatus `json:"status" bson:"status"`
	InventoryDeducted bool        `json:"inventoryDeducted" bson:"inventoryDeducted"`
	LoyaltyAccrued    bool        `json:"loyaltyAccrued" bson:"loyaltyAccrued"`
	CreatedAt         time.Time   `json:"createdAt" bson:"createdAt"`
	CompletedAt       *time.Time  `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
}

// OrderItemRequest is a single requested item in an incoming order
type OrderItemRequest struct {
	ProductID     string         `json:"productId"`
	Quantity      int            `json:"quantity"`
	Size          string         `json:"size,omitempty"`
	Customization *Customization `json:"customization,omitempty"`
}

// OrderRequest represents an incoming order request
type OrderRequest struct {
	CustomerID    string             `json:"customerId,omitempty"`
	PaymentMethod string             `json:"paymentMethod"`
	Items         []OrderItemRequest `json:"items"`
}
