package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sundroptea/teahouse-backend/internal/inventory"
	"github.com/sundroptea/teahouse-backend/internal/models"
	"github.com/sundroptea/teahouse-backend/internal/service"
)

// OrderHandler handles order-related HTTP requests
type OrderHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *service.OrderService, log *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		log:          log,
	}
}

// CreateOrder handles POST /api/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error("failed to decode order request", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), req)
	if err != nil {
		h.log.Error("failed to create order", "error", err)

		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			WriteError(w, http.StatusBadRequest, "Order must contain at least one item", h.log)
		case errors.Is(err, service.ErrInvalidQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity must be positive", h.log)
		case errors.Is(err, service.ErrInvalidProduct):
			WriteError(w, http.StatusBadRequest, "Invalid product", h.log)
		default:
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
	h.log.Info("order created successfully", "order_id", order.ID,
		"order_number", order.Number, "items_count", len(order.Items))
}

// GetOrder handles GET /api/order/{orderId}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		WriteError(w, http.StatusBadRequest, "Invalid order ID", h.log)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
			return
		}
		h.log.Error("failed to get order", "order_id", orderID, "error", err)
		WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		return
	}

	WriteJSON(w, http.StatusOK, order, h.log)
}

// transitionRequest is the body of a status transition request
type transitionRequest struct {
	Status models.OrderStatus `json:"status"`
}

// TransitionStatus handles POST /api/order/{orderId}/status
func (h *OrderHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	if orderID == "" {
		WriteError(w, http.StatusBadRequest, "Invalid order ID", h.log)
		return
	}

	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}
	if !req.Status.Valid() {
		WriteError(w, http.StatusBadRequest, "Unknown order status", h.log)
		return
	}

	err := h.orderService.Transition(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			WriteError(w, http.StatusNotFound, "Order not found", h.log)
		case errors.Is(err, service.ErrInvalidTransition):
			WriteError(w, http.StatusConflict, "Invalid status transition", h.log)
		case errors.Is(err, inventory.ErrDeductionFailed):
			// The status change is already committed; only the stock
			// deduction needs administrative reconciliation.
			h.log.Error("inventory deduction failed during transition", "order_id", orderID, "error", err)
			WriteError(w, http.StatusInternalServerError,
				"Inventory deduction failed; order status was updated", h.log)
		default:
			h.log.Error("failed to transition order", "order_id", orderID, "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": string(req.Status)}, h.log)
	h.log.Info("order status updated", "order_id", orderID, "status", req.Status)
}

// availabilityRequest is the body of a pre-flight stock check
type availabilityRequest struct {
	Items []models.OrderItemRequest `json:"items"`
}

// CheckAvailability handles POST /api/order/availability
func (h *OrderHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	result, err := h.orderService.CheckAvailability(r.Context(), req.Items)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			WriteError(w, http.StatusBadRequest, "Order must contain at least one item", h.log)
		case errors.Is(err, service.ErrInvalidQuantity):
			WriteError(w, http.StatusBadRequest, "Quantity must be positive", h.log)
		default:
			h.log.Error("availability check failed", "error", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error", h.log)
		}
		return
	}

	WriteJSON(w, http.StatusOK, result, h.log)
}
