package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"orda-market/internal/middleware"
	"orda-market/internal/model"
	"orda-market/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	var req model.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.SubmitOrder(r.Context(), actor, &req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order, h.logger)
}

// List handles GET /api/orders requests. Staff see every order,
// customers only their own.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orders, err := h.service.ListOrders(r.Context(), actor)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders, h.logger)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), actor, orderID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}

// Update handles PATCH /api/orders/{id} requests.
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.OrderUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.UpdateOrder(r.Context(), actor, orderID, &req)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}

// ChangeStatus handles PATCH /api/orders/{id}/change-status requests.
func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req model.StatusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	order, err := h.service.ChangeStatus(r.Context(), actor, orderID, req.Status)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}

// History handles GET /api/orders/{id}/history requests.
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	records, err := h.service.ListOrderHistory(r.Context(), actor, orderID)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, records, h.logger)
}

// HistoryAll handles GET /api/orders/history requests. Staff see every
// record, customers only records of their own orders.
func (h *OrderHandler) HistoryAll(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())

	records, err := h.service.ListHistory(r.Context(), actor)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, records, h.logger)
}

// orderID extracts the order ID path segment from /api/orders/{id}[/...],
// writing the error response itself when the segment is missing or
// malformed.
func (h *OrderHandler) orderID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}

	if rest == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "order ID is required", h.logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(rest)
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}

	return orderID, true
}
