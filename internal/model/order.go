package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCanceled  OrderStatus = "canceled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether s permits no further status transitions.
func (s OrderStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCanceled
}

// Order represents a customer order.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	UserID          uuid.UUID       `json:"userId" db:"user_id"`
	OrderNumber     string          `json:"orderNumber" db:"order_number"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalPrice      decimal.Decimal `json:"totalPrice" db:"total_price"`
	DeliveryAddress string          `json:"deliveryAddress" db:"delivery_address"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. Quantity and price are
// captured at order time and do not track later catalogue changes.
// ProductName is a display field resolved from the catalogue on reads;
// it is never persisted with the item.
type OrderItem struct {
	ID          uuid.UUID       `json:"-" db:"id"`
	OrderID     uuid.UUID       `json:"-" db:"order_id"`
	ProductID   uuid.UUID       `json:"productId" db:"product_id"`
	ProductName string          `json:"productName,omitempty" db:"-"`
	Quantity    int             `json:"quantity" db:"quantity"`
	Price       decimal.Decimal `json:"price" db:"price"`
}

// Subtotal returns quantity * price for the line item.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// TotalPrice computes the canonical order total from a set of line items.
func TotalPrice(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// OrderChangeHistory is a single append-only audit record for a tracked
// field transition on an order.
type OrderChangeHistory struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OrderID   uuid.UUID `json:"orderId" db:"order_id"`
	ChangedBy uuid.UUID `json:"changedBy" db:"changed_by"`
	FieldName string    `json:"fieldName" db:"field_name"`
	OldValue  string    `json:"oldValue" db:"old_value"`
	NewValue  string    `json:"newValue" db:"new_value"`
	ChangedAt time.Time `json:"changedAt" db:"changed_at"`
}

// OrderRequest represents the request payload for submitting an order.
type OrderRequest struct {
	DeliveryAddress string             `json:"deliveryAddress"`
	Items           []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderUpdateRequest represents a partial update to a mutable order.
// A nil field is left unchanged; a non-nil Items slice replaces the
// item set wholesale.
type OrderUpdateRequest struct {
	DeliveryAddress *string             `json:"deliveryAddress,omitempty"`
	Items           *[]OrderItemRequest `json:"items,omitempty"`
}

// StatusChangeRequest represents a staff request to move an order to a
// new lifecycle state.
type StatusChangeRequest struct {
	Status string `json:"status"`
}

// OrderResponse represents the response payload for a single order.
type OrderResponse struct {
	Order
	Items   []OrderItem          `json:"items"`
	History []OrderChangeHistory `json:"changeHistory,omitempty"`
}
