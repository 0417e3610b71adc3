package service

import (
	"context"

	"orda-market/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for catalogue reads.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// OrderService defines the state-changing and read operations on orders.
// It is the only component with write authority over orders, items and
// change history.
type OrderService interface {
	// SubmitOrder creates a new order owned by the actor.
	SubmitOrder(ctx context.Context, actor *model.User, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order with items and change history, subject
	// to the owner-or-staff visibility rule.
	GetByID(ctx context.Context, actor *model.User, id uuid.UUID) (*model.OrderResponse, error)

	// UpdateOrder applies a partial update (delivery address and/or a
	// wholesale item replacement) to a mutable order.
	UpdateOrder(ctx context.Context, actor *model.User, id uuid.UUID, req *model.OrderUpdateRequest) (*model.OrderResponse, error)

	// ChangeStatus moves an order to a new lifecycle state and appends
	// the audit record in the same transaction. Staff only.
	ChangeStatus(ctx context.Context, actor *model.User, id uuid.UUID, newStatus string) (*model.OrderResponse, error)

	// ListOrders returns all orders for staff, or the actor's own orders.
	ListOrders(ctx context.Context, actor *model.User) ([]model.Order, error)

	// ListHistory returns all change history visible to the actor.
	ListHistory(ctx context.Context, actor *model.User) ([]model.OrderChangeHistory, error)

	// ListOrderHistory returns the change history of one order, subject
	// to the owner-or-staff visibility rule.
	ListOrderHistory(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]model.OrderChangeHistory, error)
}
