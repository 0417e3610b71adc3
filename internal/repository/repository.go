package repository

import (
	"context"

	"orda-market/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserRepository defines the interface for user and actor data access.
type UserRepository interface {
	// GetByToken resolves an auth token to a user with the capability
	// set derived from their roles. Returns nil if the token is unknown.
	GetByToken(ctx context.Context, token string) (*model.User, error)

	// GetByID retrieves a user by ID, including capabilities.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// ValidateProductsExist checks if all provided product IDs exist in
	// the database. Returns error if any product ID does not exist.
	ValidateProductsExist(ctx context.Context, ids []uuid.UUID) error

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// Count returns the number of products in the catalogue.
	Count(ctx context.Context) (int, error)
}

// OrderRepository defines the interface for order data access operations.
// Write operations that must commit atomically with other writes take a
// pgx.Tx; the order service owns the transaction boundary.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	// Returns ErrOrderNumberConflict if the order number is already taken.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// DeleteOrderItems removes every item attached to the order within
	// the provided transaction. Used for wholesale item replacement.
	DeleteOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error

	// UpdateOrder writes the order's mutable fields (status, total,
	// delivery address, updated_at) within the provided transaction.
	UpdateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// InsertChangeHistory appends an audit record within the provided
	// transaction. Records are never updated or deleted.
	InsertChangeHistory(ctx context.Context, tx pgx.Tx, record *model.OrderChangeHistory) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// List retrieves all orders, most recent first.
	List(ctx context.Context) ([]model.Order, error)

	// ListByUser retrieves the orders owned by the given user, most recent first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error)

	// ListHistoryByOrder retrieves the change history for one order,
	// most recent first.
	ListHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderChangeHistory, error)

	// ListHistory retrieves all change history records, most recent first.
	ListHistory(ctx context.Context) ([]model.OrderChangeHistory, error)

	// ListHistoryByOwner retrieves change history for every order owned
	// by the given user, most recent first.
	ListHistoryByOwner(ctx context.Context, userID uuid.UUID) ([]model.OrderChangeHistory, error)
}
