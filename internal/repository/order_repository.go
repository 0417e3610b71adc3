package repository

import (
	"context"
	"errors"
	"fmt"

	"orda-market/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// ErrOrderNumberConflict is returned when an insert loses the race for
// an order number. The service retries with a fresh candidate.
var ErrOrderNumberConflict = errors.New("order number already exists")

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, user_id, order_number, status, total_price, delivery_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		order.ID,
		order.UserID,
		order.OrderNumber,
		order.Status,
		order.TotalPrice,
		order.DeliveryAddress,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == "orders_order_number_key" {
			r.logger.Debug().
				Str("order_number", order.OrderNumber).
				Msg("order number collision, caller will retry")
			return ErrOrderNumberConflict
		}
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("order created")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created")

	return nil
}

// DeleteOrderItems removes every item attached to the order within the
// provided transaction.
func (r *orderRepository) DeleteOrderItems(ctx context.Context, tx pgx.Tx, orderID uuid.UUID) error {
	query := `DELETE FROM order_items WHERE order_id = $1`

	tag, err := tx.Exec(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to delete order items")
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	r.logger.Debug().
		Str("order_id", orderID.String()).
		Int64("count", tag.RowsAffected()).
		Msg("order items deleted")

	return nil
}

// UpdateOrder writes the order's mutable fields within the provided transaction.
func (r *orderRepository) UpdateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, total_price = $3, delivery_address = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query,
		order.ID,
		order.Status,
		order.TotalPrice,
		order.DeliveryAddress,
		order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s not found for update", order.ID)
	}

	return nil
}

// InsertChangeHistory appends an audit record within the provided transaction.
func (r *orderRepository) InsertChangeHistory(ctx context.Context, tx pgx.Tx, record *model.OrderChangeHistory) error {
	query := `
		INSERT INTO order_change_history (id, order_id, changed_by, field_name, old_value, new_value, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tx.Exec(ctx, query,
		record.ID,
		record.OrderID,
		record.ChangedBy,
		record.FieldName,
		record.OldValue,
		record.NewValue,
		record.ChangedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", record.OrderID.String()).
			Str("field_name", record.FieldName).
			Msg("failed to insert change history record")
		return fmt.Errorf("failed to insert change history record: %w", err)
	}

	r.logger.Debug().
		Str("order_id", record.OrderID.String()).
		Str("field_name", record.FieldName).
		Msg("change history record appended")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT id, user_id, order_number, status, total_price, delivery_address, created_at, updated_at
		FROM orders
		WHERE id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(
		&order.ID,
		&order.UserID,
		&order.OrderNumber,
		&order.Status,
		&order.TotalPrice,
		&order.DeliveryAddress,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.Price)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// List retrieves all orders, most recent first.
func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	query := `
		SELECT id, user_id, order_number, status, total_price, delivery_address, created_at, updated_at
		FROM orders
		ORDER BY created_at DESC
	`

	return r.queryOrders(ctx, query)
}

// ListByUser retrieves the orders owned by the given user, most recent first.
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	query := `
		SELECT id, user_id, order_number, status, total_price, delivery_address, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	return r.queryOrders(ctx, query, userID)
}

// queryOrders runs an order query and scans the result set.
func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.OrderNumber,
			&order.Status,
			&order.TotalPrice,
			&order.DeliveryAddress,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// ListHistoryByOrder retrieves the change history for one order, most recent first.
func (r *orderRepository) ListHistoryByOrder(ctx context.Context, orderID uuid.UUID) ([]model.OrderChangeHistory, error) {
	query := `
		SELECT id, order_id, changed_by, field_name, old_value, new_value, changed_at
		FROM order_change_history
		WHERE order_id = $1
		ORDER BY changed_at DESC
	`

	return r.queryHistory(ctx, query, orderID)
}

// ListHistory retrieves all change history records, most recent first.
func (r *orderRepository) ListHistory(ctx context.Context) ([]model.OrderChangeHistory, error) {
	query := `
		SELECT id, order_id, changed_by, field_name, old_value, new_value, changed_at
		FROM order_change_history
		ORDER BY changed_at DESC
	`

	return r.queryHistory(ctx, query)
}

// ListHistoryByOwner retrieves change history for every order owned by
// the given user, most recent first.
func (r *orderRepository) ListHistoryByOwner(ctx context.Context, userID uuid.UUID) ([]model.OrderChangeHistory, error) {
	query := `
		SELECT h.id, h.order_id, h.changed_by, h.field_name, h.old_value, h.new_value, h.changed_at
		FROM order_change_history h
		JOIN orders o ON o.id = h.order_id
		WHERE o.user_id = $1
		ORDER BY h.changed_at DESC
	`

	return r.queryHistory(ctx, query, userID)
}

// queryHistory runs a change history query and scans the result set.
func (r *orderRepository) queryHistory(ctx context.Context, query string, args ...any) ([]model.OrderChangeHistory, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query change history")
		return nil, fmt.Errorf("failed to query change history: %w", err)
	}
	defer rows.Close()

	var records []model.OrderChangeHistory
	for rows.Next() {
		var record model.OrderChangeHistory
		err := rows.Scan(
			&record.ID,
			&record.OrderID,
			&record.ChangedBy,
			&record.FieldName,
			&record.OldValue,
			&record.NewValue,
			&record.ChangedAt,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan change history row")
			return nil, fmt.Errorf("failed to scan change history record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating change history rows")
		return nil, fmt.Errorf("error iterating change history: %w", err)
	}

	return records, nil
}
