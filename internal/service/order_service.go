package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"orda-market/internal/model"
	"orda-market/internal/ordernum"
	"orda-market/internal/policy"
	"orda-market/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fieldStatus and fieldDeliveryAddress are the tracked field names
// written into change history records.
const (
	fieldStatus          = "status"
	fieldDeliveryAddress = "delivery_address"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// SubmitOrder creates a new order owned by the actor. The order, its
// items and the computed total commit as one transaction; the order
// number retries until an unclaimed one is found.
func (s *orderService) SubmitOrder(ctx context.Context, actor *model.User, req *model.OrderRequest) (*model.OrderResponse, error) {
	if actor == nil {
		return nil, model.ErrForbidden
	}

	if err := validateAddress(req.DeliveryAddress); err != nil {
		return nil, err
	}

	items, err := validateItems(req.Items)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.ValidateProductsExist(ctx, productIDs(req.Items)); err != nil {
		s.logger.Warn().
			Int("product_count", len(req.Items)).
			Err(err).
			Msg("product validation failed")
		return nil, err
	}

	now := time.Now()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          actor.ID,
		Status:          model.StatusPending,
		TotalPrice:      model.TotalPrice(items),
		DeliveryAddress: strings.TrimSpace(req.DeliveryAddress),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for i := range items {
		items[i].OrderID = order.ID
	}

	// The unique constraint on order_number arbitrates concurrent
	// creations; loop until an insert wins. The 36^6 space makes more
	// than a handful of retries vanishingly unlikely, but the loop is
	// deliberately unbounded.
	for {
		order.OrderNumber, err = ordernum.Generate()
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to generate order number")
			return nil, fmt.Errorf("failed to create order: %w", err)
		}

		err = s.createOrderTx(ctx, order, items)
		if errors.Is(err, repository.ErrOrderNumberConflict) {
			s.logger.Debug().
				Str("order_number", order.OrderNumber).
				Msg("order number taken, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Str("total_price", order.TotalPrice.StringFixed(2)).
		Int("item_count", len(items)).
		Msg("order submitted")

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// createOrderTx inserts the order and its items atomically.
func (s *orderService) createOrderTx(ctx context.Context, order *model.Order, items []model.OrderItem) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		if errors.Is(err, repository.ErrOrderNumberConflict) {
			return err
		}
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order with items and change history.
func (s *orderService) GetByID(ctx context.Context, actor *model.User, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanView(actor, order) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actorID(actor)).
			Msg("order view denied")
		return nil, model.ErrForbidden
	}

	if err := s.attachProductNames(ctx, items); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to resolve product names")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	history, err := s.orderRepo.ListHistoryByOrder(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to load change history")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return &model.OrderResponse{Order: *order, Items: items, History: history}, nil
}

// UpdateOrder applies a partial update to a mutable order. Item
// replacement is wholesale: existing items are discarded and the new set
// inserted, with the total recomputed, in one transaction.
func (s *orderService) UpdateOrder(ctx context.Context, actor *model.User, id uuid.UUID, req *model.OrderUpdateRequest) (resp *model.OrderResponse, err error) {
	order, items, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanMutate(actor, order) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actorID(actor)).
			Msg("order update denied")
		return nil, model.ErrForbidden
	}

	if order.Status == model.StatusCompleted {
		return nil, model.ErrOrderImmutable
	}

	var newAddress string
	if req.DeliveryAddress != nil {
		if err := validateAddress(*req.DeliveryAddress); err != nil {
			return nil, err
		}
		newAddress = strings.TrimSpace(*req.DeliveryAddress)
	}

	var newItems []model.OrderItem
	if req.Items != nil {
		newItems, err = validateItems(*req.Items)
		if err != nil {
			return nil, err
		}
		if err := s.productRepo.ValidateProductsExist(ctx, productIDs(*req.Items)); err != nil {
			return nil, err
		}
		for i := range newItems {
			newItems[i].OrderID = order.ID
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if req.DeliveryAddress != nil && newAddress != order.DeliveryAddress {
		record := newHistoryRecord(order.ID, actor.ID, fieldDeliveryAddress, order.DeliveryAddress, newAddress)
		if err = s.orderRepo.InsertChangeHistory(ctx, tx, record); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		order.DeliveryAddress = newAddress
	}

	if req.Items != nil {
		if err = s.orderRepo.DeleteOrderItems(ctx, tx, order.ID); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		if err = s.orderRepo.CreateOrderItems(ctx, tx, newItems); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
		order.TotalPrice = model.TotalPrice(newItems)
		items = newItems
	}

	order.UpdatedAt = time.Now()
	if err = s.orderRepo.UpdateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("total_price", order.TotalPrice.StringFixed(2)).
		Msg("order updated")

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// ChangeStatus moves an order to a new lifecycle state. The status write
// and the history append commit together; a status change without its
// audit record must never be observable.
func (s *orderService) ChangeStatus(ctx context.Context, actor *model.User, id uuid.UUID, newStatus string) (resp *model.OrderResponse, err error) {
	order, items, err := s.loadOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if !policy.CanChangeStatus(actor) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("actor_id", actorID(actor)).
			Msg("status change denied")
		return nil, model.ErrForbidden
	}

	status := model.OrderStatus(newStatus)
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	if order.Status.Terminal() {
		return nil, model.ErrOrderImmutable
	}

	oldStatus := order.Status

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to change order status: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order.Status = status
	order.UpdatedAt = time.Now()
	if err = s.orderRepo.UpdateOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to change order status: %w", err)
	}

	record := newHistoryRecord(order.ID, actor.ID, fieldStatus, string(oldStatus), string(status))
	if err = s.orderRepo.InsertChangeHistory(ctx, tx, record); err != nil {
		return nil, fmt.Errorf("failed to change order status: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to change order status: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("old_status", string(oldStatus)).
		Str("new_status", string(status)).
		Str("changed_by", actor.ID.String()).
		Msg("order status changed")

	return &model.OrderResponse{Order: *order, Items: items}, nil
}

// ListOrders returns all orders for staff, or the actor's own orders.
func (s *orderService) ListOrders(ctx context.Context, actor *model.User) ([]model.Order, error) {
	if actor == nil {
		return nil, model.ErrForbidden
	}

	var (
		orders []model.Order
		err    error
	)
	if policy.IsStaff(actor) {
		orders, err = s.orderRepo.List(ctx)
	} else {
		orders, err = s.orderRepo.ListByUser(ctx, actor.ID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("actor_id", actor.ID.String()).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// ListHistory returns all change history visible to the actor.
func (s *orderService) ListHistory(ctx context.Context, actor *model.User) ([]model.OrderChangeHistory, error) {
	if actor == nil {
		return nil, model.ErrForbidden
	}

	var (
		records []model.OrderChangeHistory
		err     error
	)
	if policy.IsStaff(actor) {
		records, err = s.orderRepo.ListHistory(ctx)
	} else {
		records, err = s.orderRepo.ListHistoryByOwner(ctx, actor.ID)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("actor_id", actor.ID.String()).Msg("failed to list change history")
		return nil, fmt.Errorf("failed to list change history: %w", err)
	}

	return records, nil
}

// ListOrderHistory returns the change history of one order.
func (s *orderService) ListOrderHistory(ctx context.Context, actor *model.User, orderID uuid.UUID) ([]model.OrderChangeHistory, error) {
	order, _, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !policy.CanView(actor, order) {
		return nil, model.ErrForbidden
	}

	records, err := s.orderRepo.ListHistoryByOrder(ctx, orderID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to list change history")
		return nil, fmt.Errorf("failed to list change history: %w", err)
	}

	return records, nil
}

// attachProductNames fills in the display name of each item's product
// from the catalogue. Items referencing since-deleted products keep an
// empty name.
func (s *orderService) attachProductNames(ctx context.Context, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return err
	}

	names := make(map[uuid.UUID]string, len(products))
	for _, product := range products {
		names[product.ID] = product.Name
	}
	for i := range items {
		items[i].ProductName = names[items[i].ProductID]
	}

	return nil
}

// loadOrder fetches an order and its items, mapping absence to ErrOrderNotFound.
func (s *orderService) loadOrder(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, nil, model.ErrOrderNotFound
	}

	return order, items, nil
}

// validateAddress rejects empty delivery addresses.
func validateAddress(address string) error {
	if strings.TrimSpace(address) == "" {
		return model.ErrEmptyAddress
	}
	return nil
}

// validateItems checks quantities and prices and converts the request
// items into order items with fresh IDs. The order ID is filled in by
// the caller once known.
func validateItems(reqItems []model.OrderItemRequest) ([]model.OrderItem, error) {
	if len(reqItems) == 0 {
		return nil, model.ErrNoItems
	}

	items := make([]model.OrderItem, len(reqItems))
	for i, item := range reqItems {
		if item.Quantity <= 0 {
			return nil, model.ErrInvalidQuantity
		}
		if !item.Price.IsPositive() {
			return nil, model.ErrInvalidPrice
		}
		// Prices persist in numeric(10,2) columns. Sub-cent precision
		// would round the stored item and the stored total independently,
		// letting them drift apart.
		if item.Price.Exponent() < -2 {
			return nil, model.ErrPriceScale
		}
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
	}

	return items, nil
}

// productIDs extracts the referenced product IDs from request items.
func productIDs(reqItems []model.OrderItemRequest) []uuid.UUID {
	ids := make([]uuid.UUID, len(reqItems))
	for i, item := range reqItems {
		ids[i] = item.ProductID
	}
	return ids
}

// newHistoryRecord builds an append-only audit record.
func newHistoryRecord(orderID, actorID uuid.UUID, field, oldValue, newValue string) *model.OrderChangeHistory {
	return &model.OrderChangeHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		ChangedBy: actorID,
		FieldName: field,
		OldValue:  oldValue,
		NewValue:  newValue,
		ChangedAt: time.Now(),
	}
}

// actorID formats an actor ID for logging, tolerating nil actors.
func actorID(actor *model.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID.String()
}
