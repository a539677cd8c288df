package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/mykafka"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/transport"
)

const (
	ShippingCost = 20.0
	TaxRate      = 0.1
)

// Money stays float64 end to end: line prices, subtotal accumulation and
// the tax computation all share the same arithmetic, so
// total == subtotal + shipping + tax holds exactly.

type OrderService struct {
	Repo     *repo.GormRepo
	Producer *mykafka.Producer
}

type stockAction int

const (
	stockNone stockAction = iota
	stockRestore
	stockRedebit
)

var orderStatuses = []models.OrderStatus{
	models.OrderStatusPending,
	models.OrderStatusProcessing,
	models.OrderStatusShipped,
	models.OrderStatusDelivered,
	models.OrderStatusCancelled,
}

type statusPair struct {
	from, to models.OrderStatus
}

// transitionTable maps every (from, to) pair to its stock side effect.
// Only the cancelled edges move stock: entering cancelled returns the
// order's claim, leaving cancelled re-debits it. Everything else is
// stock-neutral.
var transitionTable = func() map[statusPair]stockAction {
	t := make(map[statusPair]stockAction, len(orderStatuses)*len(orderStatuses))
	for _, from := range orderStatuses {
		for _, to := range orderStatuses {
			action := stockNone
			switch {
			case from != models.OrderStatusCancelled && to == models.OrderStatusCancelled:
				action = stockRestore
			case from == models.OrderStatusCancelled && to != models.OrderStatusCancelled:
				action = stockRedebit
			}
			t[statusPair{from, to}] = action
		}
	}
	return t
}()

func ValidOrderStatus(s models.OrderStatus) bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s *OrderService) CreateOrder(ctx context.Context, req transport.CreateOrderRequest, userID uuid.UUID) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: order items are required", ErrValidation)
	}
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].Product.IsZero() {
			return nil, fmt.Errorf("%w: product reference is required", ErrValidation)
		}
		if req.Items[i].Quantity < 1 {
			return nil, fmt.Errorf("%w: quantity must be >= 1", ErrValidation)
		}
	}

	var order *models.Order

	// Every line's debit happens inside one transaction; a failed line
	// rolls back the decrements applied for earlier lines.
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var subtotal float64
		items := make([]models.OrderItem, 0, len(req.Items))

		for _, line := range req.Items {
			product, err := tx.ResolveProduct(ctx, line.Product)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %s", ErrNotFound, line.Product)
				}
				return err
			}

			ok, err := tx.DebitStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w for %q", ErrInsufficientStock, product.Title)
			}

			unitPrice := product.FinalPrice()
			subtotal += unitPrice * float64(line.Quantity)
			items = append(items, models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitPrice: unitPrice,
			})
		}

		tax := subtotal * TaxRate
		order = &models.Order{
			UserID:          userID,
			Items:           items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			Subtotal:        subtotal,
			Shipping:        ShippingCost,
			Tax:             tax,
			Total:           subtotal + ShippingCost + tax,
			Status:          models.OrderStatusPending,
		}
		return tx.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.Producer, "order_events", order.ID.String(), map[string]any{
		"type":     "order_created",
		"order_id": order.ID,
		"user_id":  userID,
		"total":    order.Total,
	})

	return s.Repo.GetOrder(ctx, order.ID)
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID, requester *models.User) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}

	if order.UserID != requester.ID && !requester.IsAdmin() {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}

	return order, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, f repo.OrderFilter) (int64, []models.Order, error) {
	if f.Status != "" && !ValidOrderStatus(f.Status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	return s.Repo.ListOrders(ctx, f)
}

// UpdateStatus transitions the order and applies the stock action the
// transition table assigns to the (from, to) edge.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !ValidOrderStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	var previous models.OrderStatus

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return err
		}
		previous = order.Status

		switch transitionTable[statusPair{order.Status, status}] {
		case stockRestore:
			for _, item := range order.Items {
				if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		case stockRedebit:
			for _, item := range order.Items {
				ok, err := tx.DebitStock(ctx, item.ProductID, item.Quantity)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w for %q", ErrInsufficientStock, itemTitle(item))
				}
			}
		}

		return tx.UpdateOrderStatus(ctx, id, status)
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.Producer, "order_events", id.String(), map[string]any{
		"type":     "order_status_changed",
		"order_id": id,
		"from":     previous,
		"to":       status,
	})

	return s.Repo.GetOrder(ctx, id)
}

// DeleteOrder removes the order permanently, returning its stock claim
// first unless cancellation already did.
func (s *OrderService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, id)
			}
			return err
		}

		if order.Status != models.OrderStatusCancelled {
			for _, item := range order.Items {
				if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}

		return tx.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	publishEvent(ctx, s.Producer, "order_events", id.String(), map[string]any{
		"type":     "order_deleted",
		"order_id": id,
	})

	return nil
}

func itemTitle(item models.OrderItem) string {
	if item.Product != nil {
		return item.Product.Title
	}
	return item.ProductID.String()
}
