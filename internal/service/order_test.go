package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitestore/backend/internal/models"
	"github.com/elitestore/backend/internal/repo"
	"github.com/elitestore/backend/internal/transport"
)

func newOrderEnv(t *testing.T) (*OrderService, *repo.GormRepo) {
	t.Helper()
	r := newTestRepo(t)
	return &OrderService{Repo: r}, r
}

func orderRequest(items ...transport.CreateOrderItem) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		Items: items,
		ShippingAddress: models.Address{
			Street:  "1 Main St",
			City:    "Springfield",
			Country: "US",
			ZipCode: "12345",
		},
		PaymentMethod: "card",
	}
}

func TestCreateOrder_TotalsAndStock(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Headphones", 100, 10, 10)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 3,
	}), user.ID)
	require.NoError(t, err)

	// unit price is the discounted price, frozen on the line
	require.Len(t, order.Items, 1)
	assert.Equal(t, 90.0, order.Items[0].UnitPrice)
	assert.EqualValues(t, 3, order.Items[0].Quantity)

	assert.Equal(t, 270.0, order.Subtotal)
	assert.Equal(t, ShippingCost, order.Shipping)
	assert.Equal(t, 27.0, order.Tax)
	assert.Equal(t, order.Subtotal+order.Shipping+order.Tax, order.Total)
	assert.Equal(t, models.OrderStatusPending, order.Status)

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.Stock)
}

func TestCreateOrder_LegacyProductRef(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Books")
	product := seedProduct(t, r, category, "Novel", 15, 0, 5)
	legacy := int64(42)
	product.LegacyID = &legacy
	require.NoError(t, r.SaveProduct(ctx, product))

	user := seedUser(t, r, "reader@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{LegacyID: 42, Legacy: true},
		Quantity: 2,
	}), user.ID)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, product.ID, order.Items[0].ProductID)

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, got.Stock)
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Camera", 500, 0, 10)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	_, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 11,
	}), user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Camera")

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.Stock)
}

func TestCreateOrder_FailedLineRollsBackEarlierDebits(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	first := seedProduct(t, r, category, "Keyboard", 50, 0, 10)
	second := seedProduct(t, r, category, "Mouse", 25, 0, 1)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	_, err := svc.CreateOrder(ctx, orderRequest(
		transport.CreateOrderItem{Product: transport.ProductRef{ID: first.ID}, Quantity: 4},
		transport.CreateOrderItem{Product: transport.ProductRef{ID: second.ID}, Quantity: 2},
	), user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := r.GetProduct(ctx, first.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, got.Stock, "first line's debit must roll back")

	got, err = r.GetProduct(ctx, second.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Stock)
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	_, err := svc.CreateOrder(context.Background(), orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: uuid.New()},
		Quantity: 1,
	}), user.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateOrder_Validation(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")
	ctx := context.Background()

	tests := []struct {
		name string
		req  transport.CreateOrderRequest
	}{
		{name: "no items", req: orderRequest()},
		{
			name: "zero quantity",
			req: orderRequest(transport.CreateOrderItem{
				Product:  transport.ProductRef{ID: uuid.New()},
				Quantity: 0,
			}),
		},
		{
			name: "missing product reference",
			req:  orderRequest(transport.CreateOrderItem{Quantity: 1}),
		},
		{
			name: "missing payment method",
			req: transport.CreateOrderRequest{
				Items: []transport.CreateOrderItem{
					{Product: transport.ProductRef{ID: uuid.New()}, Quantity: 1},
				},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.CreateOrder(ctx, tt.req, user.ID)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUpdateStatus_CancelRestoresAndUncancelRedebits(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Monitor", 200, 0, 10)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 4,
	}), user.ID)
	require.NoError(t, err)

	stockAfter := func() int64 {
		got, err := r.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		return got.Stock
	}
	require.EqualValues(t, 6, stockAfter())

	order, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, order.Status)
	assert.EqualValues(t, 10, stockAfter(), "cancelling returns the claim")

	order, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.EqualValues(t, 6, stockAfter(), "leaving cancelled re-debits the claim")
}

func TestUpdateStatus_NeutralTransitionLeavesStockAlone(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Speaker", 80, 0, 5)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 2,
	}), user.ID)
	require.NoError(t, err)

	for _, status := range []models.OrderStatus{
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
	} {
		order, err = svc.UpdateStatus(ctx, order.ID, status)
		require.NoError(t, err)
		require.Equal(t, status, order.Status)

		got, err := r.GetProduct(ctx, product.ID)
		require.NoError(t, err)
		require.EqualValues(t, 3, got.Stock)
	}
}

func TestUpdateStatus_UncancelFailsWhenStockIsGone(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Laptop", 1200, 0, 3)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 3,
	}), user.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	// someone else takes the stock while the order sits cancelled
	ok, err := r.DebitStock(ctx, product.ID, 2)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusPending)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Stock, "failed re-debit must not move stock")

	reloaded, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, reloaded.Status)
}

func TestUpdateStatus_UnknownStatus(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderEnv(t)

	_, err := svc.UpdateStatus(context.Background(), uuid.New(), "archived")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteOrder_RestoresStockUnlessCancelled(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Tablet", 300, 0, 8)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 5,
	}), user.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, got.Stock)

	_, err = r.GetOrder(ctx, order.ID)
	require.Error(t, err)
}

func TestDeleteOrder_CancelledOrderDoesNotRestoreTwice(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Phone", 900, 0, 8)
	user := seedUser(t, r, "buyer@example.com", "customer", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 5,
	}), user.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, order.ID, models.OrderStatusCancelled)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	got, err := r.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 8, got.Stock, "cancellation already restored the claim")
}

func TestGetOrder_Ownership(t *testing.T) {
	t.Parallel()

	svc, r := newOrderEnv(t)
	ctx := context.Background()

	category := seedCategory(t, r, "Electronics")
	product := seedProduct(t, r, category, "Charger", 30, 0, 10)
	owner := seedUser(t, r, "owner@example.com", "customer", "secret1")
	other := seedUser(t, r, "other@example.com", "customer", "secret1")
	admin := seedUser(t, r, "admin@example.com", "admin", "secret1")

	order, err := svc.CreateOrder(ctx, orderRequest(transport.CreateOrderItem{
		Product:  transport.ProductRef{ID: product.ID},
		Quantity: 1,
	}), owner.ID)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, order.ID, owner)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, order.ID, other)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.GetOrder(ctx, order.ID, admin)
	require.NoError(t, err)

	_, err = svc.GetOrder(ctx, uuid.New(), admin)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrders_StatusFilterValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newOrderEnv(t)

	_, _, err := svc.ListOrders(context.Background(), repo.OrderFilter{Status: "archived"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransitionTable_OnlyCancelledEdgesMoveStock(t *testing.T) {
	t.Parallel()

	for pair, action := range transitionTable {
		switch {
		case pair.from != models.OrderStatusCancelled && pair.to == models.OrderStatusCancelled:
			assert.Equal(t, stockRestore, action, "%s -> %s", pair.from, pair.to)
		case pair.from == models.OrderStatusCancelled && pair.to != models.OrderStatusCancelled:
			assert.Equal(t, stockRedebit, action, "%s -> %s", pair.from, pair.to)
		default:
			assert.Equal(t, stockNone, action, "%s -> %s", pair.from, pair.to)
		}
	}
}
