package usecase

import (
	"context"
	"testing"
	"time"

	"glowmart-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_AppliesMembershipDiscount(t *testing.T) {
	f := newFixture(t)

	q, err := f.uc.Quote(context.Background(), customer, QuoteReq{Items: []CartItemReq{
		{ProductID: "p-1000", Quantity: 1},
		{ProductID: "p-500", Quantity: 2},
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), q.Subtotal)
	assert.Equal(t, 5, q.DiscountRate)
	assert.Equal(t, int64(100), q.Discount)
	assert.Equal(t, int64(1900), q.Total)
	assert.Equal(t, domain.TierSilver, q.MembershipTier)
	assert.Equal(t, int64(19), q.PointsToBeEarned)
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	assert.Equal(t, customer.ID, order.UserID)
	assert.Equal(t, int64(2000), order.Subtotal)
	assert.Equal(t, int64(100), order.DiscountApplied)
	assert.Equal(t, int64(1900), order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status())
	assert.Equal(t, domain.PaymentStatusUnpaid, order.PaymentStatus())
	// name and phone default to the account's
	assert.Equal(t, "Nimali Perera", order.CustomerName())
	assert.Equal(t, "0771234567", order.Phone())
	assert.Regexp(t, `^GM-20260504-[A-Z0-9]{6}$`, order.OrderNumber)

	history, err := f.uc.GetOrderHistory(context.Background(), admin, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.OrderStatusPending, history[0].NewStatus)
	assert.Nil(t, history[0].PreviousStatus)
	require.NotNil(t, history[0].CreatedName)
	assert.Equal(t, "Nimali Perera", *history[0].CreatedName)

	events := f.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, "nimali@example.com", events[0].RecipientEmail)
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateOrderReq
		field string
	}{
		{
			name:  "no items",
			req:   CreateOrderReq{Address: "x", PaymentMethod: domain.PaymentMethodCOD},
			field: "items",
		},
		{
			name:  "missing address",
			req:   CreateOrderReq{Items: []CartItemReq{{ProductID: "p-500", Quantity: 1}}, PaymentMethod: domain.PaymentMethodCOD},
			field: "address",
		},
		{
			name:  "zero quantity",
			req:   CreateOrderReq{Address: "x", Items: []CartItemReq{{ProductID: "p-500", Quantity: 0}}, PaymentMethod: domain.PaymentMethodCOD},
			field: "items[0].quantity",
		},
		{
			name:  "inactive product",
			req:   CreateOrderReq{Address: "x", Items: []CartItemReq{{ProductID: "p-500", Quantity: 1}, {ProductID: "p-off", Quantity: 1}}, PaymentMethod: domain.PaymentMethodCOD},
			field: "items[1].productId",
		},
		{
			name:  "unknown product",
			req:   CreateOrderReq{Address: "x", Items: []CartItemReq{{ProductID: "nope", Quantity: 1}}, PaymentMethod: domain.PaymentMethodCOD},
			field: "items[0].productId",
		},
		{
			name:  "bank transfer without details",
			req:   CreateOrderReq{Address: "x", Items: []CartItemReq{{ProductID: "p-500", Quantity: 1}}, PaymentMethod: domain.PaymentMethodBankTransfer},
			field: "paymentDetails.transactionId",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.CreateOrder(ctx, customer, tt.req)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	orders, err := f.uc.ListMyOrders(ctx, customer)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestGetOrder_Authorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	got, err := f.uc.GetOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.uc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)

	// another customer cannot tell a foreign order from a missing one
	_, errForeign := f.uc.GetOrder(ctx, otherCustomer, order.ID)
	_, errMissing := f.uc.GetOrder(ctx, otherCustomer, "does-not-exist")
	assert.True(t, domain.IsAuthorizationError(errForeign))
	assert.True(t, domain.IsAuthorizationError(errMissing))
	assert.Equal(t, errForeign.Error(), errMissing.Error())

	_, err = f.uc.GetOrder(ctx, admin, "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.placeOrder(t)
	f.advanceClock(time.Minute)
	second := f.placeOrder(t)
	f.advance(t, second.ID, domain.OrderStatusProcessing)

	_, _, err := f.uc.ListOrders(ctx, customer, domain.OrderFilter{})
	assert.True(t, domain.IsAuthorizationError(err))

	orders, total, err := f.uc.ListOrders(ctx, admin, domain.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)

	orders, total, err = f.uc.ListOrders(ctx, admin, domain.OrderFilter{Status: domain.OrderStatusPending})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, first.ID, orders[0].ID)

	orders, _, err = f.uc.ListOrders(ctx, admin, domain.OrderFilter{Search: second.OrderNumber})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, second.ID, orders[0].ID)

	mine, err := f.uc.ListMyOrders(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	theirs, err := f.uc.ListMyOrders(ctx, otherCustomer)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestGetOrderHistory_StaffOnly(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	_, err := f.uc.GetOrderHistory(context.Background(), customer, order.ID)
	assert.True(t, domain.IsAuthorizationError(err))
}
