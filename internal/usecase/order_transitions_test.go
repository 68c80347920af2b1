package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"glowmart-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryCreditsPointsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	before, err := f.membership.GetMembership(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), before.Points)

	delivered := f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	assert.True(t, delivered.RewardsCredited())
	assert.Equal(t, int64(19), delivered.PointsEarned())
	assert.Equal(t, int64(219), f.points(t, customer.ID))

	// the cached projection was dropped by the credit
	after, err := f.membership.GetMembership(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(219), after.Points)

	// a second delivery signal is a no-op
	points, err := f.uc.rewards.OnDelivered(ctx, delivered, f.uc.now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), points)

	// even if the flag were lost, the ledger refuses a second credit
	snap := delivered.Snapshot()
	snap.RewardsCredited = false
	snap.PointsEarned = 0
	lost, err := domain.RestoreOrder(*delivered, snap)
	require.NoError(t, err)
	points, err = f.uc.rewards.OnDelivered(ctx, lost, f.uc.now())
	require.NoError(t, err)
	assert.Equal(t, int64(0), points)
	assert.True(t, lost.RewardsCredited())
	assert.Equal(t, int64(219), f.points(t, customer.ID))

	credits, err := f.users.GetCredits(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, order.ID, credits[0].OrderID)

	history, err := f.uc.GetOrderHistory(ctx, admin, order.ID)
	require.NoError(t, err)
	var axes []string
	for _, h := range history {
		axes = append(axes, h.Axis)
	}
	assert.Equal(t, []string{
		domain.AxisFulfillment, domain.AxisFulfillment, domain.AxisFulfillment,
		domain.AxisFulfillment, domain.AxisRewards,
	}, axes)
}

func TestDeliveryConcurrentCreditsOnce(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)
	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.AdvanceStatus(context.Background(), admin, order.ID, domain.OrderStatusDelivered, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if domain.IsInvalidTransition(err) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, rejected)
	assert.Equal(t, int64(219), f.points(t, customer.ID))
}

func TestRewardsAccumulateAcrossOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 16 x 1000 at silver pays 15200, worth 152 points
	order, err := f.uc.CreateOrder(ctx, customer, CreateOrderReq{
		Address:       "x",
		Items:         []CartItemReq{{ProductID: "p-1000", Quantity: 16}},
		PaymentMethod: domain.PaymentMethodCOD,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15200), order.Total)
	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)

	m, err := f.membership.GetMembership(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(352), m.Points)
	assert.Equal(t, domain.TierSilver, m.Tier)

	f.advance(t, f.placeOrder(t).ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)

	m, err = f.membership.GetMembership(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(371), m.Points)
	require.NotNil(t, m.PointsToNextTier)
	assert.Equal(t, int64(129), *m.PointsToNextTier)
}

func TestDiscountUsesBalanceAtCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// push the customer to gold: 200 + 300 = 500
	_, err := f.users.CreditPoints(ctx, customer.ID, "legacy-import", 300)
	require.NoError(t, err)

	q, err := f.uc.Quote(ctx, customer, QuoteReq{Items: []CartItemReq{{ProductID: "p-1000", Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, domain.TierGold, q.MembershipTier)
	assert.Equal(t, int64(900), q.Total)

	order := f.placeOrder(t)
	assert.Equal(t, 10, order.DiscountRate)
	assert.Equal(t, int64(1800), order.Total)
}

func TestRetryRewards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	unchanged, err := f.uc.RetryRewards(ctx, admin, order.ID)
	var terr *domain.InvalidTransitionError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, domain.AxisRewards, terr.Axis)
	require.NotNil(t, unchanged)
	assert.False(t, unchanged.RewardsCredited())

	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	again, err := f.uc.RetryRewards(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.True(t, again.RewardsCredited())
	assert.Equal(t, int64(219), f.points(t, customer.ID))

	_, err = f.uc.RetryRewards(ctx, customer, order.ID)
	assert.True(t, domain.IsAuthorizationError(err))
}

func TestAdvanceStatus_RejectedReturnsUnchangedOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	got, err := f.uc.AdvanceStatus(ctx, admin, order.ID, domain.OrderStatusShipped, "")
	assert.True(t, domain.IsInvalidTransition(err))
	require.NotNil(t, got)
	assert.Equal(t, domain.OrderStatusPending, got.Status())

	stored, err := f.uc.GetOrder(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, stored.Status())
	assert.Equal(t, order.Version(), stored.Version())

	_, err = f.uc.AdvanceStatus(ctx, customer, order.ID, domain.OrderStatusProcessing, "")
	assert.True(t, domain.IsAuthorizationError(err))

	_, err = f.uc.AdvanceStatus(ctx, admin, "missing", domain.OrderStatusProcessing, "")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestCancellationWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.uc.RequestCancellation(ctx, otherCustomer, order.ID, "not mine")
	assert.True(t, domain.IsAuthorizationError(err))

	requested, err := f.uc.RequestCancellation(ctx, customer, order.ID, "ordered twice")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRequested, requested.CancellationStatus())

	_, err = f.uc.ResolveCancellation(ctx, customer, order.ID, true)
	assert.True(t, domain.IsAuthorizationError(err))

	// shipping waits for the decision
	_, err = f.uc.AdvanceStatus(ctx, admin, order.ID, domain.OrderStatusProcessing, "")
	require.NoError(t, err)
	_, err = f.uc.AdvanceStatus(ctx, admin, order.ID, domain.OrderStatusShipped, "")
	assert.True(t, domain.IsInvalidTransition(err))

	cancelled, err := f.uc.ResolveCancellation(ctx, admin, order.ID, true)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status())
	assert.Equal(t, domain.RequestStatusApproved, cancelled.CancellationStatus())

	history, err := f.uc.GetOrderHistory(ctx, admin, order.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, domain.AxisFulfillment, last.Axis)
	assert.Equal(t, domain.OrderStatusCancelled, last.NewStatus)

	_, err = f.uc.ResolveCancellation(ctx, admin, order.ID, false)
	assert.True(t, domain.IsInvalidTransition(err))
}

func TestReturnWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)

	f.advanceClock(13 * 24 * time.Hour)
	requested, err := f.uc.RequestReturn(ctx, customer, order.ID, "allergic reaction")
	require.NoError(t, err)
	assert.Equal(t, domain.RequestStatusRequested, requested.ReturnStatus())

	_, err = f.uc.AdvanceStatus(ctx, admin, order.ID, domain.OrderStatusCompleted, "")
	assert.True(t, domain.IsInvalidTransition(err))

	returned, err := f.uc.ResolveReturn(ctx, admin, order.ID, true)
	require.NoError(t, err)
	assert.True(t, returned.IsReturned())
	// points are not clawed back
	assert.Equal(t, int64(219), f.points(t, customer.ID))
}

func TestReturnWindowClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)

	f.advanceClock(DefaultReturnWindow + time.Minute)
	got, err := f.uc.RequestReturn(ctx, customer, order.ID, "too late")
	assert.True(t, domain.IsInvalidTransition(err))
	require.NotNil(t, got)
	assert.Equal(t, domain.RequestStatusNone, got.ReturnStatus())
}

func TestSetPaymentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.uc.SetPaymentStatus(ctx, customer, order.ID, domain.PaymentStatusPaid)
	assert.True(t, domain.IsAuthorizationError(err))

	paid, err := f.uc.SetPaymentStatus(ctx, admin, order.ID, domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, paid.PaymentStatus())
	assert.Equal(t, domain.OrderStatusPending, paid.Status())

	_, err = f.uc.SetPaymentStatus(ctx, admin, order.ID, "bitcoin")
	assert.True(t, domain.IsValidationError(err))
}

func TestUpdateShippingContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	updated, err := f.uc.UpdateShippingContact(ctx, customer, order.ID, "7 Lake Drive, Kandy", "0712223334")
	require.NoError(t, err)
	assert.Equal(t, "7 Lake Drive, Kandy", updated.Address())
	assert.Equal(t, "0712223334", updated.Phone())

	_, err = f.uc.UpdateShippingContact(ctx, otherCustomer, order.ID, "elsewhere", "")
	assert.True(t, domain.IsAuthorizationError(err))

	f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped)
	got, err := f.uc.UpdateShippingContact(ctx, admin, order.ID, "too late", "")
	assert.True(t, domain.IsInvalidTransition(err))
	assert.Equal(t, "7 Lake Drive, Kandy", got.Address())
}

func TestTrackingDeliveredUpdateAdvancesOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	f.advance(t, order.ID, domain.OrderStatusProcessing)

	_, err := f.uc.SetTrackingInfo(ctx, admin, order.ID, TrackingInfoReq{TrackingNumber: "TRK-9", CourierService: "Domex", TrackingURL: "not a url"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "trackingUrl", verr.Field)

	withInfo, err := f.uc.SetTrackingInfo(ctx, admin, order.ID, TrackingInfoReq{TrackingNumber: "TRK-9", CourierService: "Domex"})
	require.NoError(t, err)
	assert.Equal(t, "TRK-9", withInfo.Tracking().TrackingNumber)

	// a delivered scan before shipping only logs the update
	early, err := f.uc.AppendTrackingUpdate(ctx, admin, order.ID, TrackingUpdateReq{Status: "Delivered", Description: "mis-scan"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, early.Status())

	f.advance(t, order.ID, domain.OrderStatusShipped)
	f.advanceClock(time.Hour)
	delivered, err := f.uc.AppendTrackingUpdate(ctx, admin, order.ID, TrackingUpdateReq{Status: "Delivered", Location: "Colombo 03", Description: "Handed to customer"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status())
	assert.True(t, delivered.RewardsCredited())
	assert.Len(t, delivered.Tracking().Updates, 2)
	assert.Equal(t, int64(219), f.points(t, customer.ID))

	_, err = f.uc.AppendTrackingUpdate(ctx, admin, order.ID, TrackingUpdateReq{Status: "Note"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)
}

func TestAppendFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	_, err := f.uc.AppendFeedback(ctx, customer, order.ID, "Can I add a gift note?")
	require.NoError(t, err)
	replied, err := f.uc.AppendFeedback(ctx, admin, order.ID, "Sure, reply with the text.")
	require.NoError(t, err)

	thread := replied.Feedback()
	require.Len(t, thread, 2)
	assert.False(t, thread[0].IsAdmin)
	assert.True(t, thread[1].IsAdmin)

	_, err = f.uc.AppendFeedback(ctx, otherCustomer, order.ID, "hello")
	assert.True(t, domain.IsAuthorizationError(err))
	_, err = f.uc.AppendFeedback(ctx, customer, order.ID, " ")
	assert.True(t, domain.IsValidationError(err))

	history, err := f.uc.GetOrderHistory(ctx, admin, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestAutoCompleteDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quiet := f.placeOrder(t)
	f.advance(t, quiet.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	disputed := f.placeOrder(t)
	f.advance(t, disputed.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	_, err := f.uc.RequestReturn(ctx, customer, disputed.ID, "broken seal")
	require.NoError(t, err)
	open := f.placeOrder(t)
	f.advance(t, open.ID, domain.OrderStatusProcessing)

	n, err := f.uc.AutoCompleteDelivered(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.advanceClock(DefaultReturnWindow + time.Hour)
	n, err = f.uc.AutoCompleteDelivered(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.uc.GetOrder(ctx, admin, quiet.ID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted())
	got, err = f.uc.GetOrder(ctx, admin, disputed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, got.Status())

	history, err := f.uc.GetOrderHistory(ctx, admin, quiet.ID)
	require.NoError(t, err)
	last := history[len(history)-1]
	assert.Equal(t, domain.OrderStatusCompleted, last.NewStatus)
	assert.Nil(t, last.CreatedBy)
}

func TestNotificationFailureDoesNotFailTransition(t *testing.T) {
	f := newFixture(t)
	f.notifier.NotifyOrderEventFunc = func(ctx context.Context, event domain.OrderEvent) error {
		return errors.New("smtp down")
	}
	order := f.placeOrder(t)
	delivered := f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status())

	var statuses []string
	for _, e := range f.events(t) {
		if e.Axis == domain.AxisFulfillment {
			statuses = append(statuses, e.NewStatus)
		}
	}
	assert.ElementsMatch(t, []string{
		domain.OrderStatusPending, domain.OrderStatusProcessing,
		domain.OrderStatusShipped, domain.OrderStatusDelivered,
	}, statuses)
}

func TestAdvanceStatusDoesNotWaitForNotifier(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)
	_ = f.events(t)

	release := make(chan struct{})
	sending := make(chan struct{}, 1)
	f.notifier.NotifyOrderEventFunc = func(ctx context.Context, event domain.OrderEvent) error {
		sending <- struct{}{}
		<-release
		return nil
	}

	done := make(chan *domain.Order, 1)
	go func() {
		got, err := f.uc.AdvanceStatus(context.Background(), admin, order.ID, domain.OrderStatusProcessing, "")
		assert.NoError(t, err)
		done <- got
	}()

	select {
	case got := <-done:
		assert.Equal(t, domain.OrderStatusProcessing, got.Status())
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("transition blocked on the notifier")
	}

	<-sending
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.uc.DrainNotifications(ctx), context.DeadlineExceeded)

	close(release)
	events := f.events(t)
	require.Len(t, events, 2)
	assert.Equal(t, domain.OrderStatusProcessing, events[1].NewStatus)
}

func TestDeliveryCreditsCustomerWithoutProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tokenOnly := domain.Actor{ID: "token-only", Role: domain.RoleCustomer}

	order, err := f.uc.CreateOrder(ctx, tokenOnly, CreateOrderReq{
		Items:         []CartItemReq{{ProductID: "p-1000", Quantity: 1}, {ProductID: "p-500", Quantity: 2}},
		PaymentMethod: domain.PaymentMethodCOD,
		CustomerName:  "Walk In",
		Phone:         "0770000000",
		Address:       "12 Galle Road, Colombo",
	})
	require.NoError(t, err)

	delivered := f.advance(t, order.ID, domain.OrderStatusProcessing, domain.OrderStatusShipped, domain.OrderStatusDelivered)
	assert.Equal(t, domain.OrderStatusDelivered, delivered.Status())
	assert.True(t, delivered.RewardsCredited())
	assert.Equal(t, order.Total/100, f.points(t, "token-only"))
}
