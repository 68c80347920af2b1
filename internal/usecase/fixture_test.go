package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/infrastructure/cache"
	"glowmart-backend/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

var (
	customer      = domain.Actor{ID: "cust-1", Role: domain.RoleCustomer}
	otherCustomer = domain.Actor{ID: "cust-2", Role: domain.RoleCustomer}
	admin         = domain.Actor{ID: "admin-1", Role: domain.RoleAdmin}
)

var start = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// notifierStub records events; NotifyOrderEventFunc overrides the behaviour.
type notifierStub struct {
	NotifyOrderEventFunc func(ctx context.Context, event domain.OrderEvent) error

	mu     sync.Mutex
	events []domain.OrderEvent
}

func (s *notifierStub) NotifyOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	if s.NotifyOrderEventFunc != nil {
		return s.NotifyOrderEventFunc(ctx, event)
	}
	return nil
}

func (s *notifierStub) Events() []domain.OrderEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderEvent(nil), s.events...)
}

type fixture struct {
	uc         *OrderUsecase
	orders     domain.OrderRepository
	users      *memory.UserRepository
	membership *MembershipUsecase
	notifier   *notifierStub

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) advanceClock(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	catalog := memory.NewProductCatalog(store)
	orders := memory.NewOrderRepository(store)

	for _, p := range []domain.ProductSnapshot{
		{ID: "p-1000", Name: "Night Cream", BasePrice: 1000, IsActive: true},
		{ID: "p-500", Name: "Lip Balm", BasePrice: 500, IsActive: true},
		{ID: "p-off", Name: "Retired Toner", BasePrice: 900, IsActive: false},
	} {
		require.NoError(t, catalog.Upsert(ctx, p))
	}
	for _, u := range []domain.User{
		{ID: customer.ID, Email: "nimali@example.com", Role: domain.RoleCustomer, FirstName: "Nimali", LastName: "Perera", Phone: "0771234567", Points: 200},
		{ID: otherCustomer.ID, Email: "kasun@example.com", Role: domain.RoleCustomer, FirstName: "Kasun"},
		{ID: admin.ID, Email: "admin@example.com", Role: domain.RoleAdmin, FirstName: "Store", LastName: "Admin"},
	} {
		u := u
		require.NoError(t, users.Create(ctx, &u))
	}

	f := &fixture{
		orders:   orders,
		users:    users,
		notifier: &notifierStub{},
		now:      start,
	}
	f.membership = NewMembershipUsecase(users, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	f.uc = NewOrderUsecase(
		orders,
		users,
		catalog,
		memory.NewTransactionManager(store),
		NewRewardsUsecase(users, 100),
		f.membership,
		f.notifier,
		DefaultReturnWindow,
	)
	f.uc.now = func() time.Time {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.now
	}
	return f
}

func (f *fixture) placeOrder(t *testing.T) *domain.Order {
	t.Helper()
	order, err := f.uc.CreateOrder(context.Background(), customer, CreateOrderReq{
		Address: "12 Galle Road, Colombo",
		Items: []CartItemReq{
			{ProductID: "p-1000", Quantity: 1},
			{ProductID: "p-500", Quantity: 2},
		},
		PaymentMethod: domain.PaymentMethodCOD,
	})
	require.NoError(t, err)
	return order
}

func (f *fixture) advance(t *testing.T, orderID string, statuses ...string) *domain.Order {
	t.Helper()
	var order *domain.Order
	for _, s := range statuses {
		var err error
		order, err = f.uc.AdvanceStatus(context.Background(), admin, orderID, s, "")
		require.NoError(t, err, "advance to %s", s)
	}
	return order
}

func (f *fixture) points(t *testing.T, userID string) int64 {
	t.Helper()
	p, err := f.users.GetPoints(context.Background(), userID)
	require.NoError(t, err)
	return p
}

// events waits for background sends, then returns what the notifier saw.
func (f *fixture) events(t *testing.T) []domain.OrderEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.uc.DrainNotifications(ctx))
	return f.notifier.Events()
}
