// Package memory keeps the whole data set in process. It serves
// STORAGE_DRIVER=memory and the use case tests.
package memory

import (
	"context"
	"glowmart-backend/internal/domain"
	"sync"
)

// Store is shared by the repositories of this package. A transaction holds
// mu for its whole duration, so transactions are serialized.
type Store struct {
	mu sync.Mutex

	orders   map[string]*domain.Order
	orderIDs []string
	history  map[string][]domain.OrderHistory
	users    map[string]*domain.User
	credits  map[string]domain.LoyaltyCredit // keyed by order id
	products map[string]domain.ProductSnapshot
}

func NewStore() *Store {
	return &Store{
		orders:   map[string]*domain.Order{},
		history:  map[string][]domain.OrderHistory{},
		users:    map[string]*domain.User{},
		credits:  map[string]domain.LoyaltyCredit{},
		products: map[string]domain.ProductSnapshot{},
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// run executes fn under the store lock unless ctx already belongs to one of
// this store's transactions.
func (s *Store) run(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	orders   map[string]*domain.Order
	orderIDs []string
	history  map[string][]domain.OrderHistory
	users    map[string]*domain.User
	credits  map[string]domain.LoyaltyCredit
}

// snapshot copies the maps. Stored values are never mutated in place, so
// copying the references is enough.
func (s *Store) snapshot() snapshot {
	snap := snapshot{
		orders:   make(map[string]*domain.Order, len(s.orders)),
		orderIDs: append([]string(nil), s.orderIDs...),
		history:  make(map[string][]domain.OrderHistory, len(s.history)),
		users:    make(map[string]*domain.User, len(s.users)),
		credits:  make(map[string]domain.LoyaltyCredit, len(s.credits)),
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.history {
		snap.history[k] = v[:len(v):len(v)]
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	for k, v := range s.credits {
		snap.credits[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.orders = snap.orders
	s.orderIDs = snap.orderIDs
	s.history = snap.history
	s.users = snap.users
	s.credits = snap.credits
}

// TransactionManager implements domain.TransactionManager for the Store.
type TransactionManager struct {
	store *Store
}

func NewTransactionManager(store *Store) domain.TransactionManager {
	return &TransactionManager{store: store}
}

// Do runs fn with the store locked. Any error rolls every write back.
// Nested calls join the outer transaction.
func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	s := tm.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	txCtx := context.WithValue(ctx, txKey{}, s)
	if err := fn(txCtx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}
