package memory

import (
	"context"
	"glowmart-backend/internal/domain"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderRepository struct {
	store *Store
}

func NewOrderRepository(store *Store) domain.OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.store.run(ctx, func() error {
		if _, exists := r.store.orders[order.ID]; exists {
			return domain.NewValidationError("id", "order already exists")
		}
		r.store.orders[order.ID] = order.Clone()
		r.store.orderIDs = append(r.store.orderIDs, order.ID)
		return nil
	})
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var out *domain.Order
	err := r.store.run(ctx, func() error {
		o, ok := r.store.orders[id]
		if !ok {
			return domain.ErrOrderNotFound
		}
		out = o.Clone()
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID: inside a transaction the whole store is locked.
func (r *OrderRepository) GetForUpdate(ctx context.Context, id string) (*domain.Order, error) {
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) GetByUserID(ctx context.Context, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := r.store.run(ctx, func() error {
		for _, id := range r.store.orderIDs {
			if o := r.store.orders[id]; o.UserID == userID {
				out = append(out, *o.Clone())
			}
		}
		return nil
	})
	sortNewestFirst(out)
	return out, err
}

func (r *OrderRepository) GetAll(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, int64, error) {
	var matched []domain.Order
	err := r.store.run(ctx, func() error {
		for _, id := range r.store.orderIDs {
			if o := r.store.orders[id]; matches(o, filter) {
				matched = append(matched, *o.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	if filter.Limit <= 0 {
		return matched, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start >= len(matched) {
		return []domain.Order{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matches(o *domain.Order, f domain.OrderFilter) bool {
	if f.Status != "" && o.Status() != f.Status {
		return false
	}
	if f.PaymentStatus != "" && o.PaymentStatus() != f.PaymentStatus {
		return false
	}
	if f.CancellationStatus != "" && o.CancellationStatus() != f.CancellationStatus {
		return false
	}
	if f.ReturnStatus != "" && o.ReturnStatus() != f.ReturnStatus {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hay := strings.ToLower(o.OrderNumber + " " + o.CustomerName() + " " + o.Phone())
		if !strings.Contains(hay, q) {
			return false
		}
	}
	return true
}

func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

// Save bumps order's version in place. A rollback of the enclosing
// transaction restores the store but not order.
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.store.run(ctx, func() error {
		stored, ok := r.store.orders[order.ID]
		if !ok {
			return domain.ErrOrderNotFound
		}
		if stored.Version() != order.Version() {
			return domain.ErrConcurrentUpdate
		}
		order.BumpVersion()
		r.store.orders[order.ID] = order.Clone()
		return nil
	})
}

func (r *OrderRepository) ListDeliveredBefore(ctx context.Context, deliveredBefore time.Time, limit int) ([]string, error) {
	type candidate struct {
		id string
		at time.Time
	}
	var found []candidate
	err := r.store.run(ctx, func() error {
		for _, id := range r.store.orderIDs {
			o := r.store.orders[id]
			if o.Status() != domain.OrderStatusDelivered || o.DeliveredAt() == nil {
				continue
			}
			if o.DeliveredAt().Before(deliveredBefore) {
				found = append(found, candidate{id: id, at: *o.DeliveredAt()})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].at.Before(found[j].at) })
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}
	ids := make([]string, len(found))
	for i, c := range found {
		ids[i] = c.id
	}
	return ids, nil
}

func (r *OrderRepository) CreateOrderHistory(ctx context.Context, history *domain.OrderHistory) error {
	return r.store.run(ctx, func() error {
		if history.ID == "" {
			history.ID = uuid.NewString()
		}
		if history.CreatedAt.IsZero() {
			history.CreatedAt = time.Now().UTC()
		}
		r.store.history[history.OrderID] = append(r.store.history[history.OrderID], *history)
		return nil
	})
}

func (r *OrderRepository) GetOrderHistory(ctx context.Context, orderID string) ([]domain.OrderHistory, error) {
	var out []domain.OrderHistory
	err := r.store.run(ctx, func() error {
		out = append(out, r.store.history[orderID]...)
		return nil
	})
	return out, err
}
