package memory

import (
	"context"
	"glowmart-backend/internal/domain"
	"sort"
	"time"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.run(ctx, func() error {
		if _, exists := r.store.users[user.ID]; exists {
			return domain.NewValidationError("id", "user already exists")
		}
		u := *user
		r.store.users[user.ID] = &u
		return nil
	})
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.store.run(ctx, func() error {
		u, ok := r.store.users[id]
		if !ok {
			return domain.ErrUserNotFound
		}
		c := *u
		out = &c
		return nil
	})
	return out, err
}

// GetPoints returns 0 for users the store has never seen.
func (r *UserRepository) GetPoints(ctx context.Context, userID string) (int64, error) {
	var points int64
	err := r.store.run(ctx, func() error {
		if u, ok := r.store.users[userID]; ok {
			points = u.Points
		}
		return nil
	})
	return points, err
}

func (r *UserRepository) CreditPoints(ctx context.Context, userID, orderID string, points int64) (bool, error) {
	var inserted bool
	err := r.store.run(ctx, func() error {
		if _, done := r.store.credits[orderID]; done {
			return nil
		}
		now := time.Now().UTC()
		updated := domain.User{ID: userID, Role: domain.RoleCustomer, CreatedAt: now}
		if u, ok := r.store.users[userID]; ok {
			updated = *u
		}
		updated.Points += points
		updated.UpdatedAt = now
		r.store.users[userID] = &updated
		r.store.credits[orderID] = domain.LoyaltyCredit{
			UserID:    userID,
			OrderID:   orderID,
			Points:    points,
			CreatedAt: now,
		}
		inserted = true
		return nil
	})
	return inserted, err
}

func (r *UserRepository) GetCredits(ctx context.Context, userID string) ([]domain.LoyaltyCredit, error) {
	var out []domain.LoyaltyCredit
	err := r.store.run(ctx, func() error {
		for _, c := range r.store.credits {
			if c.UserID == userID {
				out = append(out, c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
