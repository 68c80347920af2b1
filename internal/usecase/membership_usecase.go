package usecase

import (
	"context"
	"fmt"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/cache"
	"glowmart-backend/pkg/logger"
	"time"

	"github.com/goccy/go-json"
)

type MembershipUsecase struct {
	loyaltyRepo domain.LoyaltyRepository
	cache       cache.CacheService
	ttl         time.Duration
}

func NewMembershipUsecase(loyaltyRepo domain.LoyaltyRepository, c cache.CacheService, ttl time.Duration) *MembershipUsecase {
	return &MembershipUsecase{
		loyaltyRepo: loyaltyRepo,
		cache:       c,
		ttl:         ttl,
	}
}

func membershipKey(userID string) string {
	return "membership:" + userID
}

// GetMembership returns the customer's points, tier and discount, served
// from cache when possible.
func (u *MembershipUsecase) GetMembership(ctx context.Context, userID string) (*domain.Membership, error) {
	if userID == "" {
		return nil, domain.ErrNotPermitted()
	}

	if u.cache != nil {
		if raw, ok := u.cache.Get(ctx, membershipKey(userID)); ok {
			var m domain.Membership
			if err := json.Unmarshal(raw, &m); err == nil {
				return &m, nil
			}
		}
	}

	m, err := u.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := u.cache.Set(ctx, membershipKey(userID), raw, u.ttl); err != nil {
				logger.WithContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("Membership cache write failed")
			}
		}
	}
	return m, nil
}

// Current always reads the balance from the store; checkout must not price
// against a stale tier.
func (u *MembershipUsecase) Current(ctx context.Context, userID string) (*domain.Membership, error) {
	return u.load(ctx, userID)
}

func (u *MembershipUsecase) load(ctx context.Context, userID string) (*domain.Membership, error) {
	points, err := u.loyaltyRepo.GetPoints(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}
	m := domain.MembershipFor(points)
	return &m, nil
}

// Invalidate drops the cached projection after the balance changed.
func (u *MembershipUsecase) Invalidate(ctx context.Context, userID string) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Delete(ctx, membershipKey(userID)); err != nil {
		logger.WithContext(ctx).Warn().Err(err).Str("user_id", userID).Msg("Membership cache invalidation failed")
	}
}
