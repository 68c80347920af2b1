package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"glowmart-backend/internal/domain"
	"glowmart-backend/internal/infrastructure/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMembership_CachedUntilInvalidated(t *testing.T) {
	calls := 0
	balance := int64(480)
	repo := &loyaltyRepoStub{
		GetPointsFunc: func(ctx context.Context, userID string) (int64, error) {
			calls++
			return balance, nil
		},
	}
	uc := NewMembershipUsecase(repo, cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	ctx := context.Background()

	m, err := uc.GetMembership(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierSilver, m.Tier)
	assert.Equal(t, int64(20), *m.PointsToNextTier)

	balance = 520
	m, err = uc.GetMembership(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierSilver, m.Tier)
	assert.Equal(t, 1, calls)

	// checkout reads through the cache
	current, err := uc.Current(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierGold, current.Tier)

	uc.Invalidate(ctx, "cust-1")
	m, err = uc.GetMembership(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, domain.TierGold, m.Tier)
	assert.Equal(t, 10, m.DiscountRate)
}

func TestGetMembership_Errors(t *testing.T) {
	repo := &loyaltyRepoStub{
		GetPointsFunc: func(ctx context.Context, userID string) (int64, error) {
			return 0, errors.New("db down")
		},
	}
	uc := NewMembershipUsecase(repo, nil, time.Minute)

	_, err := uc.GetMembership(context.Background(), "")
	assert.True(t, domain.IsAuthorizationError(err))

	_, err = uc.GetMembership(context.Background(), "cust-1")
	assert.Error(t, err)
}
