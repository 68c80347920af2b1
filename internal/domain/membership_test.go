package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		points int64
		want   Tier
	}{
		{0, TierBronze},
		{199, TierBronze},
		{200, TierSilver},
		{499, TierSilver},
		{500, TierGold},
		{999, TierGold},
		{1000, TierDiamond},
		{250000, TierDiamond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.points), "points=%d", tt.points)
	}
}

func TestDiscountRateFor(t *testing.T) {
	assert.Equal(t, 0, DiscountRateFor(TierBronze))
	assert.Equal(t, 5, DiscountRateFor(TierSilver))
	assert.Equal(t, 10, DiscountRateFor(TierGold))
	assert.Equal(t, 15, DiscountRateFor(TierDiamond))
}

func TestMembershipFor_NextTier(t *testing.T) {
	m := MembershipFor(150)
	assert.Equal(t, TierBronze, m.Tier)
	require.NotNil(t, m.NextTier)
	assert.Equal(t, TierSilver, *m.NextTier)
	require.NotNil(t, m.PointsToNextTier)
	assert.Equal(t, int64(50), *m.PointsToNextTier)

	m = MembershipFor(500)
	assert.Equal(t, TierGold, m.Tier)
	assert.Equal(t, 10, m.DiscountRate)
	assert.Equal(t, TierDiamond, *m.NextTier)
	assert.Equal(t, int64(500), *m.PointsToNextTier)
}

func TestMembershipFor_TopTierHasNoNext(t *testing.T) {
	m := MembershipFor(1200)
	assert.Equal(t, TierDiamond, m.Tier)
	assert.Nil(t, m.NextTier)
	assert.Nil(t, m.PointsToNextTier)
}

func TestTierThreshold(t *testing.T) {
	for _, tier := range Tiers {
		assert.Equal(t, tier, TierFor(TierThreshold(tier)))
	}
}
