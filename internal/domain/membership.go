package domain

// Tier is a loyalty bracket derived from accumulated points.
type Tier string

const (
	TierBronze  Tier = "Bronze"
	TierSilver  Tier = "Silver"
	TierGold    Tier = "Gold"
	TierDiamond Tier = "Diamond"
)

type tierRule struct {
	tier         Tier
	minPoints    int64
	discountRate int
}

// Ordered from the highest threshold down.
var tierRules = []tierRule{
	{TierDiamond, 1000, 15},
	{TierGold, 500, 10},
	{TierSilver, 200, 5},
	{TierBronze, 0, 0},
}

var Tiers = []Tier{TierBronze, TierSilver, TierGold, TierDiamond}

// TierFor maps accumulated points to a tier. Lower bounds are inclusive.
func TierFor(points int64) Tier {
	for _, r := range tierRules {
		if points >= r.minPoints {
			return r.tier
		}
	}
	return TierBronze
}

// DiscountRateFor returns the checkout discount percentage for a tier.
func DiscountRateFor(tier Tier) int {
	for _, r := range tierRules {
		if r.tier == tier {
			return r.discountRate
		}
	}
	return 0
}

// TierThreshold is the lowest point balance that reaches tier.
func TierThreshold(tier Tier) int64 {
	for _, r := range tierRules {
		if r.tier == tier {
			return r.minPoints
		}
	}
	return 0
}

// Membership is the read projection served to the storefront.
type Membership struct {
	Points           int64  `json:"points"`
	Tier             Tier   `json:"membershipTier"`
	DiscountRate     int    `json:"discountRate"`
	NextTier         *Tier  `json:"nextTier,omitempty"`
	PointsToNextTier *int64 `json:"pointsToNextTier,omitempty"`
}

func MembershipFor(points int64) Membership {
	if points < 0 {
		points = 0
	}
	tier := TierFor(points)
	m := Membership{
		Points:       points,
		Tier:         tier,
		DiscountRate: DiscountRateFor(tier),
	}

	// tierRules is descending, so the next tier is the entry just before the current one.
	for i, r := range tierRules {
		if r.tier == tier && i > 0 {
			next := tierRules[i-1]
			missing := next.minPoints - points
			m.NextTier = &next.tier
			m.PointsToNextTier = &missing
		}
	}
	return m
}
