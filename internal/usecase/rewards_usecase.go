package usecase

import (
	"context"
	"fmt"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/logger"
	"time"
)

// DefaultCurrencyPerPoint is one point per LKR 100 spent.
const DefaultCurrencyPerPoint int64 = 100

type RewardsUsecase struct {
	loyaltyRepo      domain.LoyaltyRepository
	currencyPerPoint int64
}

func NewRewardsUsecase(loyaltyRepo domain.LoyaltyRepository, currencyPerPoint int64) *RewardsUsecase {
	if currencyPerPoint <= 0 {
		currencyPerPoint = DefaultCurrencyPerPoint
	}
	return &RewardsUsecase{
		loyaltyRepo:      loyaltyRepo,
		currencyPerPoint: currencyPerPoint,
	}
}

// OnDelivered credits the order's points to its owner. It must run inside the
// transaction that holds the order, and the caller saves the order afterwards.
// A second call for the same order credits nothing and returns (0, nil).
func (u *RewardsUsecase) OnDelivered(ctx context.Context, order *domain.Order, now time.Time) (int64, error) {
	if order.RewardsCredited() {
		return 0, nil
	}
	if !order.RewardsEligible() {
		return 0, &domain.InvalidTransitionError{
			Axis:   domain.AxisRewards,
			From:   order.Status(),
			To:     "credited",
			Reason: "order has not been delivered",
		}
	}

	points := domain.PointsFor(order.Total, u.currencyPerPoint)
	inserted, err := u.loyaltyRepo.CreditPoints(ctx, order.UserID, order.ID, points)
	if err != nil {
		return 0, fmt.Errorf("failed to credit points: %w", err)
	}

	// The ledger row can exist without the flag if an earlier attempt died
	// between the two writes; setting the flag repairs that.
	order.MarkRewardsCredited(points, now)
	if !inserted {
		logger.WithContext(ctx).Warn().
			Str("order_id", order.ID).
			Msg("Loyalty ledger already held this order; flag repaired")
		return 0, nil
	}

	logger.WithContext(ctx).Info().
		Str("order_id", order.ID).
		Str("user_id", order.UserID).
		Int64("points", points).
		Msg("Loyalty points credited")
	return points, nil
}
