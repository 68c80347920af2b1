package usecase

import (
	"context"
	"fmt"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/logger"
	"time"
)

// access says who may run a mutation against an order.
type access int

const (
	staffOnly access = iota
	ownerOnly
	ownerOrStaff
)

// change is one accepted transition, recorded in history after the save.
type change struct {
	axis   string
	from   string
	to     string
	reason string
	// unlogged changes are saved but get no history row.
	unlogged bool
}

type mutation func(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error)

// mutate loads the order under lock, applies fn and persists the result in
// one transaction. When fn rejects the change with an InvalidTransitionError
// the unchanged order is returned alongside the error.
func (u *OrderUsecase) mutate(ctx context.Context, actor domain.Actor, orderID string, rule access, fn mutation) (*domain.Order, error) {
	if rule == staffOnly && !actor.IsStaff() {
		return nil, domain.ErrNotPermitted()
	}

	var (
		result  *domain.Order
		before  *domain.Order
		changes []change
	)
	err := u.txManager.Do(ctx, func(txCtx context.Context) error {
		order, err := u.orderRepo.GetForUpdate(txCtx, orderID)
		if err != nil {
			return u.hideMissing(actor, err)
		}
		switch rule {
		case ownerOnly:
			if !order.OwnedBy(actor.ID) {
				return domain.ErrNotPermitted()
			}
		case ownerOrStaff:
			if !actor.IsStaff() && !order.OwnedBy(actor.ID) {
				return domain.ErrNotPermitted()
			}
		}
		before = order.Clone()

		now := u.now()
		changes, err = fn(txCtx, order, now)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			result = order
			return nil
		}

		if err := u.orderRepo.Save(txCtx, order); err != nil {
			return err
		}
		for _, c := range changes {
			if c.unlogged {
				continue
			}
			history := newHistory(order.ID, actor, c.axis, c.from, c.to, c.reason)
			history.CreatedAt = now
			if err := u.orderRepo.CreateOrderHistory(txCtx, &history); err != nil {
				return fmt.Errorf("failed to record history: %w", err)
			}
		}
		result = order
		return nil
	})
	if err != nil {
		if domain.IsInvalidTransition(err) && before != nil {
			return before, err
		}
		return nil, err
	}

	u.afterCommit(ctx, actor, result, changes)
	return result, nil
}

func (u *OrderUsecase) afterCommit(ctx context.Context, actor domain.Actor, order *domain.Order, changes []change) {
	if len(changes) == 0 {
		return
	}
	log := logger.WithContext(ctx)
	for _, c := range changes {
		if c.unlogged {
			continue
		}
		log.Info().
			Str("order_id", order.ID).
			Str("axis", c.axis).
			Str("from", c.from).
			Str("to", c.to).
			Str("actor", actor.ID).
			Str("role", actor.Role).
			Msg("Order transition")
		if c.axis == domain.AxisRewards && u.membership != nil {
			u.membership.Invalidate(ctx, order.UserID)
		}
	}
	u.notify(ctx, order, changes)
}

// notify tells the customer about changes on the axes they care about. It
// is best effort and runs after the request returns; DrainNotifications
// waits for pending sends.
func (u *OrderUsecase) notify(ctx context.Context, order *domain.Order, changes []change) {
	if u.notifier == nil {
		return
	}
	var relevant []change
	for _, c := range changes {
		switch c.axis {
		case domain.AxisFulfillment, domain.AxisPayment, domain.AxisCancellation, domain.AxisReturn:
			relevant = append(relevant, c)
		}
	}
	if len(relevant) == 0 {
		return
	}

	snapshot := order.Clone()
	log := logger.WithContext(ctx)
	u.pending.Add(1)
	go func() {
		defer u.pending.Done()
		sendCtx, cancel := context.WithTimeout(logger.NewContext(context.Background(), log), notifyTimeout)
		defer cancel()
		u.send(sendCtx, snapshot, relevant)
	}()
}

func (u *OrderUsecase) send(ctx context.Context, order *domain.Order, changes []change) {
	log := logger.WithContext(ctx)
	user, err := u.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		log.Warn().Err(err).Str("order_id", order.ID).Msg("Notification skipped: customer not found")
		return
	}
	for _, c := range changes {
		event := domain.OrderEvent{
			Order:          order,
			Axis:           c.axis,
			NewStatus:      c.to,
			RecipientEmail: user.Email,
			RecipientName:  user.FullName(),
		}
		if err := u.notifier.NotifyOrderEvent(ctx, event); err != nil {
			log.Warn().Err(err).Str("order_id", order.ID).Str("axis", c.axis).Msg("Notification failed")
		}
	}
}

// DrainNotifications blocks until in-flight notifications finish or ctx ends.
func (u *OrderUsecase) DrainNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		u.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- Fulfillment ---

// AdvanceStatus moves the fulfillment status. Entering delivered credits the
// customer's loyalty points in the same transaction.
func (u *OrderUsecase) AdvanceStatus(ctx context.Context, actor domain.Actor, orderID, newStatus, note string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, staffOnly, func(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error) {
		return u.advance(txCtx, order, newStatus, note, now)
	})
}

func (u *OrderUsecase) advance(txCtx context.Context, order *domain.Order, newStatus, note string, now time.Time) ([]change, error) {
	from, cancellation := order.Status(), order.CancellationStatus()
	entered, err := order.AdvanceStatus(newStatus, now)
	if err != nil {
		return nil, err
	}
	if note == "" {
		note = fmt.Sprintf("Status changed from %s to %s", from, newStatus)
	}
	changes := []change{{axis: domain.AxisFulfillment, from: from, to: newStatus, reason: note}}
	if order.CancellationStatus() != cancellation {
		changes = append(changes, change{
			axis:   domain.AxisCancellation,
			from:   cancellation,
			to:     order.CancellationStatus(),
			reason: "Approved by cancelling the order",
		})
	}
	if entered {
		c, err := u.creditRewards(txCtx, order, now)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c...)
	}
	return changes, nil
}

func (u *OrderUsecase) creditRewards(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error) {
	if order.RewardsCredited() {
		return nil, nil
	}
	points, err := u.rewards.OnDelivered(txCtx, order, now)
	if err != nil {
		return nil, err
	}
	return []change{{
		axis:   domain.AxisRewards,
		from:   "pending",
		to:     "credited",
		reason: fmt.Sprintf("%d points credited", points),
	}}, nil
}

// RetryRewards re-runs rewards accrual for a delivered order. It is a no-op
// when the points were already credited.
func (u *OrderUsecase) RetryRewards(ctx context.Context, actor domain.Actor, orderID string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, staffOnly, func(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error) {
		return u.creditRewards(txCtx, order, now)
	})
}

// AutoCompleteDelivered closes delivered orders whose return window has
// passed. It returns how many orders were completed.
func (u *OrderUsecase) AutoCompleteDelivered(ctx context.Context) (int, error) {
	now := u.now()
	ids, err := u.orderRepo.ListDeliveredBefore(ctx, now.Add(-u.returnWindow), autoCompleteBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list delivered orders: %w", err)
	}

	completed := 0
	for _, id := range ids {
		order, err := u.mutate(ctx, domain.SystemActor, id, staffOnly, func(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error) {
			if !order.EligibleForAutoCompletion(now, u.returnWindow) {
				return nil, nil
			}
			return u.advance(txCtx, order, domain.OrderStatusCompleted, "Return window elapsed", now)
		})
		if err != nil {
			logger.WithContext(ctx).Error().Err(err).Str("order_id", id).Msg("Auto-complete failed")
			continue
		}
		if order.IsCompleted() {
			completed++
		}
	}
	return completed, nil
}

// --- Payment ---

func (u *OrderUsecase) SetPaymentStatus(ctx context.Context, actor domain.Actor, orderID, newStatus string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, staffOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		from := order.PaymentStatus()
		if err := order.SetPaymentStatus(newStatus, now); err != nil {
			return nil, err
		}
		return []change{{
			axis:   domain.AxisPayment,
			from:   from,
			to:     newStatus,
			reason: fmt.Sprintf("Payment status changed: %s -> %s", from, newStatus),
		}}, nil
	})
}

// --- Cancellation ---

func (u *OrderUsecase) RequestCancellation(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, ownerOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		from := order.CancellationStatus()
		if err := order.RequestCancellation(reason, now); err != nil {
			return nil, err
		}
		return []change{{axis: domain.AxisCancellation, from: from, to: domain.RequestStatusRequested, reason: reason}}, nil
	})
}

func (u *OrderUsecase) ResolveCancellation(ctx context.Context, actor domain.Actor, orderID string, approve bool) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, staffOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		from, status := order.CancellationStatus(), order.Status()
		if err := order.ResolveCancellation(approve, now); err != nil {
			return nil, err
		}
		changes := []change{{axis: domain.AxisCancellation, from: from, to: order.CancellationStatus()}}
		if order.Status() != status {
			changes = append(changes, change{
				axis:   domain.AxisFulfillment,
				from:   status,
				to:     order.Status(),
				reason: "Cancellation approved",
			})
		}
		return changes, nil
	})
}

// --- Returns ---

func (u *OrderUsecase) RequestReturn(ctx context.Context, actor domain.Actor, orderID, reason string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, ownerOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		from := order.ReturnStatus()
		if err := order.RequestReturn(reason, now, u.returnWindow); err != nil {
			return nil, err
		}
		return []change{{axis: domain.AxisReturn, from: from, to: domain.RequestStatusRequested, reason: reason}}, nil
	})
}

func (u *OrderUsecase) ResolveReturn(ctx context.Context, actor domain.Actor, orderID string, approve bool) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, staffOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		from := order.ReturnStatus()
		if err := order.ResolveReturn(approve, now); err != nil {
			return nil, err
		}
		return []change{{axis: domain.AxisReturn, from: from, to: order.ReturnStatus()}}, nil
	})
}

// --- Contact, tracking, feedback ---

func (u *OrderUsecase) UpdateShippingContact(ctx context.Context, actor domain.Actor, orderID, address, phone string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, ownerOrStaff, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		if err := order.UpdateShippingContact(address, phone, now); err != nil {
			return nil, err
		}
		return []change{{axis: domain.AxisContact, to: "updated", reason: "Shipping address changed"}}, nil
	})
}

func (u *OrderUsecase) SetTrackingInfo(ctx context.Context, actor domain.Actor, orderID string, req TrackingInfoReq) (*domain.Order, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return u.mutate(ctx, actor, orderID, staffOnly, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		if err := order.SetTrackingInfo(req.TrackingNumber, req.CourierService, req.EstimatedDelivery, req.TrackingURL, now); err != nil {
			return nil, err
		}
		return []change{{
			axis:   domain.AxisTracking,
			to:     "info",
			reason: fmt.Sprintf("%s via %s", req.TrackingNumber, req.CourierService),
		}}, nil
	})
}

// AppendTrackingUpdate adds a carrier update. A "Delivered" update on a
// shipped order also moves the order to delivered.
func (u *OrderUsecase) AppendTrackingUpdate(ctx context.Context, actor domain.Actor, orderID string, req TrackingUpdateReq) (*domain.Order, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return u.mutate(ctx, actor, orderID, staffOnly, func(txCtx context.Context, order *domain.Order, now time.Time) ([]change, error) {
		update, err := order.AppendTrackingUpdate(req.Status, req.Location, req.Description, now)
		if err != nil {
			return nil, err
		}
		changes := []change{{axis: domain.AxisTracking, to: update.Status, reason: update.Description}}

		if domain.IsDeliveredUpdate(update.Status) && order.Status() == domain.OrderStatusShipped {
			more, err := u.advance(txCtx, order, domain.OrderStatusDelivered, "Carrier reported delivery", now)
			if err != nil {
				return nil, err
			}
			changes = append(changes, more...)
		}
		return changes, nil
	})
}

// AppendFeedback adds a message to the order's support thread. Messages from
// staff are flagged as admin-authored.
func (u *OrderUsecase) AppendFeedback(ctx context.Context, actor domain.Actor, orderID, message string) (*domain.Order, error) {
	return u.mutate(ctx, actor, orderID, ownerOrStaff, func(_ context.Context, order *domain.Order, now time.Time) ([]change, error) {
		if _, err := order.AppendFeedback(message, actor.ID, actor.IsStaff(), now); err != nil {
			return nil, err
		}
		// The thread itself is the record.
		return []change{{axis: "feedback", to: "appended", unlogged: true}}, nil
	})
}
