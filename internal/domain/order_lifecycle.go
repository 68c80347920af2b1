package domain

import (
	"strings"
	"time"
)

// Every method in this file validates first and mutates only on success, so
// a returned error always means the order is unchanged.

// SetPaymentStatus records a staff attestation on the payment axis. Any value
// may follow any other; the fulfillment status is not touched.
func (o *Order) SetPaymentStatus(newStatus string, now time.Time) error {
	if !IsValidPaymentStatus(newStatus) {
		return NewValidationError("paymentStatus", "unknown payment status "+newStatus)
	}
	if newStatus == o.state.paymentStatus {
		return newTransitionError(AxisPayment, o.state.paymentStatus, newStatus, "payment status is already "+newStatus)
	}
	o.state.paymentStatus = newStatus
	o.touch(now)
	return nil
}

// AdvanceStatus moves the fulfillment status one step forward, or into
// cancelled. enteredDelivered is true when this call moved the order into
// delivered, which is the caller's cue to run rewards accrual in the same
// transaction.
func (o *Order) AdvanceStatus(newStatus string, now time.Time) (enteredDelivered bool, err error) {
	if !IsValidOrderStatus(newStatus) {
		return false, NewValidationError("status", "unknown order status "+newStatus)
	}

	current := o.state.phase.status
	if newStatus == OrderStatusCancelled {
		if err := o.checkCancellable(); err != nil {
			return false, err
		}
		o.state.phase.status = OrderStatusCancelled
		if o.state.phase.cancellation == RequestStatusRequested {
			o.state.phase.cancellation = RequestStatusApproved
		}
		o.touch(now)
		return false, nil
	}

	from, to := position(current), position(newStatus)
	switch {
	case current == OrderStatusCancelled:
		return false, newTransitionError(AxisFulfillment, current, newStatus, "order is cancelled")
	case to <= from:
		return false, newTransitionError(AxisFulfillment, current, newStatus, "status cannot move backward")
	case to != from+1:
		return false, newTransitionError(AxisFulfillment, current, newStatus, "next status is "+fulfillmentSequence[from+1])
	}

	switch newStatus {
	case OrderStatusShipped:
		if o.state.phase.cancellation == RequestStatusRequested {
			return false, newTransitionError(AxisFulfillment, current, newStatus, "resolve the pending cancellation request first")
		}
	case OrderStatusCompleted:
		if o.state.phase.ret == RequestStatusRequested {
			return false, newTransitionError(AxisFulfillment, current, newStatus, "resolve the pending return request first")
		}
		if o.state.phase.ret == RequestStatusApproved {
			return false, newTransitionError(AxisFulfillment, current, newStatus, "order was returned")
		}
	}

	o.state.phase.status = newStatus
	if newStatus == OrderStatusDelivered {
		delivered := now
		o.state.deliveredAt = &delivered
		enteredDelivered = true
	}
	o.touch(now)
	return enteredDelivered, nil
}

func (o *Order) checkCancellable() error {
	current := o.state.phase.status
	switch current {
	case OrderStatusCancelled:
		return newTransitionError(AxisFulfillment, current, OrderStatusCancelled, "order is already cancelled")
	case OrderStatusDelivered, OrderStatusCompleted:
		return newTransitionError(AxisFulfillment, current, OrderStatusCancelled, "delivered orders cannot be cancelled")
	}
	if o.state.phase.cancellation == RequestStatusApproved {
		return newTransitionError(AxisFulfillment, current, OrderStatusCancelled, "cancellation was already approved")
	}
	return nil
}

// RequestCancellation is the customer's request to cancel before shipping.
func (o *Order) RequestCancellation(reason string, now time.Time) error {
	current := o.state.phase.status
	if current != OrderStatusPending && current != OrderStatusProcessing {
		return newTransitionError(AxisCancellation, o.state.phase.cancellation, RequestStatusRequested, "order is already "+current)
	}
	if o.state.phase.cancellation != RequestStatusNone {
		return newTransitionError(AxisCancellation, o.state.phase.cancellation, RequestStatusRequested, "cancellation was already requested")
	}
	o.state.phase.cancellation = RequestStatusRequested
	o.state.phase.cancellationReason = strings.TrimSpace(reason)
	o.touch(now)
	return nil
}

// ResolveCancellation approves or rejects a pending request. Approval
// cancels the order.
func (o *Order) ResolveCancellation(approve bool, now time.Time) error {
	to := resolution(approve)
	if o.state.phase.cancellation != RequestStatusRequested {
		return newTransitionError(AxisCancellation, o.state.phase.cancellation, to, "no cancellation request is pending")
	}
	o.state.phase.cancellation = to
	if approve {
		o.state.phase.status = OrderStatusCancelled
	}
	o.touch(now)
	return nil
}

// RequestReturn is allowed for delivered orders within the return window.
func (o *Order) RequestReturn(reason string, now time.Time, window time.Duration) error {
	current := o.state.phase.status
	if current != OrderStatusDelivered {
		return newTransitionError(AxisReturn, o.state.phase.ret, RequestStatusRequested, "only delivered orders can be returned")
	}
	if o.state.phase.ret != RequestStatusNone {
		return newTransitionError(AxisReturn, o.state.phase.ret, RequestStatusRequested, "a return was already requested")
	}
	if !o.WithinReturnWindow(now, window) {
		return newTransitionError(AxisReturn, o.state.phase.ret, RequestStatusRequested, "return window has closed")
	}
	o.state.phase.ret = RequestStatusRequested
	o.state.phase.returnReason = strings.TrimSpace(reason)
	o.touch(now)
	return nil
}

// WithinReturnWindow reports whether now is no later than window after
// delivery.
func (o *Order) WithinReturnWindow(now time.Time, window time.Duration) bool {
	if o.state.deliveredAt == nil {
		return false
	}
	return !now.After(o.state.deliveredAt.Add(window))
}

func (o *Order) ResolveReturn(approve bool, now time.Time) error {
	to := resolution(approve)
	if o.state.phase.ret != RequestStatusRequested {
		return newTransitionError(AxisReturn, o.state.phase.ret, to, "no return request is pending")
	}
	o.state.phase.ret = to
	o.touch(now)
	return nil
}

// UpdateShippingContact changes the delivery snapshot while the parcel has
// not left the warehouse.
func (o *Order) UpdateShippingContact(address, phone string, now time.Time) error {
	address = strings.TrimSpace(address)
	if address == "" {
		return NewValidationError("address", "address is required")
	}
	current := o.state.phase.status
	if current != OrderStatusPending && current != OrderStatusProcessing {
		return newTransitionError(AxisContact, current, current, "address can only change before shipping")
	}
	o.state.address = address
	if p := strings.TrimSpace(phone); p != "" {
		o.state.phone = p
	}
	o.touch(now)
	return nil
}

// MarkRewardsCredited sets the one-shot rewards guard. It returns false when
// the guard was already set.
func (o *Order) MarkRewardsCredited(points int64, now time.Time) bool {
	if o.state.rewardsCredited {
		return false
	}
	o.state.rewardsCredited = true
	o.state.pointsEarned = points
	o.touch(now)
	return true
}

// EligibleForAutoCompletion reports whether a delivered order can be closed
// because its return window has elapsed with no open or approved return.
func (o *Order) EligibleForAutoCompletion(now time.Time, window time.Duration) bool {
	if o.state.phase.status != OrderStatusDelivered {
		return false
	}
	if o.state.phase.ret == RequestStatusRequested || o.state.phase.ret == RequestStatusApproved {
		return false
	}
	return o.state.deliveredAt != nil && !o.WithinReturnWindow(now, window)
}

func resolution(approve bool) string {
	if approve {
		return RequestStatusApproved
	}
	return RequestStatusRejected
}

// RewardsEligible reports whether the order has reached delivery and was not
// cancelled along the way.
func (o *Order) RewardsEligible() bool {
	s := o.state.phase.status
	return s == OrderStatusDelivered || s == OrderStatusCompleted
}
