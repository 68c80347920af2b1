package domain

import "context"

// OrderEvent describes an accepted change worth telling the customer about.
type OrderEvent struct {
	Order     *Order
	Axis      string
	NewStatus string
	// Recipient is filled in by the order service when the user is known.
	RecipientEmail string
	RecipientName  string
}

// Notifier delivers order events. Failures are logged by the caller and never
// undo the change.
type Notifier interface {
	NotifyOrderEvent(ctx context.Context, event OrderEvent) error
}
