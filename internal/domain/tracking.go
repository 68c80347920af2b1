package domain

import (
	"strings"
	"time"
)

type TrackingUpdate struct {
	Status      string    `json:"status"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// TrackingInfo is the carrier summary plus the append-only update log.
type TrackingInfo struct {
	TrackingNumber    string           `json:"trackingNumber"`
	CourierService    string           `json:"courierService"`
	EstimatedDelivery *time.Time       `json:"estimatedDelivery,omitempty"`
	TrackingURL       string           `json:"trackingUrl,omitempty"`
	Updates           []TrackingUpdate `json:"updates"`
}

func (t *TrackingInfo) clone() *TrackingInfo {
	if t == nil {
		return nil
	}
	c := *t
	c.EstimatedDelivery = copyTime(t.EstimatedDelivery)
	c.Updates = append([]TrackingUpdate(nil), t.Updates...)
	return &c
}

// SetTrackingInfo upserts the summary fields. Updates are left as they are.
func (o *Order) SetTrackingInfo(number, courier string, eta *time.Time, url string, now time.Time) error {
	number = strings.TrimSpace(number)
	courier = strings.TrimSpace(courier)
	if number == "" {
		return NewValidationError("trackingNumber", "tracking number is required")
	}
	if courier == "" {
		return NewValidationError("courierService", "courier service is required")
	}
	if o.IsCancelled() {
		return newTransitionError(AxisTracking, o.Status(), o.Status(), "order is cancelled")
	}

	info := o.state.tracking
	if info == nil {
		info = &TrackingInfo{}
	}
	info.TrackingNumber = number
	info.CourierService = courier
	info.EstimatedDelivery = copyTime(eta)
	info.TrackingURL = strings.TrimSpace(url)
	o.state.tracking = info
	o.touch(now)
	return nil
}

// AppendTrackingUpdate adds one entry to the ledger. The timestamp never goes
// behind the previous entry's, so the log stays ordered under clock skew.
func (o *Order) AppendTrackingUpdate(status, location, description string, now time.Time) (TrackingUpdate, error) {
	status = strings.TrimSpace(status)
	description = strings.TrimSpace(description)
	if status == "" {
		return TrackingUpdate{}, NewValidationError("status", "status is required")
	}
	if description == "" {
		return TrackingUpdate{}, NewValidationError("description", "description is required")
	}

	info := o.state.tracking
	if info == nil {
		info = &TrackingInfo{}
	}
	ts := now
	if n := len(info.Updates); n > 0 && info.Updates[n-1].Timestamp.After(ts) {
		ts = info.Updates[n-1].Timestamp
	}
	update := TrackingUpdate{
		Status:      status,
		Location:    strings.TrimSpace(location),
		Description: description,
		Timestamp:   ts,
	}
	info.Updates = append(info.Updates, update)
	o.state.tracking = info
	o.touch(now)
	return update, nil
}

// IsDeliveredUpdate reports whether a free-text carrier status means the
// parcel was handed over.
func IsDeliveredUpdate(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "delivered")
}
