package domain

import "github.com/goccy/go-json"

// Phase holds the fulfillment status together with the cancellation and
// return sub-workflows. Fields are unexported so the only way to obtain a
// Phase is NewPhase, RestorePhase or a transition method on Order, which
// keeps combinations such as shipped+cancellation-approved unrepresentable.
type Phase struct {
	status             string
	cancellation       string
	cancellationReason string
	ret                string
	returnReason       string
}

func NewPhase() Phase {
	return Phase{
		status:       OrderStatusPending,
		cancellation: RequestStatusNone,
		ret:          RequestStatusNone,
	}
}

// allowedSubStates lists, per fulfillment status, the cancellation and
// return states that may accompany it.
var allowedSubStates = map[string]struct {
	cancellation []string
	ret          []string
}{
	OrderStatusPending: {
		cancellation: []string{RequestStatusNone, RequestStatusRequested, RequestStatusRejected},
		ret:          []string{RequestStatusNone},
	},
	OrderStatusProcessing: {
		cancellation: []string{RequestStatusNone, RequestStatusRequested, RequestStatusRejected},
		ret:          []string{RequestStatusNone},
	},
	OrderStatusShipped: {
		cancellation: []string{RequestStatusNone, RequestStatusRejected},
		ret:          []string{RequestStatusNone},
	},
	OrderStatusDelivered: {
		cancellation: []string{RequestStatusNone, RequestStatusRejected},
		ret:          RequestStatuses,
	},
	OrderStatusCompleted: {
		cancellation: []string{RequestStatusNone, RequestStatusRejected},
		ret:          []string{RequestStatusNone, RequestStatusRejected},
	},
	OrderStatusCancelled: {
		cancellation: []string{RequestStatusNone, RequestStatusApproved, RequestStatusRejected},
		ret:          []string{RequestStatusNone},
	},
}

// RestorePhase rebuilds a Phase from persisted columns.
func RestorePhase(status, cancellation, cancellationReason, ret, returnReason string) (Phase, error) {
	if cancellation == "" {
		cancellation = RequestStatusNone
	}
	if ret == "" {
		ret = RequestStatusNone
	}
	p := Phase{
		status:             status,
		cancellation:       cancellation,
		cancellationReason: cancellationReason,
		ret:                ret,
		returnReason:       returnReason,
	}
	if err := p.validate(); err != nil {
		return Phase{}, err
	}
	return p, nil
}

func (p Phase) validate() error {
	allowed, ok := allowedSubStates[p.status]
	if !ok {
		return NewValidationError("status", "unknown order status "+p.status)
	}
	if !contains(allowed.cancellation, p.cancellation) {
		return NewValidationError("cancellationStatus", "cancellation "+p.cancellation+" is not possible while "+p.status)
	}
	if !contains(allowed.ret, p.ret) {
		return NewValidationError("returnStatus", "return "+p.ret+" is not possible while "+p.status)
	}
	return nil
}

func (p Phase) Status() string             { return p.status }
func (p Phase) CancellationStatus() string { return p.cancellation }
func (p Phase) CancellationReason() string { return p.cancellationReason }
func (p Phase) ReturnStatus() string       { return p.ret }
func (p Phase) ReturnReason() string       { return p.returnReason }

// IsZero reports whether the Phase was never initialised.
func (p Phase) IsZero() bool { return p.status == "" }

type phaseJSON struct {
	Status             string `json:"status"`
	CancellationStatus string `json:"cancellationStatus"`
	CancellationReason string `json:"cancellationReason,omitempty"`
	ReturnStatus       string `json:"returnStatus"`
	ReturnReason       string `json:"returnReason,omitempty"`
}

func (p Phase) toJSON() phaseJSON {
	return phaseJSON{
		Status:             p.status,
		CancellationStatus: p.cancellation,
		CancellationReason: p.cancellationReason,
		ReturnStatus:       p.ret,
		ReturnReason:       p.returnReason,
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toJSON())
}

func (p *Phase) UnmarshalJSON(data []byte) error {
	var raw phaseJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	restored, err := RestorePhase(raw.Status, raw.CancellationStatus, raw.CancellationReason, raw.ReturnStatus, raw.ReturnReason)
	if err != nil {
		return err
	}
	*p = restored
	return nil
}

// position returns the index of status on the forward path, or -1.
func position(status string) int {
	for i, s := range fulfillmentSequence {
		if s == status {
			return i
		}
	}
	return -1
}
