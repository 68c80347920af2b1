package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

type OrderFilter struct {
	Page               int
	Limit              int
	Status             string
	PaymentStatus      string
	CancellationStatus string
	ReturnStatus       string
	Search             string
}

// --- Order Entities ---

type OrderItem struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	Quantity          int    `json:"quantity"`
	UnitPrice         int64  `json:"unitPrice"`         // Price charged, at time of purchase
	UnitLabelledPrice int64  `json:"unitLabelledPrice"` // Catalog price before any sale, at time of purchase
}

type PaymentDetails struct {
	TransactionID   string     `json:"transactionId"`
	BankName        string     `json:"bankName,omitempty"`
	AccountLast4    string     `json:"accountNumber,omitempty"` // last 4 digits only
	PaymentProofURL string     `json:"paymentProofRef,omitempty"`
	PaidAmount      int64      `json:"paidAmount"`
	PaymentDate     *time.Time `json:"paymentDate,omitempty"`
}

// OrderState is the mutable part of an order in persistable form.
type OrderState struct {
	Status             string          `json:"status"`
	CancellationStatus string          `json:"cancellationStatus"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	ReturnStatus       string          `json:"returnStatus"`
	ReturnReason       string          `json:"returnReason,omitempty"`
	PaymentStatus      string          `json:"paymentStatus"`
	CustomerName       string          `json:"customerName"`
	Address            string          `json:"address"`
	Phone              string          `json:"phone"`
	Tracking           *TrackingInfo   `json:"trackingInfo"`
	Feedback           []FeedbackEntry `json:"customerFeedback"`
	RewardsCredited    bool            `json:"rewardsCredited"`
	PointsEarned       int64           `json:"pointsEarned"`
	DeliveredAt        *time.Time      `json:"deliveredAt,omitempty"`
	Version            int64           `json:"version"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type orderState struct {
	phase           Phase
	paymentStatus   string
	customerName    string
	address         string
	phone           string
	tracking        *TrackingInfo
	feedback        []FeedbackEntry
	rewardsCredited bool
	pointsEarned    int64
	deliveredAt     *time.Time
	version         int64
	updatedAt       time.Time
}

// Order is the aggregate root of the lifecycle engine. Identity, items and
// amounts are fixed at creation; everything else changes only through the
// transition methods.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	UserID          string          `json:"userId"`
	Items           []OrderItem     `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	DiscountRate    int             `json:"discountRate"`
	DiscountApplied int64           `json:"discountApplied"`
	Total           int64           `json:"total"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentDetails  *PaymentDetails `json:"paymentDetails,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`

	state orderState
}

type NewOrderParams struct {
	ID             string
	OrderNumber    string
	UserID         string
	CustomerName   string
	Address        string
	Phone          string
	Items          []OrderItem
	DiscountRate   int
	PaymentMethod  string
	PaymentDetails *PaymentDetails
	Now            time.Time
}

// NewOrder validates a creation request and returns an order in its initial
// state.
func NewOrder(p NewOrderParams) (*Order, error) {
	if len(p.Items) == 0 {
		return nil, NewValidationError("items", "order must have at least one item")
	}
	if strings.TrimSpace(p.Address) == "" {
		return nil, NewValidationError("address", "address is required")
	}
	if !IsValidPaymentMethod(p.PaymentMethod) {
		return nil, NewValidationError("paymentMethod", "unsupported payment method "+p.PaymentMethod)
	}

	details, err := normalizePaymentDetails(p.PaymentMethod, p.PaymentDetails)
	if err != nil {
		return nil, err
	}

	lines := make([]CartLine, len(p.Items))
	items := make([]OrderItem, len(p.Items))
	for i, item := range p.Items {
		if item.Quantity <= 0 {
			return nil, NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if strings.TrimSpace(item.ProductID) == "" {
			return nil, NewValidationError(fmt.Sprintf("items[%d].productId", i), "product is required")
		}
		items[i] = item
		lines[i] = CartLine{ProductID: item.ProductID, UnitPrice: item.UnitPrice, Quantity: item.Quantity}
	}

	quote, err := Quote(lines, p.DiscountRate)
	if err != nil {
		return nil, err
	}

	paymentStatus := PaymentStatusPending
	if p.PaymentMethod == PaymentMethodCOD {
		paymentStatus = PaymentStatusUnpaid
	}

	return &Order{
		ID:              p.ID,
		OrderNumber:     p.OrderNumber,
		UserID:          p.UserID,
		Items:           items,
		Subtotal:        quote.Subtotal,
		DiscountRate:    quote.DiscountRate,
		DiscountApplied: quote.Discount,
		Total:           quote.Total,
		PaymentMethod:   p.PaymentMethod,
		PaymentDetails:  details,
		CreatedAt:       p.Now,
		state: orderState{
			phase:         NewPhase(),
			paymentStatus: paymentStatus,
			customerName:  strings.TrimSpace(p.CustomerName),
			address:       strings.TrimSpace(p.Address),
			phone:         strings.TrimSpace(p.Phone),
			updatedAt:     p.Now,
		},
	}, nil
}

func normalizePaymentDetails(method string, d *PaymentDetails) (*PaymentDetails, error) {
	if method == PaymentMethodCOD {
		if d != nil && d.TransactionID != "" {
			return nil, NewValidationError("paymentDetails", "cash on delivery orders take no payment details")
		}
		return nil, nil
	}
	if d == nil || strings.TrimSpace(d.TransactionID) == "" {
		return nil, NewValidationError("paymentDetails.transactionId", "transaction id is required for "+method)
	}
	if d.PaidAmount < 0 {
		return nil, NewValidationError("paymentDetails.paidAmount", "must not be negative")
	}

	out := *d
	out.TransactionID = strings.TrimSpace(d.TransactionID)
	out.BankName = strings.TrimSpace(d.BankName)
	last4, err := lastFourDigits(d.AccountLast4)
	if err != nil {
		return nil, err
	}
	out.AccountLast4 = last4
	return &out, nil
}

// lastFourDigits keeps only the trailing four digits of an account number.
func lastFourDigits(account string) (string, error) {
	var digits []rune
	for _, r := range account {
		switch {
		case r >= '0' && r <= '9':
			digits = append(digits, r)
		case r == ' ' || r == '-' || r == '*':
		default:
			return "", NewValidationError("paymentDetails.accountNumber", "account number may only contain digits")
		}
	}
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return string(digits), nil
}

// --- Accessors ---

func (o *Order) Phase() Phase                { return o.state.phase }
func (o *Order) Status() string              { return o.state.phase.status }
func (o *Order) CancellationStatus() string  { return o.state.phase.cancellation }
func (o *Order) ReturnStatus() string        { return o.state.phase.ret }
func (o *Order) PaymentStatus() string       { return o.state.paymentStatus }
func (o *Order) CustomerName() string        { return o.state.customerName }
func (o *Order) Address() string             { return o.state.address }
func (o *Order) Phone() string               { return o.state.phone }
func (o *Order) RewardsCredited() bool       { return o.state.rewardsCredited }
func (o *Order) PointsEarned() int64         { return o.state.pointsEarned }
func (o *Order) DeliveredAt() *time.Time     { return o.state.deliveredAt }
func (o *Order) Version() int64              { return o.state.version }
func (o *Order) UpdatedAt() time.Time        { return o.state.updatedAt }
func (o *Order) Tracking() *TrackingInfo     { return o.state.tracking.clone() }
func (o *Order) Feedback() []FeedbackEntry   { return append([]FeedbackEntry(nil), o.state.feedback...) }
func (o *Order) OwnedBy(userID string) bool  { return userID != "" && o.UserID == userID }
func (o *Order) IsReturned() bool            { return o.state.phase.ret == RequestStatusApproved }
func (o *Order) IsCancelled() bool           { return o.state.phase.status == OrderStatusCancelled }
func (o *Order) IsCompleted() bool           { return o.state.phase.status == OrderStatusCompleted }
func (o *Order) IsTerminal() bool            { return o.IsCancelled() || o.IsCompleted() || o.IsReturned() }
func (o *Order) touch(now time.Time)         { o.state.updatedAt = now }

// AwaitingPayment is true for non-COD orders whose payment is not yet
// verified, whatever the fulfillment status.
func (o *Order) AwaitingPayment() bool {
	return o.PaymentMethod != PaymentMethodCOD && o.state.paymentStatus != PaymentStatusPaid
}

// DisplayStatus is the status read views should show. The payment axis
// takes precedence for unpaid non-COD orders whatever the fulfillment status.
func (o *Order) DisplayStatus() string {
	if o.AwaitingPayment() {
		return DisplayStatusAwaitingPayment
	}
	if o.IsReturned() {
		return "returned"
	}
	return o.state.phase.status
}

// --- Persistence ---

// Snapshot returns a deep copy of the mutable state.
func (o *Order) Snapshot() OrderState {
	s := o.state
	return OrderState{
		Status:             s.phase.status,
		CancellationStatus: s.phase.cancellation,
		CancellationReason: s.phase.cancellationReason,
		ReturnStatus:       s.phase.ret,
		ReturnReason:       s.phase.returnReason,
		PaymentStatus:      s.paymentStatus,
		CustomerName:       s.customerName,
		Address:            s.address,
		Phone:              s.phone,
		Tracking:           s.tracking.clone(),
		Feedback:           append([]FeedbackEntry(nil), s.feedback...),
		RewardsCredited:    s.rewardsCredited,
		PointsEarned:       s.pointsEarned,
		DeliveredAt:        copyTime(s.deliveredAt),
		Version:            s.version,
		UpdatedAt:          s.updatedAt,
	}
}

// RestoreOrder rebuilds an order loaded from storage. It rejects state that
// no sequence of transitions could have produced.
func RestoreOrder(base Order, s OrderState) (*Order, error) {
	phase, err := RestorePhase(s.Status, s.CancellationStatus, s.CancellationReason, s.ReturnStatus, s.ReturnReason)
	if err != nil {
		return nil, fmt.Errorf("restore order %s: %w", base.ID, err)
	}
	if !IsValidPaymentStatus(s.PaymentStatus) {
		return nil, fmt.Errorf("restore order %s: %w", base.ID, NewValidationError("paymentStatus", "unknown payment status "+s.PaymentStatus))
	}

	o := base
	o.Items = append([]OrderItem(nil), base.Items...)
	if base.PaymentDetails != nil {
		d := *base.PaymentDetails
		o.PaymentDetails = &d
	}
	o.state = orderState{
		phase:           phase,
		paymentStatus:   s.PaymentStatus,
		customerName:    s.CustomerName,
		address:         s.Address,
		phone:           s.Phone,
		tracking:        s.Tracking.clone(),
		feedback:        append([]FeedbackEntry(nil), s.Feedback...),
		rewardsCredited: s.RewardsCredited,
		pointsEarned:    s.PointsEarned,
		deliveredAt:     copyTime(s.DeliveredAt),
		version:         s.Version,
		updatedAt:       s.UpdatedAt,
	}
	return &o, nil
}

// BumpVersion is called by repositories once a save has been committed to
// the row, so the in-memory order matches the stored version.
func (o *Order) BumpVersion() { o.state.version++ }

// Clone returns an independent copy of the order.
func (o *Order) Clone() *Order {
	c, err := RestoreOrder(*o, o.Snapshot())
	if err != nil {
		// o was built by NewOrder/RestoreOrder, so its state is always valid.
		panic(err)
	}
	return c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (o Order) MarshalJSON() ([]byte, error) {
	type orderFields Order
	return json.Marshal(struct {
		orderFields
		OrderState
		DisplayStatus   string `json:"displayStatus"`
		AwaitingPayment bool   `json:"awaitingPayment"`
	}{
		orderFields:     orderFields(o),
		OrderState:      o.Snapshot(),
		DisplayStatus:   o.DisplayStatus(),
		AwaitingPayment: o.AwaitingPayment(),
	})
}

// --- History ---

type OrderHistory struct {
	ID             string    `json:"id"`
	OrderID        string    `json:"orderId"`
	Axis           string    `json:"axis"`
	PreviousStatus *string   `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	Reason         *string   `json:"reason"`
	CreatedBy      *string   `json:"createdBy"`             // UserID
	CreatedName    *string   `json:"createdName,omitempty"` // Enriched
	CreatedAt      time.Time `json:"createdAt"`
}

// --- Interfaces ---

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	// GetForUpdate loads the order and holds it for the rest of the
	// surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*Order, error)
	GetByUserID(ctx context.Context, userID string) ([]Order, error)
	GetAll(ctx context.Context, filter OrderFilter) ([]Order, int64, error)
	// Save persists the mutable state, failing with ErrConcurrentUpdate when
	// the stored version no longer matches order.Version(). On success it
	// increments order's version in place; if the enclosing transaction then
	// rolls back, order is ahead of the store and must be reloaded.
	Save(ctx context.Context, order *Order) error
	ListDeliveredBefore(ctx context.Context, deliveredBefore time.Time, limit int) ([]string, error)

	// History
	CreateOrderHistory(ctx context.Context, history *OrderHistory) error
	GetOrderHistory(ctx context.Context, orderID string) ([]OrderHistory, error)
}
