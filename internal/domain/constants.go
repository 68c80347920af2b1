package domain

// Fulfillment Statuses
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCompleted  = "completed"
	OrderStatusCancelled  = "cancelled"
)

// Payment Statuses
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
)

// Payment Methods
const (
	PaymentMethodCOD           = "cod"
	PaymentMethodBankTransfer  = "bank_transfer"
	PaymentMethodCard          = "card"
	PaymentMethodMobilePayment = "mobile_payment"
)

// Request states shared by the cancellation and return sub-workflows.
const (
	RequestStatusNone      = "none"
	RequestStatusRequested = "requested"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
)

// History axes
const (
	AxisFulfillment  = "fulfillment"
	AxisPayment      = "payment"
	AxisCancellation = "cancellation"
	AxisReturn       = "return"
	AxisRewards      = "rewards"
	AxisTracking     = "tracking"
	AxisContact      = "contact"
)

// Display status shown instead of the fulfillment status while a non-COD order is unpaid.
const DisplayStatusAwaitingPayment = "awaiting_payment"

// Roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

// fulfillmentSequence is the forward path; cancelled sits outside it.
var fulfillmentSequence = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
}

// List Exports for API
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

var PaymentStatuses = []string{
	PaymentStatusUnpaid,
	PaymentStatusPending,
	PaymentStatusPaid,
}

var PaymentMethods = []string{
	PaymentMethodCOD,
	PaymentMethodBankTransfer,
	PaymentMethodCard,
	PaymentMethodMobilePayment,
}

var RequestStatuses = []string{
	RequestStatusNone,
	RequestStatusRequested,
	RequestStatusApproved,
	RequestStatusRejected,
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func IsValidOrderStatus(s string) bool   { return contains(OrderStatuses, s) }
func IsValidPaymentStatus(s string) bool { return contains(PaymentStatuses, s) }
func IsValidPaymentMethod(s string) bool { return contains(PaymentMethods, s) }
func IsValidRequestStatus(s string) bool { return contains(RequestStatuses, s) }
