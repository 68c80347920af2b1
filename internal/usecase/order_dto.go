package usecase

import (
	"glowmart-backend/internal/domain"
	"time"
)

type CartItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0,lte=100"`
}

type QuoteReq struct {
	Items []CartItemReq `json:"items" validate:"required,min=1,dive"`
}

type QuoteResp struct {
	Items            []domain.OrderItem `json:"items"`
	Subtotal         int64              `json:"subtotal"`
	DiscountRate     int                `json:"discountRate"`
	Discount         int64              `json:"discount"`
	Total            int64              `json:"total"`
	MembershipTier   domain.Tier        `json:"membershipTier"`
	PointsToBeEarned int64              `json:"pointsToBeEarned"`
}

type PaymentDetailsReq struct {
	TransactionID   string     `json:"transactionId" validate:"max=100"`
	BankName        string     `json:"bankName" validate:"max=100"`
	AccountNumber   string     `json:"accountNumber" validate:"max=34"`
	PaymentProofRef string     `json:"paymentProofRef" validate:"omitempty,url"`
	PaidAmount      int64      `json:"paidAmount" validate:"gte=0"`
	PaymentDate     *time.Time `json:"paymentDate"`
}

type CreateOrderReq struct {
	CustomerName   string             `json:"customerName" validate:"max=120"`
	Address        string             `json:"address" validate:"required,max=500"`
	Phone          string             `json:"phone" validate:"max=32"`
	Items          []CartItemReq      `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  string             `json:"paymentMethod" validate:"required"`
	PaymentDetails *PaymentDetailsReq `json:"paymentDetails"`
}

type TrackingInfoReq struct {
	TrackingNumber    string     `json:"trackingNumber" validate:"required,max=100"`
	CourierService    string     `json:"courierService" validate:"required,max=100"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery"`
	TrackingURL       string     `json:"trackingUrl" validate:"omitempty,url"`
}

type TrackingUpdateReq struct {
	Status      string `json:"status" validate:"required,max=100"`
	Location    string `json:"location" validate:"max=200"`
	Description string `json:"description" validate:"required,max=1000"`
}
