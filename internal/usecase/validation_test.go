package usecase

import (
	"testing"

	"glowmart-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		field   string
		message string
	}{
		{"empty quote", QuoteReq{}, "items", "is required"},
		{"quantity too large", QuoteReq{Items: []CartItemReq{{ProductID: "p", Quantity: 101}}}, "items[0].quantity", "must be at most 100"},
		{"missing product", QuoteReq{Items: []CartItemReq{{Quantity: 1}}}, "items[0].productId", "is required"},
		{"bad proof url", CreateOrderReq{
			Address:        "x",
			Items:          []CartItemReq{{ProductID: "p", Quantity: 1}},
			PaymentMethod:  domain.PaymentMethodBankTransfer,
			PaymentDetails: &PaymentDetailsReq{TransactionID: "t", PaymentProofRef: "receipt.png"},
		}, "paymentDetails.paymentProofRef", "must be a valid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateStruct(tt.input)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.message, verr.Message)
		})
	}

	assert.NoError(t, validateStruct(TrackingUpdateReq{Status: "In transit", Description: "Left hub"}))
}
