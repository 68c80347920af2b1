package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/quotedprintable"
	"strings"
	"testing"

	"glowmart-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type senderStub struct {
	DialAndSendFunc func(m ...*gomail.Message) error
	sent            []*gomail.Message
}

func (s *senderStub) DialAndSend(m ...*gomail.Message) error {
	s.sent = append(s.sent, m...)
	if s.DialAndSendFunc != nil {
		return s.DialAndSendFunc(m...)
	}
	return nil
}

func event(axis, status, email string) domain.OrderEvent {
	return domain.OrderEvent{
		Order:          &domain.Order{ID: "ord-1", OrderNumber: "GM-20260504-ABC123", Total: 1900},
		Axis:           axis,
		NewStatus:      status,
		RecipientEmail: email,
		RecipientName:  "Nimali",
	}
}

func TestNotifyOrderEvent_SendsEmail(t *testing.T) {
	sender := &senderStub{}
	n := NewNotifierWithSender(sender, "orders@glowmart.lk", "https://glowmart.lk/")

	err := n.NotifyOrderEvent(context.Background(), event(domain.AxisFulfillment, domain.OrderStatusShipped, "nimali@example.com"))
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"orders@glowmart.lk"}, m.GetHeader("From"))
	assert.Equal(t, []string{"nimali@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Order GM-20260504-ABC123 update"}, m.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = m.WriteTo(&buf)
	require.NoError(t, err)
	_, encoded, found := strings.Cut(buf.String(), "\r\n\r\n")
	require.True(t, found)
	decoded, err := io.ReadAll(quotedprintable.NewReader(strings.NewReader(encoded)))
	require.NoError(t, err)
	body := string(decoded)
	assert.Contains(t, body, "Your order is on its way.")
	assert.Contains(t, body, "https://glowmart.lk/account/orders/ord-1")
}

func TestNotifyOrderEvent_Skips(t *testing.T) {
	sender := &senderStub{}
	n := NewNotifierWithSender(sender, "orders@glowmart.lk", "https://glowmart.lk")

	require.NoError(t, n.NotifyOrderEvent(context.Background(), event(domain.AxisTracking, "updated", "nimali@example.com")))
	require.NoError(t, n.NotifyOrderEvent(context.Background(), event(domain.AxisFulfillment, domain.OrderStatusShipped, "")))
	assert.Empty(t, sender.sent)
}

func TestNotifyOrderEvent_SendFailure(t *testing.T) {
	sender := &senderStub{DialAndSendFunc: func(m ...*gomail.Message) error {
		return errors.New("connection refused")
	}}
	n := NewNotifierWithSender(sender, "orders@glowmart.lk", "https://glowmart.lk")

	err := n.NotifyOrderEvent(context.Background(), event(domain.AxisPayment, domain.PaymentStatusPaid, "nimali@example.com"))
	assert.ErrorContains(t, err, "connection refused")
}

func TestHeadline(t *testing.T) {
	tests := []struct {
		axis, status string
		wantEmpty    bool
	}{
		{domain.AxisFulfillment, domain.OrderStatusDelivered, false},
		{domain.AxisFulfillment, domain.OrderStatusCompleted, true},
		{domain.AxisPayment, domain.PaymentStatusPaid, false},
		{domain.AxisPayment, domain.PaymentStatusPending, true},
		{domain.AxisCancellation, domain.RequestStatusRequested, true},
		{domain.AxisCancellation, domain.RequestStatusApproved, false},
		{domain.AxisReturn, domain.RequestStatusRejected, false},
		{domain.AxisRewards, "credited", true},
	}
	for _, tt := range tests {
		t.Run(tt.axis+"/"+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.wantEmpty, Headline(tt.axis, tt.status) == "")
		})
	}
}
