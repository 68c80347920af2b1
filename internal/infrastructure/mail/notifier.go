package mail

import (
	"bytes"
	"context"
	"fmt"
	"glowmart-backend/internal/domain"
	"glowmart-backend/pkg/logger"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"
)

// Sender is the part of gomail.Dialer the notifier uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Notifier emails customers about their orders.
type Notifier struct {
	sender      Sender
	from        string
	frontendURL string
}

func NewNotifier(host string, port int, username, password, from, frontendURL string) *Notifier {
	return NewNotifierWithSender(gomail.NewDialer(host, port, username, password), from, frontendURL)
}

func NewNotifierWithSender(sender Sender, from, frontendURL string) *Notifier {
	return &Notifier{
		sender:      sender,
		from:        from,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
	}
}

type emailData struct {
	Name        string
	OrderNumber string
	Headline    string
	Total       int64
	Link        string
}

var orderEmail = template.Must(template.New("order").Parse(`<p>Hi {{.Name}},</p>
<p>{{.Headline}}</p>
<p>Order <strong>{{.OrderNumber}}</strong>, total LKR {{.Total}}.</p>
<p><a href="{{.Link}}">View your order</a></p>`))

// Headline returns the sentence describing an event, or "" when the event is
// not worth an email.
func Headline(axis, status string) string {
	switch axis {
	case domain.AxisFulfillment:
		switch status {
		case domain.OrderStatusPending:
			return "Thank you! We have received your order."
		case domain.OrderStatusProcessing:
			return "Your order is being prepared."
		case domain.OrderStatusShipped:
			return "Your order is on its way."
		case domain.OrderStatusDelivered:
			return "Your order was delivered. Your loyalty points have been added."
		case domain.OrderStatusCancelled:
			return "Your order was cancelled."
		}
	case domain.AxisPayment:
		if status == domain.PaymentStatusPaid {
			return "We have verified your payment."
		}
	case domain.AxisCancellation:
		switch status {
		case domain.RequestStatusApproved:
			return "Your cancellation request was approved."
		case domain.RequestStatusRejected:
			return "Your cancellation request could not be approved."
		}
	case domain.AxisReturn:
		switch status {
		case domain.RequestStatusApproved:
			return "Your return request was approved."
		case domain.RequestStatusRejected:
			return "Your return request could not be approved."
		}
	}
	return ""
}

func (n *Notifier) NotifyOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	headline := Headline(event.Axis, event.NewStatus)
	if headline == "" || event.RecipientEmail == "" {
		return nil
	}

	name := event.RecipientName
	if name == "" {
		name = "there"
	}
	var body bytes.Buffer
	err := orderEmail.Execute(&body, emailData{
		Name:        name,
		OrderNumber: event.Order.OrderNumber,
		Headline:    headline,
		Total:       event.Order.Total,
		Link:        fmt.Sprintf("%s/account/orders/%s", n.frontendURL, event.Order.ID),
	})
	if err != nil {
		return fmt.Errorf("render order email: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", event.RecipientEmail)
	m.SetHeader("Subject", fmt.Sprintf("Order %s update", event.Order.OrderNumber))
	m.SetBody("text/html", body.String())

	if err := n.sender.DialAndSend(m); err != nil {
		return fmt.Errorf("send order email: %w", err)
	}
	logger.WithContext(ctx).Debug().Str("order_id", event.Order.ID).Str("axis", event.Axis).Msg("Order email sent")
	return nil
}

// NoopNotifier is used when SMTP is not configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	logger.WithContext(ctx).Debug().
		Str("order_id", event.Order.ID).
		Str("axis", event.Axis).
		Str("status", event.NewStatus).
		Msg("Notification dropped: SMTP not configured")
	return nil
}
