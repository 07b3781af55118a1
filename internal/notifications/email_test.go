package notifications

import (
	"bytes"
	"context"
	"strings"
	"testing"

	gomail "gopkg.in/gomail.v2"

	"github.com/storefronthq/storefront-backend/pkg/config"
)

type captureDialer struct {
	messages []*gomail.Message
}

func (c *captureDialer) DialAndSend(m ...*gomail.Message) error {
	c.messages = append(c.messages, m...)
	return nil
}

func TestDisabledSenderDropsSilently(t *testing.T) {
	sender := NewEmailSender(config.SMTPConfig{}, nil)

	if sender.Enabled() {
		t.Fatal("sender must be disabled without SMTP host")
	}
	if err := sender.SendOrderConfirmation(context.Background(), OrderConfirmation{To: "a@b.com"}); err != nil {
		t.Fatalf("disabled sender must not error, got %v", err)
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	sender := NewEmailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 465, From: "shop@example.com"}, nil)
	dialer := &captureDialer{}
	sender.dialer = dialer

	err := sender.SendOrderConfirmation(context.Background(), OrderConfirmation{
		To:           "ada@example.com",
		CustomerName: "Ada",
		OrderID:      "abc123",
		Lines: []OrderConfirmationLine{
			{Name: "Shirt", Quantity: 2, Total: "$30.00"},
		},
		Subtotal:      "$30.00",
		Total:         "$30.00",
		PaymentMethod: "card",
	})
	if err != nil {
		t.Fatalf("SendOrderConfirmation: %v", err)
	}
	if len(dialer.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(dialer.messages))
	}
	if got := dialer.messages[0].GetHeader("To"); len(got) != 1 || got[0] != "ada@example.com" {
		t.Fatalf("unexpected To header %v", got)
	}
}

func TestConfirmationOmitsDiscountRowWhenEmpty(t *testing.T) {
	sender := NewEmailSender(config.SMTPConfig{Host: "smtp.example.com", Port: 465, From: "shop@example.com"}, nil)
	dialer := &captureDialer{}
	sender.dialer = dialer

	base := OrderConfirmation{
		To:           "ada@example.com",
		CustomerName: "Ada",
		OrderID:      "abc123",
		Subtotal:     "$30.00",
		Total:        "$30.00",
	}
	if err := sender.SendOrderConfirmation(context.Background(), base); err != nil {
		t.Fatalf("send without discount: %v", err)
	}
	discounted := base
	discounted.Discount = "$4.00"
	discounted.Total = "$26.00"
	if err := sender.SendOrderConfirmation(context.Background(), discounted); err != nil {
		t.Fatalf("send with discount: %v", err)
	}
	if len(dialer.messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(dialer.messages))
	}

	if body := messageBody(t, dialer.messages[0]); strings.Contains(body, "Discount") {
		t.Fatal("discount row rendered without a discount")
	}
	if body := messageBody(t, dialer.messages[1]); !strings.Contains(body, "Discount") {
		t.Fatal("discount row missing on a discounted order")
	}
}

func messageBody(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.String()
}
