package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	gomail "gopkg.in/gomail.v2"

	"github.com/storefronthq/storefront-backend/pkg/config"
	"github.com/storefronthq/storefront-backend/pkg/logger"
)

// OrderConfirmationLine is one row of the confirmation email table.
type OrderConfirmationLine struct {
	Name     string
	Quantity int64
	Total    string
}

// OrderConfirmation is the data rendered into the confirmation email.
type OrderConfirmation struct {
	To            string
	CustomerName  string
	OrderID       string
	Lines         []OrderConfirmationLine
	Subtotal      string
	Discount      string
	Total         string
	PaymentMethod string
}

// Sender delivers transactional mail. The order engine fires it in a
// goroutine and only ever logs failures.
type Sender interface {
	SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error
	Enabled() bool
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender renders and sends mail over SMTP via gomail.
type EmailSender struct {
	cfg    config.SMTPConfig
	dialer mailDialer
	logg   *logger.Logger
	tmpl   *template.Template
}

// NewEmailSender builds the SMTP sender. With no SMTP host configured the
// sender reports disabled and drops messages silently.
func NewEmailSender(cfg config.SMTPConfig, logg *logger.Logger) *EmailSender {
	sender := &EmailSender{
		cfg:  cfg,
		logg: logg,
		tmpl: template.Must(template.New("order_confirmation").Parse(orderConfirmationHTML)),
	}
	if cfg.Enabled() {
		sender.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return sender
}

// Enabled reports whether mail will actually leave the process.
func (s *EmailSender) Enabled() bool {
	return s.dialer != nil
}

// SendOrderConfirmation renders the HTML body and delivers it.
func (s *EmailSender) SendOrderConfirmation(ctx context.Context, data OrderConfirmation) error {
	if !s.Enabled() {
		if s.logg != nil {
			s.logg.Debug(ctx, "notifications.smtp_disabled")
		}
		return nil
	}

	var body bytes.Buffer
	if err := s.tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render order confirmation: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", data.To)
	m.SetHeader("Subject", fmt.Sprintf("Order confirmation %s", data.OrderID))
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send order confirmation: %w", err)
	}
	return nil
}

const orderConfirmationHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
  <h2>Thanks for your order, {{.CustomerName}}!</h2>
  <p>Order <strong>{{.OrderID}}</strong> was received and is being processed.</p>
  <table cellpadding="6" cellspacing="0" border="0">
    <tr><th align="left">Item</th><th align="right">Qty</th><th align="right">Total</th></tr>
    {{range .Lines}}
    <tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.Total}}</td></tr>
    {{end}}
    <tr><td colspan="2" align="right">Subtotal</td><td align="right">{{.Subtotal}}</td></tr>
    {{if .Discount}}<tr><td colspan="2" align="right">Discount</td><td align="right">-{{.Discount}}</td></tr>{{end}}
    <tr><td colspan="2" align="right"><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
  </table>
  <p>Payment method: {{.PaymentMethod}}</p>
</body>
</html>`
