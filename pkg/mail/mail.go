package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/render"
)

// DefaultResendURL is the Resend API base URL
const DefaultResendURL = "https://api.resend.com/"

// ErrNoRecipient is returned when a message has nobody to go to
var ErrNoRecipient = errors.New("recipient email is required")

// Attachment is a file sent along with a message
type Attachment struct {
	Filename string
	Content  []byte
}

// Message is one outgoing email
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg *Message) (id string, err error)
}

var invoiceBody = template.Must(template.New("invoice").Parse(`<p>Hello {{.ClientName}},</p>
<p>Please find attached invoice <strong>{{.Number}}</strong> from {{.BusinessName}} for <strong>{{.Total}}</strong>{{if .DueDate}}, due {{.DueDate}}{{end}}.</p>
<p>Thank you for your business!</p>
`))

// NewInvoiceMessage builds the email that delivers pdf for inv to recipient
func NewInvoiceMessage(from, recipient string, inv *invoice.Invoice, businessName string, pdf []byte) (*Message, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return nil, ErrNoRecipient
	}
	total, err := invoice.ComputeTotal(inv.Items, inv.CurrencyOrDefault())
	if err != nil {
		return nil, err
	}
	if inv.BusinessName != "" {
		businessName = inv.BusinessName
	}

	var body bytes.Buffer
	err = invoiceBody.Execute(&body, map[string]string{
		"ClientName":   orDefault(inv.ClientName, "there"),
		"Number":       orDefault(inv.InvoiceNumber, render.PlaceholderMissing),
		"BusinessName": orDefault(businessName, "us"),
		"Total":        invoice.FormatMoney(total, inv.CurrencyOrDefault()),
		"DueDate":      inv.DueDate.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render email body: %w", err)
	}

	return &Message{
		From:    from,
		To:      []string{recipient},
		Subject: "Invoice " + orDefault(inv.InvoiceNumber, render.PlaceholderMissing),
		HTML:    body.String(),
		Attachments: []Attachment{{
			Filename: render.AttachmentFilename(inv.InvoiceNumber),
			Content:  pdf,
		}},
	}, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// ResendSender delivers mail through the Resend API
type ResendSender struct {
	client  *resend.Client
	timeout time.Duration
}

// NewResendSender creates a Resend sender. An empty baseURL uses DefaultResendURL.
func NewResendSender(apiKey, baseURL string) (*ResendSender, error) {
	client := resend.NewClient(apiKey)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid resend url: %w", err)
		}
		client.BaseURL = u
	}
	return &ResendSender{client: client, timeout: 15 * time.Second}, nil
}

// Send hands msg to Resend and returns the provider message ID
func (s *ResendSender) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	req := &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename: a.Filename,
			Content:  a.Content,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		return "", fmt.Errorf("email provider rejected message: %w", err)
	}
	return resp.Id, nil
}

// LogSender logs messages instead of sending them, for development
type LogSender struct {
	logger logrus.FieldLogger
}

// NewLogSender creates a LogSender
func NewLogSender(logger logrus.FieldLogger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message envelope and returns a synthetic ID
func (s *LogSender) Send(ctx context.Context, msg *Message) (string, error) {
	if len(msg.To) == 0 {
		return "", ErrNoRecipient
	}
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	s.logger.WithFields(logrus.Fields{
		"to":          strings.Join(msg.To, ","),
		"subject":     msg.Subject,
		"attachments": names,
	}).Info("email not sent: log sender")
	return fmt.Sprintf("log-%d", time.Now().UnixNano()), nil
}
