package invoice

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when an invoice does not name one
const DefaultCurrency = "USD"

// LineItem is one billable row of an invoice
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Amount returns quantity times price, unrounded
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.Price)
}

// Invoice is a billing document issued by an account to one of its clients.
// Client fields are a snapshot taken when the invoice was created.
type Invoice struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	ClientID       *uuid.UUID      `json:"client_id,omitempty"`
	InvoiceNumber  string          `json:"invoice_number"`
	IssueDate      Date            `json:"issue_date"`
	DueDate        Date            `json:"due_date"`
	BusinessName   string          `json:"business_name"`
	ClientName     string          `json:"client_name"`
	ClientAddress  string          `json:"client_address"`
	ClientEmail    string          `json:"client_email"`
	Items          []LineItem      `json:"items"`
	Currency       string          `json:"currency"`
	Total          decimal.Decimal `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	PaymentMethods string          `json:"payment_methods,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CurrencyOrDefault returns the invoice currency, falling back to DefaultCurrency
func (inv *Invoice) CurrencyOrDefault() string {
	if inv.Currency == "" {
		return DefaultCurrency
	}
	return inv.Currency
}

// Recalculate validates the items and replaces Total with the derived value
func (inv *Invoice) Recalculate() error {
	total, err := ComputeTotal(inv.Items, inv.CurrencyOrDefault())
	if err != nil {
		return err
	}
	inv.Total = total
	return nil
}

// Draft is the editable part of an invoice as submitted by a user
type Draft struct {
	ClientID       *uuid.UUID `json:"client_id,omitempty"`
	InvoiceNumber  string     `json:"invoice_number"`
	IssueDate      Date       `json:"issue_date"`
	DueDate        Date       `json:"due_date"`
	BusinessName   string     `json:"business_name"`
	ClientName     string     `json:"client_name"`
	ClientAddress  string     `json:"client_address"`
	ClientEmail    string     `json:"client_email"`
	Items          []LineItem `json:"items"`
	Currency       string     `json:"currency"`
	Notes          string     `json:"notes"`
	PaymentMethods string     `json:"payment_methods"`
}

// Apply copies the draft onto inv. Total is recomputed, never copied.
func (d *Draft) Apply(inv *Invoice) error {
	inv.ClientID = d.ClientID
	inv.InvoiceNumber = d.InvoiceNumber
	inv.IssueDate = d.IssueDate
	inv.DueDate = d.DueDate
	inv.BusinessName = d.BusinessName
	inv.ClientName = d.ClientName
	inv.ClientAddress = d.ClientAddress
	inv.ClientEmail = d.ClientEmail
	inv.Items = d.Items
	if inv.Items == nil {
		inv.Items = []LineItem{}
	}
	inv.Currency = d.Currency
	inv.Notes = d.Notes
	inv.PaymentMethods = d.PaymentMethods
	return inv.Recalculate()
}
