package analytics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/platinummonkey/tally/pkg/invoice"
)

// TopClientLimit is the number of clients listed in a summary
const TopClientLimit = 5

// Totals maps a currency code to an amount
type Totals map[string]decimal.Decimal

func (t Totals) add(code string, amount decimal.Decimal) {
	t[code] = t[code].Add(amount)
}

// ClientSummary aggregates the invoices issued to one client
type ClientSummary struct {
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	InvoiceCount int    `json:"invoice_count"`
	Totals       Totals `json:"totals"`
}

// MonthSummary aggregates the invoices issued in one calendar month
type MonthSummary struct {
	Month        string `json:"month"`
	InvoiceCount int    `json:"invoice_count"`
	Totals       Totals `json:"totals"`
}

// Summary is the dashboard view of an account's invoices
type Summary struct {
	TotalInvoices    int             `json:"total_invoices"`
	TotalsByCurrency Totals          `json:"totals_by_currency"`
	TopClients       []ClientSummary `json:"top_clients"`
	Monthly          []MonthSummary  `json:"monthly"`
}

// Summarize builds a Summary from invoices. It does not modify its input.
func Summarize(invoices []*invoice.Invoice) *Summary {
	summary := &Summary{
		TotalsByCurrency: Totals{},
		TopClients:       []ClientSummary{},
		Monthly:          []MonthSummary{},
	}

	clients := make(map[string]*ClientSummary)
	months := make(map[string]*MonthSummary)

	for _, inv := range invoices {
		if inv == nil {
			continue
		}
		code := inv.CurrencyOrDefault()
		amount := invoiceTotal(inv, code)

		summary.TotalInvoices++
		summary.TotalsByCurrency.add(code, amount)

		key := clientKey(inv)
		c, ok := clients[key]
		if !ok {
			c = &ClientSummary{Name: inv.ClientName, Email: inv.ClientEmail, Totals: Totals{}}
			clients[key] = c
		}
		c.InvoiceCount++
		c.Totals.add(code, amount)

		month := monthOf(inv)
		m, ok := months[month]
		if !ok {
			m = &MonthSummary{Month: month, Totals: Totals{}}
			months[month] = m
		}
		m.InvoiceCount++
		m.Totals.add(code, amount)
	}

	for _, c := range clients {
		summary.TopClients = append(summary.TopClients, *c)
	}
	sort.Slice(summary.TopClients, func(i, j int) bool {
		a, b := summary.TopClients[i], summary.TopClients[j]
		if a.InvoiceCount != b.InvoiceCount {
			return a.InvoiceCount > b.InvoiceCount
		}
		return a.Name < b.Name
	})
	if len(summary.TopClients) > TopClientLimit {
		summary.TopClients = summary.TopClients[:TopClientLimit]
	}

	for _, m := range months {
		summary.Monthly = append(summary.Monthly, *m)
	}
	sort.Slice(summary.Monthly, func(i, j int) bool {
		return summary.Monthly[i].Month < summary.Monthly[j].Month
	})

	return summary
}

// invoiceTotal recomputes the total from the items, falling back to the
// stored value for rows that no longer validate.
func invoiceTotal(inv *invoice.Invoice, code string) decimal.Decimal {
	total, err := invoice.ComputeTotal(inv.Items, code)
	if err != nil {
		return inv.Total
	}
	return total
}

func clientKey(inv *invoice.Invoice) string {
	if inv.ClientID != nil {
		return "id:" + inv.ClientID.String()
	}
	return "name:" + strings.ToLower(strings.TrimSpace(inv.ClientName))
}

func monthOf(inv *invoice.Invoice) string {
	if !inv.IssueDate.IsZero() {
		return inv.IssueDate.Time().Format("2006-01")
	}
	if !inv.CreatedAt.IsZero() {
		return inv.CreatedAt.UTC().Format("2006-01")
	}
	return "unknown"
}
