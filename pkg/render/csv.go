package render

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/platinummonkey/tally/pkg/invoice"
)

// CSVHeader is the first line of every CSV report
const CSVHeader = "invoice_number,client_name,client_email,issue_date,due_date,total,currency,payment_method"

func csvRecord(inv *invoice.Invoice) ([]string, error) {
	code := inv.CurrencyOrDefault()
	total, err := invoice.ComputeTotal(inv.Items, code)
	if err != nil {
		return nil, &RenderError{Format: "csv", Err: err}
	}
	return []string{
		inv.InvoiceNumber,
		inv.ClientName,
		inv.ClientEmail,
		inv.IssueDate.String(),
		inv.DueDate.String(),
		total.StringFixed(invoice.Scale(code)),
		code,
		inv.PaymentMethods,
	}, nil
}

func writeRecords(records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", &RenderError{Format: "csv", Err: err}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// RenderInvoiceCSVRow renders one invoice as a single CSV record without a
// line terminator. Fields containing commas, quotes or newlines are quoted.
func RenderInvoiceCSVRow(inv *invoice.Invoice) (string, error) {
	record, err := csvRecord(inv)
	if err != nil {
		return "", err
	}
	return writeRecords([][]string{record})
}

// RenderCSVReport renders a header line followed by one line per invoice
func RenderCSVReport(invoices []*invoice.Invoice) (string, error) {
	records := make([][]string, 0, len(invoices)+1)
	records = append(records, strings.Split(CSVHeader, ","))
	for _, inv := range invoices {
		record, err := csvRecord(inv)
		if err != nil {
			return "", err
		}
		records = append(records, record)
	}
	return writeRecords(records)
}
