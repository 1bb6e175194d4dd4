package render

import (
	"regexp"
	"strings"
	"time"

	"github.com/platinummonkey/tally/pkg/invoice"
)

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	unsafeFileChar = regexp.MustCompile(`["/\\]`)
)

// DefaultFilenameClient stands in for an empty client name in download names
const DefaultFilenameClient = "Client"

// DocumentFilename names the PDF download: Invoice-<Client_Name>-<YYYY-MM-DD>.pdf.
// The date is the invoice's issue date so the same invoice always downloads
// under the same name; it is left out when the invoice has none.
func DocumentFilename(clientName string, issueDate invoice.Date) string {
	name := unsafeFileChar.ReplaceAllString(strings.TrimSpace(clientName), "")
	if name == "" {
		name = DefaultFilenameClient
	}
	parts := []string{"Invoice", whitespaceRun.ReplaceAllString(name, "_")}
	if !issueDate.IsZero() {
		parts = append(parts, issueDate.String())
	}
	return strings.Join(parts, "-") + ".pdf"
}

// AttachmentFilename names the PDF attached to an invoice email
func AttachmentFilename(invoiceNumber string) string {
	number := unsafeFileChar.ReplaceAllString(strings.TrimSpace(invoiceNumber), "")
	if number == "" {
		return "Invoice.pdf"
	}
	return "Invoice-" + whitespaceRun.ReplaceAllString(number, "_") + ".pdf"
}

// ReportFilename names a CSV export produced at now
func ReportFilename(now time.Time) string {
	return "invoices-" + now.Format(invoice.DateLayout) + ".csv"
}
