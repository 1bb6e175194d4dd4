package render

import (
	"bytes"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/platinummonkey/tally/pkg/invoice"
)

// DejaVu covers Latin, Greek and Cyrillic. Runes outside it print as the
// font's missing-glyph box.
var (
	//go:embed fonts/DejaVuSansCondensed.ttf
	fontRegular []byte
	//go:embed fonts/DejaVuSansCondensed-Bold.ttf
	fontBold []byte
)

const fontFamily = "DejaVu"

// Placeholders printed when an optional invoice field is empty
const (
	PlaceholderMissing       = "N/A"
	PlaceholderBusinessName  = "Your Business Name"
	PlaceholderClientName    = "Client Name"
	PlaceholderClientAddress = "Client Address"
	FooterText               = "Thank you for your business!"
)

const (
	pageMargin   = 15.0
	contentWidth = 210.0 - 2*pageMargin
	logoWidth    = 40.0
	lineHeight   = 6.0
	descWidth    = 100.0
	qtyWidth     = 30.0
	priceWidth   = contentWidth - descWidth - qtyWidth
)

// BusinessProfile is the issuing business as printed on a document
type BusinessProfile struct {
	Name    string
	Address string
	Phone   string
	Logo    []byte
}

// Renderer produces a document for one invoice
type Renderer interface {
	Render(inv *invoice.Invoice, profile BusinessProfile) ([]byte, error)
}

// PDFRenderer lays out invoices on A4 pages
type PDFRenderer struct {
	// Compress enables flate compression of page content streams
	Compress bool
}

// NewPDFRenderer creates a PDFRenderer with compressed output
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{Compress: true}
}

// RenderInvoiceDocument renders inv as a compressed PDF
func RenderInvoiceDocument(inv *invoice.Invoice, profile BusinessProfile) ([]byte, error) {
	return NewPDFRenderer().Render(inv, profile)
}

// Render produces the PDF bytes for inv. Malformed input yields a RenderError.
func (r *PDFRenderer) Render(inv *invoice.Invoice, profile BusinessProfile) (out []byte, err error) {
	if inv == nil || inv.Items == nil {
		return nil, &RenderError{Format: "pdf", Err: ErrMissingItems}
	}
	code := inv.CurrencyOrDefault()
	total, err := invoice.ComputeTotal(inv.Items, code)
	if err != nil {
		return nil, &RenderError{Format: "pdf", Err: err}
	}

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = &RenderError{Format: "pdf", Err: fmt.Errorf("layout panic: %v", rec)}
		}
	}()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(creationDate(inv.IssueDate))
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetTitle("Invoice "+orPlaceholder(inv.InvoiceNumber, PlaceholderMissing), true)

	pdf.AddUTF8FontFromBytes(fontFamily, "", fontRegular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fontBold)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 9)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, lineHeight, FooterText, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	drawLogo(pdf, profile.Logo)
	drawHeader(pdf, inv, profile)
	drawBillTo(pdf, inv)
	drawItems(pdf, inv.Items, code)
	drawTotal(pdf, total, code)
	drawNotes(pdf, "Notes:", inv.Notes)
	drawNotes(pdf, "Payment Methods:", inv.PaymentMethods)

	if pdf.Err() {
		return nil, &RenderError{Format: "pdf", Err: pdf.Error()}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{Format: "pdf", Err: err}
	}
	return buf.Bytes(), nil
}

func creationDate(d invoice.Date) time.Time {
	if d.IsZero() {
		return time.Unix(0, 0).UTC()
	}
	return d.Time()
}

func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}

// drawLogo centers the logo above the header. Undecodable images are skipped.
func drawLogo(pdf *gofpdf.Fpdf, logo []byte) {
	if len(logo) == 0 {
		return
	}
	var imageType string
	switch http.DetectContentType(logo) {
	case "image/png":
		imageType = "PNG"
	case "image/jpeg":
		imageType = "JPG"
	default:
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("logo", opts, bytes.NewReader(logo))
	if !pdf.Ok() {
		pdf.ClearError()
		return
	}
	pdf.ImageOptions("logo", (210.0-logoWidth)/2, pdf.GetY(), logoWidth, 0, true, opts, 0, "")
	pdf.Ln(4)
}

func drawHeader(pdf *gofpdf.Fpdf, inv *invoice.Invoice, profile BusinessProfile) {
	businessName := inv.BusinessName
	if strings.TrimSpace(businessName) == "" {
		businessName = profile.Name
	}

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont(fontFamily, "B", 18)
	pdf.CellFormat(contentWidth/2, 10, "Invoice #: "+orPlaceholder(inv.InvoiceNumber, PlaceholderMissing), "", 0, "L", false, 0, "")
	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(contentWidth/2, 10, orPlaceholder(businessName, PlaceholderBusinessName), "", 1, "R", false, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, line := range []string{profile.Address, profile.Phone} {
		if strings.TrimSpace(line) == "" {
			continue
		}
		pdf.CellFormat(contentWidth, 5, line, "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.CellFormat(contentWidth, lineHeight, "Issue Date: "+orPlaceholder(inv.IssueDate.String(), PlaceholderMissing), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, "Due Date: "+orPlaceholder(inv.DueDate.String(), PlaceholderMissing), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func drawBillTo(pdf *gofpdf.Fpdf, inv *invoice.Invoice) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(contentWidth, 7, "Bill To:", "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.CellFormat(contentWidth, lineHeight, orPlaceholder(inv.ClientName, PlaceholderClientName), "", 1, "L", false, 0, "")
	pdf.MultiCell(contentWidth, lineHeight, orPlaceholder(inv.ClientAddress, PlaceholderClientAddress), "", "L", false)
	if strings.TrimSpace(inv.ClientEmail) != "" {
		pdf.CellFormat(contentWidth, lineHeight, inv.ClientEmail, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)
}

func drawItems(pdf *gofpdf.Fpdf, items []invoice.LineItem, code string) {
	pdf.SetFont(fontFamily, "B", 10)
	pdf.SetFillColor(235, 235, 235)
	pdf.SetDrawColor(200, 200, 200)
	pdf.CellFormat(descWidth, 8, "Description", "1", 0, "L", true, 0, "")
	pdf.CellFormat(qtyWidth, 8, "Qty", "1", 0, "R", true, 0, "")
	pdf.CellFormat(priceWidth, 8, "Price", "1", 1, "R", true, 0, "")

	pdf.SetFont(fontFamily, "", 10)
	for _, item := range items {
		pdf.CellFormat(descWidth, 7, item.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(qtyWidth, 7, item.Quantity.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(priceWidth, 7, invoice.FormatMoney(item.Price, code), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)
}

func drawTotal(pdf *gofpdf.Fpdf, total decimal.Decimal, code string) {
	pdf.SetFont(fontFamily, "B", 12)
	pdf.CellFormat(contentWidth, 8, "Total: "+invoice.FormatMoney(total, code), "", 1, "R", false, 0, "")
	pdf.Ln(4)
}

func drawNotes(pdf *gofpdf.Fpdf, label, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	pdf.SetFont(fontFamily, "B", 10)
	pdf.CellFormat(contentWidth, lineHeight, label, "", 1, "L", false, 0, "")
	pdf.SetFont(fontFamily, "", 10)
	pdf.MultiCell(contentWidth, 5, text, "", "L", false)
	pdf.Ln(2)
}
