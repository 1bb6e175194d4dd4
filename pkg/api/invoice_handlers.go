package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/mail"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/plan"
	"github.com/platinummonkey/tally/pkg/render"
)

// InvoiceDependencies groups what the invoice handlers need
type InvoiceDependencies struct {
	Invoices invoice.Store
	Clients  clients.Store
	Logos    *logos.Service
	Renderer render.Renderer
	Mailer   mail.Sender
	MailFrom string
	Metrics  *observability.Metrics
}

// InvoiceHandlers handles invoice CRUD, documents and delivery
type InvoiceHandlers struct {
	deps    InvoiceDependencies
	metrics *observability.Metrics
	now     func() time.Time
}

// NewInvoiceHandlers creates new invoice handlers
func NewInvoiceHandlers(deps InvoiceDependencies) *InvoiceHandlers {
	return &InvoiceHandlers{
		deps:    deps,
		metrics: deps.Metrics,
		now:     time.Now,
	}
}

// RegisterRoutes registers invoice routes
func (h *InvoiceHandlers) RegisterRoutes(router *mux.Router) {
	// export.csv must be registered before /invoices/{id}
	router.Handle("/invoices/export.csv", requirePro(h.metrics, "csv", upgradeForCSV)(http.HandlerFunc(h.exportCSV))).Methods("GET")

	router.HandleFunc("/invoices", h.listInvoices).Methods("GET")
	router.HandleFunc("/invoices", h.createInvoice).Methods("POST")
	router.HandleFunc("/invoices/{id}", h.getInvoice).Methods("GET")
	router.HandleFunc("/invoices/{id}", h.updateInvoice).Methods("PUT")
	router.HandleFunc("/invoices/{id}", h.deleteInvoice).Methods("DELETE")
	router.HandleFunc("/invoices/{id}/pdf", h.downloadPDF).Methods("GET")
	router.HandleFunc("/invoices/{id}/send", h.sendInvoice).Methods("POST")
}

// SendRequest optionally overrides the recipient of an invoice email
type SendRequest struct {
	Email string `json:"email"`
}

// SendResponse reports a delivered invoice email
type SendResponse struct {
	MessageID string `json:"message_id"`
	To        string `json:"to"`
}

func (h *InvoiceHandlers) listInvoices(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Invoices.List(r.Context(), middleware.GetAccountContext(r).AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if list == nil {
		list = []*invoice.Invoice{}
	}
	httputil.WriteSuccess(w, list)
}

func (h *InvoiceHandlers) getInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, inv)
}

// createInvoice checks the plan gate before looking at the payload
func (h *InvoiceHandlers) createInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountCtx := middleware.GetAccountContext(r)

	count, err := h.deps.Invoices.Count(ctx, accountCtx.AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := plan.CheckInvoiceQuota(accountCtx.IsPro(), count); err != nil {
		h.metrics.PlanDenialsTotal.WithLabelValues("invoices").Inc()
		observability.FromContext(ctx).WithField("invoice_count", count).Info("Invoice creation denied by plan")
		writeServiceError(w, r, err)
		return
	}

	var draft invoice.Draft
	if !httputil.ParseJSONOrError(w, r, &draft) {
		return
	}

	if draft.ClientID != nil {
		client, err := h.deps.Clients.Get(ctx, accountCtx.AccountID(), *draft.ClientID)
		if errors.Is(err, clients.ErrNotFound) {
			httputil.WriteBadRequest(w, "client not found")
			return
		}
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		snapshotClient(&draft, client)
	}
	if strings.TrimSpace(draft.BusinessName) == "" {
		draft.BusinessName = accountCtx.Profile().Name
	}
	if strings.TrimSpace(draft.InvoiceNumber) == "" {
		draft.InvoiceNumber = invoice.GenerateNumber(h.now(), nil)
	}

	inv := &invoice.Invoice{UserID: accountCtx.AccountID()}
	if err := draft.Apply(inv); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.deps.Invoices.Create(ctx, inv); err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.metrics.InvoicesCreatedTotal.Inc()
	httputil.WriteCreated(w, inv)
}

// snapshotClient copies the client's details onto blank draft fields
func snapshotClient(draft *invoice.Draft, client *clients.Client) {
	if strings.TrimSpace(draft.ClientName) == "" {
		draft.ClientName = client.Name
	}
	if strings.TrimSpace(draft.ClientEmail) == "" {
		draft.ClientEmail = client.Email
	}
	if strings.TrimSpace(draft.ClientAddress) == "" {
		draft.ClientAddress = client.Address
	}
}

// updateInvoice applies an edited draft. The client snapshot is taken from
// the payload as-is and never refreshed from the client book.
func (h *InvoiceHandlers) updateInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	var draft invoice.Draft
	if !httputil.ParseJSONOrError(w, r, &draft) {
		return
	}
	if strings.TrimSpace(draft.InvoiceNumber) == "" {
		draft.InvoiceNumber = inv.InvoiceNumber
	}

	if err := draft.Apply(inv); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := h.deps.Invoices.Update(r.Context(), inv); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, inv)
}

func (h *InvoiceHandlers) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return
	}

	if err := h.deps.Invoices.Delete(r.Context(), middleware.GetAccountContext(r).AccountID(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *InvoiceHandlers) downloadPDF(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	pdf, err := h.renderPDF(r.Context(), middleware.GetAccountContext(r), inv)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httputil.WriteAttachment(w, "application/pdf", render.DocumentFilename(inv.ClientName, inv.IssueDate), pdf)
}

func (h *InvoiceHandlers) sendInvoice(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.loadInvoice(w, r)
	if !ok {
		return
	}

	var req SendRequest
	if err := httputil.ParseJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	recipient := strings.TrimSpace(req.Email)
	if recipient == "" {
		recipient = strings.TrimSpace(inv.ClientEmail)
	}
	if recipient == "" {
		httputil.WriteBadRequest(w, "invoice has no client email; provide one to send to")
		return
	}

	ctx := r.Context()
	accountCtx := middleware.GetAccountContext(r)
	pdf, err := h.renderPDF(ctx, accountCtx, inv)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	msg, err := mail.NewInvoiceMessage(h.deps.MailFrom, recipient, inv, accountCtx.Profile().Name, pdf)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger := observability.FromContext(ctx).WithFields(map[string]interface{}{
		"invoice_id": inv.ID,
		"recipient":  recipient,
	})
	messageID, err := h.deps.Mailer.Send(ctx, msg)
	if err != nil {
		h.metrics.EmailsSentTotal.WithLabelValues("failed").Inc()
		logger.WithError(err).Error("Failed to send invoice email")
		httputil.WriteBadGateway(w, "failed to send invoice email")
		return
	}

	h.metrics.EmailsSentTotal.WithLabelValues("sent").Inc()
	logger.WithField("message_id", messageID).Info("Invoice email sent")
	httputil.WriteSuccess(w, &SendResponse{MessageID: messageID, To: recipient})
}

func (h *InvoiceHandlers) exportCSV(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Invoices.List(r.Context(), middleware.GetAccountContext(r).AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	start := time.Now()
	report, err := render.RenderCSVReport(list)
	h.metrics.ObserveRender("csv", time.Since(start), err)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	_ = httputil.WriteAttachment(w, "text/csv; charset=utf-8", render.ReportFilename(h.now()), []byte(report))
}

func (h *InvoiceHandlers) loadInvoice(w http.ResponseWriter, r *http.Request) (*invoice.Invoice, bool) {
	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
	if !ok {
		return nil, false
	}

	inv, err := h.deps.Invoices.Get(r.Context(), middleware.GetAccountContext(r).AccountID(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return inv, true
}

// renderPDF renders inv with the caller's profile. A logo that cannot be
// loaded is logged and left out rather than failing the document.
func (h *InvoiceHandlers) renderPDF(ctx context.Context, accountCtx *auth.AccountContext, inv *invoice.Invoice) ([]byte, error) {
	profile := accountCtx.Profile()
	if h.deps.Logos != nil && accountCtx.Account.LogoKey != "" {
		logo, err := h.deps.Logos.Load(ctx, accountCtx.Account.LogoKey)
		if err != nil {
			observability.FromContext(ctx).WithError(err).Warn("Failed to load logo, rendering without it")
		}
		profile.Logo = logo
	}

	start := time.Now()
	pdf, err := h.deps.Renderer.Render(inv, profile)
	h.metrics.ObserveRender("pdf", time.Since(start), err)
	return pdf, err
}
