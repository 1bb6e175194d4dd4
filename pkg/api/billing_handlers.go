package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/billing"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/observability"
)

// maxWebhookBytes bounds a Stripe event payload
const maxWebhookBytes = 64 << 10

// SignatureHeader carries the Stripe webhook signature
const SignatureHeader = "Stripe-Signature"

// BillingHandlers receives Stripe webhook deliveries
type BillingHandlers struct {
	processor WebhookProcessor
	metrics   *observability.Metrics
}

// NewBillingHandlers creates new billing handlers. A nil processor makes
// the webhook answer 503.
func NewBillingHandlers(processor WebhookProcessor, metrics *observability.Metrics) *BillingHandlers {
	return &BillingHandlers{
		processor: processor,
		metrics:   metrics,
	}
}

// RegisterRoutes registers billing routes
func (h *BillingHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/billing/webhook", h.handleWebhook).Methods("POST")
}

// WebhookResponse acknowledges a webhook delivery
type WebhookResponse struct {
	Received bool            `json:"received"`
	Outcome  billing.Outcome `json:"outcome"`
}

func (h *BillingHandlers) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "billing is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, "webhook payload too large")
			return
		}
		httputil.WriteBadRequest(w, "failed to read request body")
		return
	}

	logger := observability.FromContext(r.Context())
	event, outcome, err := h.processor.Handle(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		if isRejectedDelivery(err) {
			h.metrics.WebhookEventsTotal.WithLabelValues("unknown", "rejected").Inc()
			logger.WithError(err).Warn("Rejected billing webhook")
			httputil.WriteBadRequest(w, err.Error())
			return
		}
		eventType := "unknown"
		if event != nil {
			eventType = string(event.Type)
		}
		h.metrics.WebhookEventsTotal.WithLabelValues(eventType, "error").Inc()
		writeServiceError(w, r, err)
		return
	}

	h.metrics.WebhookEventsTotal.WithLabelValues(string(event.Type), string(outcome)).Inc()
	httputil.WriteSuccess(w, &WebhookResponse{Received: true, Outcome: outcome})
}

func isRejectedDelivery(err error) bool {
	return errors.Is(err, billing.ErrMissingSignature) ||
		errors.Is(err, billing.ErrInvalidSignature) ||
		errors.Is(err, billing.ErrExpiredSignature) ||
		errors.Is(err, billing.ErrMalformedEvent)
}
