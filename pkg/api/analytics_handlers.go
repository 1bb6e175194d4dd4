package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/analytics"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/middleware"
)

// InvoiceLister lists an account's invoices
type InvoiceLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]*invoice.Invoice, error)
}

// AnalyticsHandlers serves the dashboard summary
type AnalyticsHandlers struct {
	invoices InvoiceLister
}

// NewAnalyticsHandlers creates new analytics handlers
func NewAnalyticsHandlers(invoices InvoiceLister) *AnalyticsHandlers {
	return &AnalyticsHandlers{invoices: invoices}
}

// RegisterRoutes registers analytics routes
func (h *AnalyticsHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/analytics/summary", h.getSummary).Methods("GET")
}

func (h *AnalyticsHandlers) getSummary(w http.ResponseWriter, r *http.Request) {
	list, err := h.invoices.List(r.Context(), middleware.GetAccountContext(r).AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, analytics.Summarize(list))
}
