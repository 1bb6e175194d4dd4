package api

import (
	"net/http"

	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
)

// Upgrade prompts for Pro-only features
const (
	upgradeForCSV  = "Upgrade to Pro to export invoices as CSV"
	upgradeForLogo = "Upgrade to Pro to add your logo to invoices"
)

// requirePro wraps middleware.RequirePro and counts denials per resource
func requirePro(metrics *observability.Metrics, resource, message string) func(http.Handler) http.Handler {
	gate := middleware.RequirePro(message)
	return func(next http.Handler) http.Handler {
		gated := gate(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if accountCtx := middleware.GetAccountContext(r); accountCtx != nil && !accountCtx.IsPro() {
				metrics.PlanDenialsTotal.WithLabelValues(resource).Inc()
			}
			gated.ServeHTTP(w, r)
		})
	}
}
