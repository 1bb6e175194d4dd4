package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stripe/stripe-go/v81"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/billing"
	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/mail"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/projects"
	"github.com/platinummonkey/tally/pkg/render"
)

// WebhookProcessor verifies and applies billing webhook deliveries
type WebhookProcessor interface {
	Handle(ctx context.Context, payload []byte, signatureHeader string) (*stripe.Event, billing.Outcome, error)
}

// Dependencies are the stores and services the API is built from
type Dependencies struct {
	Accounts accounts.Store
	Sessions auth.SessionStore
	Limiter  middleware.Limiter
	Clients  clients.Store
	Projects projects.Store
	Invoices invoice.Store
	Renderer render.Renderer
	Mailer   mail.Sender
	MailFrom string

	// Logos is nil when object storage is not configured
	Logos *logos.Service
	// Billing is nil when no webhook secret is configured
	Billing WebhookProcessor

	Metrics *observability.Metrics
	Logger  *observability.Logger

	CORSOrigins  []string
	MaxBodyBytes int64
}

// Server represents our API server
type Server struct {
	deps    Dependencies
	router  *mux.Router
	metrics *observability.Metrics
	logger  *observability.Logger

	authHandlers      *AuthHandlers
	profileHandlers   *ProfileHandlers
	clientHandlers    *ClientHandlers
	projectHandlers   *ProjectHandlers
	invoiceHandlers   *InvoiceHandlers
	billingHandlers   *BillingHandlers
	analyticsHandlers *AnalyticsHandlers
}

// NewServer creates a new API server
func NewServer(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewPDFRenderer()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(prometheus.NewRegistry())
	}
	if deps.Mailer == nil {
		deps.Mailer = mail.NewLogSender(deps.Logger.Entry())
	}

	s := &Server{
		deps:    deps,
		router:  mux.NewRouter(),
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}

	s.authHandlers = NewAuthHandlers(accounts.NewService(deps.Accounts), deps.Sessions, deps.Invoices, deps.Limiter, deps.Metrics)
	s.profileHandlers = NewProfileHandlers(deps.Accounts, deps.Logos, deps.Metrics)
	s.clientHandlers = NewClientHandlers(deps.Clients)
	s.projectHandlers = NewProjectHandlers(deps.Projects)
	s.invoiceHandlers = NewInvoiceHandlers(InvoiceDependencies{
		Invoices: deps.Invoices,
		Clients:  deps.Clients,
		Logos:    deps.Logos,
		Renderer: deps.Renderer,
		Mailer:   deps.Mailer,
		MailFrom: deps.MailFrom,
		Metrics:  deps.Metrics,
	})
	s.billingHandlers = NewBillingHandlers(deps.Billing, deps.Metrics)
	s.analyticsHandlers = NewAnalyticsHandlers(deps.Invoices)

	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	s.router.Use(observability.HTTPMetricsMiddleware(s.metrics))
	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFoundError(w, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := s.router.PathPrefix("/api").Subrouter()

	// Public routes
	s.authHandlers.RegisterPublicRoutes(api)
	s.billingHandlers.RegisterRoutes(api)

	// Everything else requires a session
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.NewAuthMiddleware(s.deps.Sessions, s.deps.Accounts).Handler)

	s.authHandlers.RegisterRoutes(protected)
	s.profileHandlers.RegisterRoutes(protected)
	s.clientHandlers.RegisterRoutes(protected)
	s.projectHandlers.RegisterRoutes(protected)
	s.invoiceHandlers.RegisterRoutes(protected)
	s.analyticsHandlers.RegisterRoutes(protected)
}

// Router exposes the underlying router, mainly for tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server wrapped in the standard middleware stack
func (s *Server) Handler() http.Handler {
	maxBytes := s.deps.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}

	chain := httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.logger),
		httputil.RecoveryMiddleware(s.logger),
		httputil.CORSMiddleware(s.deps.CORSOrigins),
		httputil.MaxBytesMiddleware(maxBytes),
	)
	return otelhttp.NewHandler(chain(s.router), "tally-api")
}
