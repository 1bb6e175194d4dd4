package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/plan"
)

// InvoiceCounter counts the invoices an account holds
type InvoiceCounter interface {
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

// AuthHandlers handles registration, sign-in and the current account
type AuthHandlers struct {
	accounts *accounts.Service
	sessions auth.SessionStore
	invoices InvoiceCounter
	limiter  middleware.Limiter
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(accountService *accounts.Service, sessions auth.SessionStore, invoices InvoiceCounter, limiter middleware.Limiter, metrics *observability.Metrics) *AuthHandlers {
	if limiter == nil {
		limiter = middleware.NewRateLimiter(middleware.LoginRateLimitConfig())
	}
	return &AuthHandlers{
		accounts: accountService,
		sessions: sessions,
		invoices: invoices,
		limiter:  limiter,
		metrics:  metrics,
		now:      time.Now,
	}
}

// RegisterPublicRoutes registers the routes that do not need a session
func (h *AuthHandlers) RegisterPublicRoutes(router *mux.Router) {
	router.HandleFunc("/auth/register", h.register).Methods("POST")
	router.HandleFunc("/auth/login", h.login).Methods("POST")
}

// RegisterRoutes registers the session-bound routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/logout", h.logout).Methods("POST")
	router.HandleFunc("/me", h.me).Methods("GET")
}

// SessionResponse is returned after registering or signing in
type SessionResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Account   *accounts.Account `json:"account"`
}

// MeResponse describes the signed-in account and what its plan allows
type MeResponse struct {
	Account          *accounts.Account `json:"account"`
	Tier             plan.Tier         `json:"tier"`
	OnTrial          bool              `json:"on_trial"`
	InvoiceCount     int               `json:"invoice_count"`
	CanCreateInvoice bool              `json:"can_create_invoice"`
	CanExportCSV     bool              `json:"can_export_csv"`
	CanUploadLogo    bool              `json:"can_upload_logo"`
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req accounts.RegisterRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	account, err := h.accounts.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	session, ok := h.startSession(w, r, account)
	if !ok {
		return
	}
	observability.FromContext(r.Context()).WithField("account_id", account.ID).Info("Account registered")
	httputil.WriteCreated(w, session)
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req accounts.LoginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	ctx := r.Context()
	allowed, err := h.limiter.Allow(ctx, accounts.NormalizeEmail(req.Email))
	if err != nil {
		observability.FromContext(ctx).WithError(err).Warn("Login rate limiter unavailable, allowing attempt")
	}
	if !allowed {
		h.metrics.LoginThrottledTotal.Inc()
		cfg := h.limiter.Config()
		w.Header().Set("Retry-After", strconv.Itoa(int(cfg.WindowDuration.Seconds())))
		httputil.WriteTooManyRequests(w, "too many login attempts, try again later")
		return
	}

	account, err := h.accounts.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	session, ok := h.startSession(w, r, account)
	if !ok {
		return
	}
	httputil.WriteSuccess(w, session)
}

func (h *AuthHandlers) startSession(w http.ResponseWriter, r *http.Request, account *accounts.Account) (*SessionResponse, bool) {
	token, session, err := h.sessions.Create(r.Context(), account.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return nil, false
	}
	return &SessionResponse{Token: token, ExpiresAt: session.ExpiresAt, Account: account}, true
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	token, err := middleware.BearerToken(r)
	if err != nil {
		httputil.WriteUnauthorized(w, err.Error())
		return
	}
	if err := h.sessions.Revoke(r.Context(), token); err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	accountCtx := middleware.GetAccountContext(r)

	count, err := h.invoices.Count(r.Context(), accountCtx.AccountID())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	isPro := accountCtx.IsPro()
	httputil.WriteSuccess(w, &MeResponse{
		Account:          accountCtx.Account,
		Tier:             accountCtx.Tier(),
		OnTrial:          accountCtx.Account.OnTrial(h.now()),
		InvoiceCount:     count,
		CanCreateInvoice: plan.CanCreateInvoice(isPro, count),
		CanExportCSV:     plan.CanExportCSV(isPro),
		CanUploadLogo:    plan.CanUploadLogo(isPro),
	})
}
