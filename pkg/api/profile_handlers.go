package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/async"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
)

// logoCleanupTimeout bounds the background deletion of a replaced logo
const logoCleanupTimeout = 30 * time.Second

// ProfileHandlers handles the business profile printed on invoices
type ProfileHandlers struct {
	accounts accounts.Store
	logos    *logos.Service
	metrics  *observability.Metrics
}

// NewProfileHandlers creates new profile handlers. A nil logo service
// disables logo upload.
func NewProfileHandlers(store accounts.Store, logoService *logos.Service, metrics *observability.Metrics) *ProfileHandlers {
	return &ProfileHandlers{
		accounts: store,
		logos:    logoService,
		metrics:  metrics,
	}
}

// RegisterRoutes registers profile routes
func (h *ProfileHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/profile", h.getProfile).Methods("GET")
	router.HandleFunc("/profile", h.updateProfile).Methods("PUT")
	router.Handle("/profile/logo", requirePro(h.metrics, "logo", upgradeForLogo)(http.HandlerFunc(h.uploadLogo))).Methods("PUT")
	router.HandleFunc("/profile/logo", h.deleteLogo).Methods("DELETE")
}

func (h *ProfileHandlers) getProfile(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, middleware.GetAccountContext(r).Account)
}

func (h *ProfileHandlers) updateProfile(w http.ResponseWriter, r *http.Request) {
	var req accounts.UpdateProfileRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	account, err := h.accounts.UpdateProfile(r.Context(), middleware.GetAccountContext(r).AccountID(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, account)
}

func (h *ProfileHandlers) uploadLogo(w http.ResponseWriter, r *http.Request) {
	if h.logos == nil {
		httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "logo storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, logos.MaxLogoBytes+(1<<20))
	file, _, err := r.FormFile("logo")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, logos.ErrTooLarge.Error())
			return
		}
		httputil.WriteBadRequest(w, "multipart field \"logo\" is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, logos.MaxLogoBytes+1))
	if err != nil {
		httputil.WriteBadRequest(w, "failed to read logo")
		return
	}

	ctx := r.Context()
	account := middleware.GetAccountContext(r).Account
	logger := observability.FromContext(ctx)

	key, err := h.logos.Upload(ctx, account.ID, data)
	switch {
	case errors.Is(err, logos.ErrTooLarge):
		httputil.WriteErrorMessage(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case errors.Is(err, logos.ErrUnsupportedType):
		httputil.WriteBadRequest(w, err.Error())
		return
	case err != nil:
		writeServiceError(w, r, err)
		return
	}

	if err := h.accounts.SetLogoKey(ctx, account.ID, key); err != nil {
		if rmErr := h.logos.Remove(context.WithoutCancel(ctx), key); rmErr != nil {
			logger.WithError(rmErr).WithField("key", key).Warn("Failed to remove orphaned logo")
		}
		writeServiceError(w, r, err)
		return
	}

	h.removeLater(ctx, logger, account.LogoKey)

	updated := *account
	updated.LogoKey = key
	httputil.WriteSuccess(w, &updated)
}

func (h *ProfileHandlers) deleteLogo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account := middleware.GetAccountContext(r).Account
	if account.LogoKey == "" {
		httputil.WriteNoContent(w)
		return
	}

	if err := h.accounts.SetLogoKey(ctx, account.ID, ""); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.removeLater(ctx, observability.FromContext(ctx), account.LogoKey)
	httputil.WriteNoContent(w)
}

// removeLater deletes a replaced logo after the response has been written
func (h *ProfileHandlers) removeLater(ctx context.Context, logger *observability.Logger, key string) {
	if key == "" || h.logos == nil {
		return
	}
	async.SafeGo(context.WithoutCancel(ctx), logoCleanupTimeout, "delete old logo", logger,
		func(ctx context.Context) error { return h.logos.Remove(ctx, key) })
}
