package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/plan"
	"github.com/platinummonkey/tally/pkg/projects"
	"github.com/platinummonkey/tally/pkg/render"
)

// writeServiceError maps domain errors onto HTTP statuses. Unrecognised
// errors are logged and reported as 500 without leaking the cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *invoice.ValidationError
		limitErr      *plan.LimitError
		renderErr     *render.RenderError
		fieldErr      *accounts.FieldError
		passwordErr   *accounts.PasswordPolicyError
	)

	switch {
	case errors.As(err, &renderErr):
		httputil.WriteUnprocessable(w, renderErr.Error())
	case errors.As(err, &validationErr):
		httputil.WriteBadRequest(w, validationErr.Error())
	case errors.As(err, &fieldErr):
		httputil.WriteBadRequest(w, fieldErr.Error())
	case errors.As(err, &passwordErr):
		httputil.WriteBadRequest(w, passwordErr.Error())
	case errors.Is(err, clients.ErrNameRequired), errors.Is(err, projects.ErrNameRequired):
		httputil.WriteBadRequest(w, err.Error())
	case errors.Is(err, projects.ErrUnknownClient):
		httputil.WriteBadRequest(w, err.Error())
	case errors.As(err, &limitErr):
		httputil.WriteForbidden(w, plan.UpgradeMessage)
	case errors.Is(err, accounts.ErrInvalidCredentials):
		httputil.WriteUnauthorized(w, err.Error())
	case errors.Is(err, accounts.ErrNotFound),
		errors.Is(err, clients.ErrNotFound),
		errors.Is(err, projects.ErrNotFound),
		errors.Is(err, invoice.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.Is(err, accounts.ErrEmailTaken):
		httputil.WriteConflict(w, err.Error())
	default:
		observability.FromContext(r.Context()).WithError(err).Errorf("Request failed: %s %s", r.Method, r.URL.Path)
		httputil.WriteInternalError(w)
	}
}
