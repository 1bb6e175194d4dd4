// Package api exposes the HTTP interface of the invoicing service.
//
// All routes live under /api and answer with the JSON envelope from
// pkg/httputil. Registration, login and the billing webhook are public;
// every other route runs behind the bearer-session middleware, which places
// the freshly loaded account in the request context.
//
// Plan checks are evaluated on each request: invoice creation consults the
// current invoice count, and CSV export and logo upload require Pro.
//
// Domain errors are mapped to statuses in one place (writeServiceError):
//
//	invoice.ValidationError         400
//	accounts.ErrInvalidCredentials  401
//	plan.LimitError                 403
//	ErrNotFound                     404
//	accounts.ErrEmailTaken          409
//	render.RenderError              422
//	anything else                   500
package api
