package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/contextkeys"
	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/observability"
)

// AccountLoader loads the account behind a session
type AccountLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error)
}

// AuthMiddleware resolves a bearer session token into an AccountContext
type AuthMiddleware struct {
	sessions auth.SessionStore
	accounts AccountLoader
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(sessions auth.SessionStore, accounts AccountLoader) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		accounts: accounts,
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>"
func BearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// Handler wraps an HTTP handler with authentication. The account row is
// reloaded on every request so plan changes apply immediately.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := BearerToken(r)
		if err != nil {
			httputil.WriteUnauthorized(w, err.Error())
			return
		}

		ctx := r.Context()
		session, err := m.sessions.Lookup(ctx, token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				observability.FromContext(ctx).WithError(err).Error("Session lookup failed")
			}
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}

		account, err := m.accounts.GetByID(ctx, session.AccountID)
		if err != nil {
			if !errors.Is(err, accounts.ErrNotFound) {
				observability.FromContext(ctx).WithError(err).Error("Account lookup failed")
			}
			httputil.WriteUnauthorized(w, "invalid or expired session")
			return
		}

		accountCtx := &auth.AccountContext{Account: account, SessionID: session.ID}
		ctx = contextkeys.WithAuth(ctx, accountCtx)
		ctx = contextkeys.WithAccountID(ctx, account.ID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetAccountContext extracts the account context from request
func GetAccountContext(r *http.Request) *auth.AccountContext {
	accountCtx, ok := contextkeys.GetAuth(r.Context()).(*auth.AccountContext)
	if !ok {
		return nil
	}
	return accountCtx
}

// RequirePro rejects free-tier accounts with 403
func RequirePro(message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountCtx := GetAccountContext(r)
			if accountCtx == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			if !accountCtx.IsPro() {
				httputil.WriteForbidden(w, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
