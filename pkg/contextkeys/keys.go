// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here so that
// producers and consumers agree on one type per key.
//
// USAGE PATTERN:
//
//	ctx = contextkeys.WithAuth(ctx, accountCtx)
//	accountCtx, _ := contextkeys.GetAuth(ctx).(*auth.AccountContext)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// AuthKey contains *auth.AccountContext
	// Set by: middleware.AuthMiddleware (pkg/middleware/auth.go)
	// Required by: every handler under /api except register, login and the billing webhook
	AuthKey Key = "auth_context"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: access log, error responses, observability.FromContext
	RequestIDKey Key = "request_id"

	// AccountIDKey contains the authenticated account ID string
	// Set by: middleware.AuthMiddleware
	// Used by: observability.FromContext
	AccountIDKey Key = "account_id"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: handlers that log with request context
	LoggerKey Key = "logger"
)

// WithAuth adds authentication context to the context
func WithAuth(ctx context.Context, authCtx interface{}) context.Context {
	return context.WithValue(ctx, AuthKey, authCtx)
}

// GetAuth returns the value stored by WithAuth, or nil
func GetAuth(ctx context.Context) interface{} {
	return ctx.Value(AuthKey)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithAccountID adds the account ID to the context
func WithAccountID(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, AccountIDKey, accountID)
}

// GetAccountID retrieves the account ID from context
func GetAccountID(ctx context.Context) string {
	if accountID, ok := ctx.Value(AccountIDKey).(string); ok {
		return accountID
	}
	return ""
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetLogger returns the value stored by WithLogger, or nil
func GetLogger(ctx context.Context) interface{} {
	return ctx.Value(LoggerKey)
}
