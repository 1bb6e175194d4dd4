// Package middleware provides HTTP authentication and login throttling.
//
// AuthMiddleware resolves "Authorization: Bearer <token>" to a session and
// then to the account row, and stores an *auth.AccountContext in the request
// context:
//
//	api := router.PathPrefix("/api").Subrouter()
//	api.Use(middleware.NewAuthMiddleware(sessions, accountStore).Handler)
//	accountCtx := middleware.GetAccountContext(r)
//
// Login attempts are limited per email address. RateLimiter keeps counters
// in memory; DistributedRateLimiter keeps them in Redis so every API
// instance shares them. Both use a fixed window that starts with the first
// attempt (5 attempts per minute by default).
package middleware
