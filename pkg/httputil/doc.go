// Package httputil provides HTTP utilities for standardized request/response handling.
//
// Every JSON body is an Envelope:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "error": "invoice not found"}
//
// # Response Helpers
//
//	httputil.WriteSuccess(w, invoice)
//	httputil.WriteCreated(w, client)
//	httputil.WriteNotFoundError(w, "invoice not found")
//	httputil.WriteAttachment(w, "application/pdf", filename, pdf)
//
// # Request Parsing
//
//	var req clients.Input
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // Error response already written
//	}
//	id, ok := httputil.ParsePathUUIDOrError(w, r, "id")
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.MaxBytesMiddleware(10<<20),
//	)
//
// # Related Packages
//
//   - pkg/middleware: Authentication and login throttling
package httputil
