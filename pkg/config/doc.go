// Package config loads and validates application configuration from
// TALLY_* environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	TALLY_HOST="0.0.0.0"
//	TALLY_PORT="8080"
//	TALLY_HEALTH_PORT="9090"
//	TALLY_CORS_ORIGINS="https://app.example.com"
//
// Storage settings:
//
//	TALLY_DATABASE_URL="postgres://localhost/tally?sslmode=disable"
//	TALLY_REDIS_URL="redis://localhost:6379/0"   # empty keeps login throttling in memory
//	TALLY_S3_BUCKET="tally-logos"                # empty disables logo upload
//	TALLY_S3_ENDPOINT="http://localhost:9000"
//
// Billing and mail:
//
//	TALLY_STRIPE_WEBHOOK_SECRET="whsec_..."
//	TALLY_MAIL_PROVIDER="resend"                 # or "log"
//	TALLY_RESEND_API_KEY="re_..."
//	TALLY_MAIL_FROM="invoices@example.com"
//
// Observability:
//
//	TALLY_LOG_LEVEL="info"
//	TALLY_OTEL_ENABLED="true"
//	TALLY_OTEL_ENDPOINT="otel-collector:4317"
package config
