// Package billing applies Stripe subscription webhooks to accounts.
//
// # Overview
//
// Checkout and payment happen entirely on Stripe. This package only listens:
// a completed checkout session upgrades the paying account to Pro, and a
// deleted subscription downgrades it again.
//
// # Verification
//
// Every request carries a Stripe-Signature header of the form
//
//	t=1700000000,v1=5257a869e7ecebeda32affa62cdca3fa51cad7e77a0e56ff536d0ce8e108d8bd
//
// where v1 is the hex HMAC-SHA256 of "<t>.<raw body>" under the endpoint
// secret. The check itself is stripe-go's webhook package; payloads outside
// the tolerance window are rejected to stop replays.
//
// # Idempotency
//
// Stripe delivers at least once. Processed event IDs are recorded in the
// billing_events table and redeliveries are acknowledged without effect.
//
// # Related Packages
//
//   - pkg/accounts: the Pro flag this package toggles
//   - pkg/plan: decisions made from that flag
package billing
