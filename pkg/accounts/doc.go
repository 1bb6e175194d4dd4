// Package accounts manages the people who issue invoices: registration,
// password checks, business profile and the Pro flag.
//
// New accounts start on a one-month Pro trial. The trial is ended by the
// worker (ExpireTrials) unless a paid subscription has attached a Stripe
// customer in the meantime.
package accounts
