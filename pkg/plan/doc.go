// Package plan decides what an account may do on its current tier.
//
// Free accounts may hold up to FreeInvoiceLimit invoices; Pro accounts are
// unlimited and additionally unlock CSV export and logo upload. Decisions are
// pure functions of the current Pro flag and the current invoice count, so
// callers must read both fresh for every request.
package plan
