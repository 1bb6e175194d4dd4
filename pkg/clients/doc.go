// Package clients stores the customers an account invoices.
//
// Every query is scoped by the owning user's ID. A client that exists but
// belongs to someone else is reported as ErrNotFound, the same as one that
// does not exist.
//
// Deleting a client leaves its invoices alone: invoices carry their own copy
// of the client's name, email and address.
package clients
