// Package database opens the PostgreSQL connection pool and applies the
// schema migrations that back accounts, sessions, clients, projects,
// invoices and processed billing events.
//
// Migrations are versioned and applied in order, each inside its own
// transaction, and recorded in schema_migrations so that re-running
// Migrate is a no-op.
package database
