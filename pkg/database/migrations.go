package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all schema migrations in version order
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create accounts and sessions",
			SQL: `
				CREATE TABLE IF NOT EXISTS accounts (
					id UUID PRIMARY KEY,
					email TEXT NOT NULL UNIQUE,
					name TEXT NOT NULL DEFAULT '',
					password_hash TEXT NOT NULL,
					is_pro BOOLEAN NOT NULL DEFAULT FALSE,
					trial_ends_at TIMESTAMPTZ,
					stripe_customer_id TEXT UNIQUE,
					business_name TEXT,
					logo_key TEXT,
					address TEXT,
					phone_number TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS sessions (
					id UUID PRIMARY KEY,
					account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					token_hash TEXT NOT NULL UNIQUE,
					expires_at TIMESTAMPTZ NOT NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_sessions_account ON sessions(account_id);
				CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
				CREATE INDEX IF NOT EXISTS idx_accounts_trial ON accounts(trial_ends_at) WHERE trial_ends_at IS NOT NULL;
			`,
		},
		{
			Version:     2,
			Description: "Create clients and projects",
			SQL: `
				CREATE TABLE IF NOT EXISTS clients (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					name TEXT NOT NULL,
					email TEXT NOT NULL DEFAULT '',
					address TEXT NOT NULL DEFAULT '',
					phone_number TEXT NOT NULL DEFAULT '',
					company_name TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE TABLE IF NOT EXISTS projects (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_clients_user ON clients(user_id);
				CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id);
			`,
		},
		{
			Version:     3,
			Description: "Create invoices",
			SQL: `
				CREATE TABLE IF NOT EXISTS invoices (
					id UUID PRIMARY KEY,
					user_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
					invoice_number TEXT NOT NULL DEFAULT '',
					issue_date DATE,
					due_date DATE,
					business_name TEXT NOT NULL DEFAULT '',
					client_name TEXT NOT NULL DEFAULT '',
					client_address TEXT NOT NULL DEFAULT '',
					client_email TEXT NOT NULL DEFAULT '',
					items JSONB NOT NULL DEFAULT '[]',
					currency CHAR(3) NOT NULL DEFAULT 'USD',
					total NUMERIC(20, 4) NOT NULL DEFAULT 0,
					notes TEXT,
					payment_methods TEXT,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_invoices_user_created ON invoices(user_id, created_at DESC);
			`,
		},
		{
			Version:     4,
			Description: "Create billing event log",
			SQL: `
				CREATE TABLE IF NOT EXISTS billing_events (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					processed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`,
		},
	}
}

// Migrate executes all pending migrations
func Migrate(ctx context.Context, db *sql.DB, logger logrus.FieldLogger) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		logger.WithField("version", migration.Version).Infof("Running migration: %s", migration.Description)
		if err := apply(ctx, db, migration); err != nil {
			return err
		}
	}

	return nil
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func apply(ctx context.Context, db *sql.DB, migration Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, description) VALUES ($1, $2)",
		migration.Version, migration.Description,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
	}
	return nil
}
