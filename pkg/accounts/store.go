package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// Store persists accounts
type Store interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*Account, error)
	SetLogoKey(ctx context.Context, id uuid.UUID, key string) error
	ActivatePro(ctx context.Context, email, customerID string) (bool, error)
	RevokePro(ctx context.Context, customerID string) (bool, error)
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
}

// PostgresStore implements Store on the accounts table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, email, name, password_hash, is_pro, trial_ends_at, stripe_customer_id,
		       business_name, logo_key, address, phone_number, created_at, updated_at`

// Create inserts a new account. A duplicate email yields ErrEmailTaken.
func (s *PostgresStore) Create(ctx context.Context, a *Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	query := `
		INSERT INTO accounts (id, email, name, password_hash, is_pro, trial_ends_at, business_name, address, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query,
		a.ID, a.Email, a.Name, a.PasswordHash, a.IsPro, a.TrialEndsAt, a.BusinessName, a.Address, a.PhoneNumber,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by ID
func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetByEmail retrieves an account by its normalized email
func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return s.getOne(ctx, query, NormalizeEmail(email))
}

func (s *PostgresStore) getOne(ctx context.Context, query string, arg interface{}) (*Account, error) {
	a := &Account{}
	var trialEndsAt sql.NullTime
	var customerID, logoKey sql.NullString
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.IsPro, &trialEndsAt, &customerID,
		&a.BusinessName, &logoKey, &a.Address, &a.PhoneNumber, &a.CreatedAt, &a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if trialEndsAt.Valid {
		t := trialEndsAt.Time
		a.TrialEndsAt = &t
	}
	a.StripeCustomerID = customerID.String
	a.LogoKey = logoKey.String
	return a, nil
}

// UpdateProfile changes the fields set in req and returns the updated account
func (s *PostgresStore) UpdateProfile(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*Account, error) {
	query := `
		UPDATE accounts
		SET name = COALESCE($1, name),
		    business_name = COALESCE($2, business_name),
		    address = COALESCE($3, address),
		    phone_number = COALESCE($4, phone_number),
		    updated_at = NOW()
		WHERE id = $5
	`
	result, err := s.db.ExecContext(ctx, query, req.Name, req.BusinessName, req.Address, req.PhoneNumber, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// SetLogoKey records the object key of the account's uploaded logo
func (s *PostgresStore) SetLogoKey(ctx context.Context, id uuid.UUID, key string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE accounts SET logo_key = NULLIF($1, ''), updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("failed to set logo: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivatePro upgrades the account with the given email after a completed
// checkout. It reports whether an account matched.
func (s *PostgresStore) ActivatePro(ctx context.Context, email, customerID string) (bool, error) {
	query := `
		UPDATE accounts
		SET is_pro = TRUE, stripe_customer_id = NULLIF($1, ''), trial_ends_at = NULL, updated_at = NOW()
		WHERE email = $2
	`
	result, err := s.db.ExecContext(ctx, query, customerID, NormalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to activate pro: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to activate pro: %w", err)
	}
	return affected > 0, nil
}

// RevokePro downgrades the account linked to a cancelled subscription
func (s *PostgresStore) RevokePro(ctx context.Context, customerID string) (bool, error) {
	query := `UPDATE accounts SET is_pro = FALSE, updated_at = NOW() WHERE stripe_customer_id = $1`
	result, err := s.db.ExecContext(ctx, query, customerID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke pro: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to revoke pro: %w", err)
	}
	return affected > 0, nil
}

// ExpireTrials ends every unpaid trial whose end date has passed
func (s *PostgresStore) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE accounts
		SET is_pro = FALSE, trial_ends_at = NULL, updated_at = NOW()
		WHERE is_pro = TRUE AND stripe_customer_id IS NULL AND trial_ends_at IS NOT NULL AND trial_ends_at < $1
	`
	result, err := s.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to expire trials: %w", err)
	}
	return affected, nil
}
