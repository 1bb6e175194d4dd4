package invoice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an invoice does not exist or belongs to another user
var ErrNotFound = errors.New("invoice not found")

// Store persists invoices. Every method is scoped to one owning user.
type Store interface {
	Create(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

// PostgresStore implements Store on the invoices table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const invoiceColumns = `id, user_id, client_id, invoice_number, issue_date, due_date,
		       business_name, client_name, client_address, client_email, items,
		       currency, total, notes, payment_methods, created_at, updated_at`

// Create inserts a new invoice, assigning an ID when none is set
func (s *PostgresStore) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
		INSERT INTO invoices (id, user_id, client_id, invoice_number, issue_date, due_date,
		                      business_name, client_name, client_address, client_email, items,
		                      currency, total, notes, payment_methods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		inv.ID, inv.UserID, nullUUID(inv.ClientID), inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		inv.BusinessName, inv.ClientName, inv.ClientAddress, inv.ClientEmail, itemsJSON,
		inv.CurrencyOrDefault(), inv.Total, inv.Notes, inv.PaymentMethods,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

// Get retrieves one invoice owned by userID
func (s *PostgresStore) Get(ctx context.Context, userID, id uuid.UUID) (*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1 AND user_id = $2`
	inv, err := scanInvoice(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// List returns the user's invoices, newest first
func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	invoices := []*Invoice{}
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// Update overwrites the editable fields of an existing invoice
func (s *PostgresStore) Update(ctx context.Context, inv *Invoice) error {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
		UPDATE invoices
		SET client_id = $1, invoice_number = $2, issue_date = $3, due_date = $4,
		    business_name = $5, client_name = $6, client_address = $7, client_email = $8,
		    items = $9, currency = $10, total = $11, notes = $12, payment_methods = $13,
		    updated_at = NOW()
		WHERE id = $14 AND user_id = $15
		RETURNING created_at, updated_at
	`
	err = s.db.QueryRowContext(ctx, query,
		nullUUID(inv.ClientID), inv.InvoiceNumber, inv.IssueDate, inv.DueDate,
		inv.BusinessName, inv.ClientName, inv.ClientAddress, inv.ClientEmail,
		itemsJSON, inv.CurrencyOrDefault(), inv.Total, inv.Notes, inv.PaymentMethods,
		inv.ID, inv.UserID,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// Delete removes an invoice owned by userID
func (s *PostgresStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM invoices WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns how many invoices the user owns
func (s *PostgresStore) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoices WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	inv := &Invoice{}
	var clientID uuid.NullUUID
	var itemsJSON []byte
	var notes, paymentMethods sql.NullString
	err := row.Scan(
		&inv.ID, &inv.UserID, &clientID, &inv.InvoiceNumber, &inv.IssueDate, &inv.DueDate,
		&inv.BusinessName, &inv.ClientName, &inv.ClientAddress, &inv.ClientEmail, &itemsJSON,
		&inv.Currency, &inv.Total, &notes, &paymentMethods, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		id := clientID.UUID
		inv.ClientID = &id
	}
	inv.Notes = notes.String
	inv.PaymentMethods = paymentMethods.String

	inv.Items = []LineItem{}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal items: %w", err)
		}
	}
	return inv, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
