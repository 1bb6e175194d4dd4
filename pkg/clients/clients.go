package clients

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a client does not exist or belongs to another user
var ErrNotFound = errors.New("client not found")

// ErrNameRequired is returned when a client is saved without a name
var ErrNameRequired = errors.New("name is required")

// Client is a customer of an account
type Client struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	PhoneNumber string    `json:"phone_number"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Input is the editable part of a client
type Input struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phone_number"`
	CompanyName string `json:"company_name"`
}

// Validate trims the input and checks required fields
func (in *Input) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return ErrNameRequired
	}
	return nil
}

// Store persists clients, scoped to one owning user per call
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, in *Input) (*Client, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Client, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Client, error)
	Update(ctx context.Context, userID, id uuid.UUID, in *Input) (*Client, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// PostgresStore implements Store on the clients table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const clientColumns = `id, user_id, name, email, address, phone_number, company_name, created_at, updated_at`

// Create inserts a client for userID
func (s *PostgresStore) Create(ctx context.Context, userID uuid.UUID, in *Input) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        in.Name,
		Email:       in.Email,
		Address:     in.Address,
		PhoneNumber: in.PhoneNumber,
		CompanyName: in.CompanyName,
	}
	query := `
		INSERT INTO clients (id, user_id, name, email, address, phone_number, company_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.Name, c.Email, c.Address, c.PhoneNumber, c.CompanyName).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// Get retrieves one client owned by userID
func (s *PostgresStore) Get(ctx context.Context, userID, id uuid.UUID) (*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND user_id = $2`
	c := &Client{}
	err := s.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Address, &c.PhoneNumber, &c.CompanyName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// List returns the user's clients ordered by name
func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) ([]*Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE user_id = $1 ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	result := []*Client{}
	for rows.Next() {
		c := &Client{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Email, &c.Address, &c.PhoneNumber, &c.CompanyName, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return result, nil
}

// Update replaces the editable fields of a client
func (s *PostgresStore) Update(ctx context.Context, userID, id uuid.UUID, in *Input) (*Client, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	query := `
		UPDATE clients
		SET name = $1, email = $2, address = $3, phone_number = $4, company_name = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING ` + clientColumns
	c := &Client{}
	err := s.db.QueryRowContext(ctx, query, in.Name, in.Email, in.Address, in.PhoneNumber, in.CompanyName, id, userID).Scan(
		&c.ID, &c.UserID, &c.Name, &c.Email, &c.Address, &c.PhoneNumber, &c.CompanyName, &c.CreatedAt, &c.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return c, nil
}

// Delete removes a client. Invoices keep their snapshot of its details.
func (s *PostgresStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM clients WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
