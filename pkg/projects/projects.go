package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a project does not exist or belongs to another user
	ErrNotFound = errors.New("project not found")
	// ErrNameRequired is returned when a project is saved without a name
	ErrNameRequired = errors.New("name is required")
	// ErrUnknownClient is returned when client_id does not name one of the user's clients
	ErrUnknownClient = errors.New("client not found")
)

// Project is a unit of billable work
type Project struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Input is the editable part of a project
type Input struct {
	ClientID    *uuid.UUID `json:"client_id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
}

// Store persists projects, scoped to one owning user per call
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, in *Input) (*Project, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*Project, error)
	List(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Update(ctx context.Context, userID, id uuid.UUID, in *Input) (*Project, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

// PostgresStore implements Store on the projects table
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const projectColumns = `id, user_id, client_id, name, description, created_at, updated_at`

func (s *PostgresStore) validate(ctx context.Context, userID uuid.UUID, in *Input) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ErrNameRequired
	}
	if in.ClientID == nil {
		return nil
	}
	var owned bool
	query := `SELECT EXISTS (SELECT 1 FROM clients WHERE id = $1 AND user_id = $2)`
	if err := s.db.QueryRowContext(ctx, query, *in.ClientID, userID).Scan(&owned); err != nil {
		return fmt.Errorf("failed to check client: %w", err)
	}
	if !owned {
		return ErrUnknownClient
	}
	return nil
}

// Create inserts a project for userID
func (s *PostgresStore) Create(ctx context.Context, userID uuid.UUID, in *Input) (*Project, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}
	p := &Project{
		ID:          uuid.New(),
		UserID:      userID,
		ClientID:    in.ClientID,
		Name:        in.Name,
		Description: in.Description,
	}
	query := `
		INSERT INTO projects (id, user_id, client_id, name, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := s.db.QueryRowContext(ctx, query, p.ID, p.UserID, nullUUID(p.ClientID), p.Name, p.Description).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// Get retrieves one project owned by userID
func (s *PostgresStore) Get(ctx context.Context, userID, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1 AND user_id = $2`
	p, err := scanProject(s.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// List returns the user's projects, newest first
func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	result := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return result, nil
}

// Update replaces the editable fields of a project
func (s *PostgresStore) Update(ctx context.Context, userID, id uuid.UUID, in *Input) (*Project, error) {
	if err := s.validate(ctx, userID, in); err != nil {
		return nil, err
	}
	query := `
		UPDATE projects
		SET client_id = $1, name = $2, description = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
		RETURNING ` + projectColumns
	p, err := scanProject(s.db.QueryRowContext(ctx, query, nullUUID(in.ClientID), in.Name, in.Description, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return p, nil
}

// Delete removes a project
func (s *PostgresStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*Project, error) {
	p := &Project{}
	var clientID uuid.NullUUID
	var description sql.NullString
	if err := row.Scan(&p.ID, &p.UserID, &clientID, &p.Name, &description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if clientID.Valid {
		id := clientID.UUID
		p.ClientID = &id
	}
	p.Description = description.String
	return p, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
