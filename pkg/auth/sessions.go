package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a session token stays valid
const DefaultSessionTTL = 30 * 24 * time.Hour

// ErrInvalidSession is returned for unknown, malformed or expired tokens
var ErrInvalidSession = errors.New("invalid or expired session")

// Session is a signed-in browser or API client
type Session struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

// SessionStore issues and resolves session tokens
type SessionStore interface {
	Create(ctx context.Context, accountID uuid.UUID) (token string, session *Session, err error)
	Lookup(ctx context.Context, token string) (*Session, error)
	Revoke(ctx context.Context, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// PostgresSessionStore keeps token hashes in the sessions table
type PostgresSessionStore struct {
	db        *sql.DB
	generator *TokenGenerator
	ttl       time.Duration
	now       func() time.Time
}

// NewPostgresSessionStore creates a session store. A zero ttl uses DefaultSessionTTL.
func NewPostgresSessionStore(db *sql.DB, ttl time.Duration) *PostgresSessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &PostgresSessionStore{
		db:        db,
		generator: NewTokenGenerator(),
		ttl:       ttl,
		now:       time.Now,
	}
}

// Create issues a new token for accountID. The token is returned once and
// only its hash is stored.
func (s *PostgresSessionStore) Create(ctx context.Context, accountID uuid.UUID) (string, *Session, error) {
	token, tokenHash, err := s.generator.GenerateToken()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := s.now()
	session := &Session{
		ID:        uuid.New(),
		AccountID: accountID,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	query := `INSERT INTO sessions (id, account_id, token_hash, expires_at, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, session.ID, session.AccountID, tokenHash, session.ExpiresAt, session.CreatedAt); err != nil {
		return "", nil, fmt.Errorf("failed to create session: %w", err)
	}
	return token, session, nil
}

// Lookup resolves a token to its live session
func (s *PostgresSessionStore) Lookup(ctx context.Context, token string) (*Session, error) {
	if err := s.generator.ValidateTokenFormat(token); err != nil {
		return nil, ErrInvalidSession
	}

	session := &Session{}
	query := `SELECT id, account_id, expires_at, created_at FROM sessions WHERE token_hash = $1 AND expires_at > $2`
	err := s.db.QueryRowContext(ctx, query, s.generator.HashToken(token), s.now()).
		Scan(&session.ID, &session.AccountID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return session, nil
}

// Revoke deletes the session behind token. Unknown tokens are ignored.
func (s *PostgresSessionStore) Revoke(ctx context.Context, token string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token_hash = $1`, s.generator.HashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// PurgeExpired removes sessions past their expiry
func (s *PostgresSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}
	return affected, nil
}
