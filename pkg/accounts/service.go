package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Service implements registration and sign-in on top of a Store
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a new account service
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// WithClock replaces the time source, for tests and the worker
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// FieldError reports a missing or malformed registration field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Message
}

// Register creates an account on a one-month Pro trial
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Account, error) {
	email := NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &FieldError{Field: "email", Message: "must be a valid email address"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &FieldError{Field: "name", Message: "is required"}
	}
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	trialEnd := s.now().AddDate(0, TrialPeriod, 0)
	account := &Account{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		IsPro:        true,
		TrialEndsAt:  &trialEnd,
	}
	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate returns the account matching email and password. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	account, err := s.store.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(account.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Store exposes the underlying store for profile and billing updates
func (s *Service) Store() Store {
	return s.store
}
