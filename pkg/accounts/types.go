package accounts

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no account matches
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when registering an email that already has an account
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email and password do not match
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// TrialPeriod is how long a new account keeps Pro without paying
const TrialPeriod = 1 // months

// Account is a registered user and the business they invoice as
type Account struct {
	ID               uuid.UUID  `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	PasswordHash     string     `json:"-"`
	IsPro            bool       `json:"is_pro"`
	TrialEndsAt      *time.Time `json:"trial_ends_at,omitempty"`
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
	BusinessName     string     `json:"business_name"`
	LogoKey          string     `json:"logo_key,omitempty"`
	Address          string     `json:"address"`
	PhoneNumber      string     `json:"phone_number"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// OnTrial reports whether the account's Pro flag comes from an unexpired trial
func (a *Account) OnTrial(now time.Time) bool {
	return a.IsPro && a.StripeCustomerID == "" && a.TrialEndsAt != nil && now.Before(*a.TrialEndsAt)
}

// RegisterRequest is the payload for creating an account
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest is the payload for signing in
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest changes the business details printed on invoices
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	BusinessName *string `json:"business_name,omitempty"`
	Address      *string `json:"address,omitempty"`
	PhoneNumber  *string `json:"phone_number,omitempty"`
}
