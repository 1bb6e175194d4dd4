package accounts

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at registration
const MinPasswordLength = 8

// PasswordCost is the bcrypt work factor for new hashes
const PasswordCost = 10

// PasswordPolicyError describes why a password was rejected
type PasswordPolicyError struct {
	Reason string
}

func (e *PasswordPolicyError) Error() string {
	return "password " + e.Reason
}

// ValidatePassword requires at least eight characters including an uppercase
// letter, a digit and a special character.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return &PasswordPolicyError{Reason: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	var hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper {
		return &PasswordPolicyError{Reason: "must contain an uppercase letter"}
	}
	if !hasDigit {
		return &PasswordPolicyError{Reason: "must contain a number"}
	}
	if !hasSpecial {
		return &PasswordPolicyError{Reason: "must contain a special character"}
	}
	return nil
}

// HashPassword hashes a password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a password with a stored bcrypt hash
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// NormalizeEmail lowercases and trims an email address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
