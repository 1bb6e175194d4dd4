package billing

import (
	"errors"
	"time"
)

// SignatureHeader is the request header carrying the webhook signature
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance is the maximum age of a signed payload
const DefaultTolerance = 5 * time.Minute

var (
	// ErrMissingSignature is returned when the header is absent or cannot be parsed
	ErrMissingSignature = errors.New("missing webhook signature")
	// ErrInvalidSignature is returned when no v1 entry matches the payload
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrExpiredSignature is returned when the signed timestamp is older than the tolerance
	ErrExpiredSignature = errors.New("webhook timestamp outside tolerance")
	// ErrMalformedEvent is returned when a verified payload is not a Stripe event
	ErrMalformedEvent = errors.New("malformed webhook event")
)

// Outcome reports what a webhook delivery did
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeNoAccount Outcome = "no_account"
)
