package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// AccountUpdater toggles the Pro flag. accounts.PostgresStore satisfies it.
type AccountUpdater interface {
	ActivatePro(ctx context.Context, email, customerID string) (bool, error)
	RevokePro(ctx context.Context, customerID string) (bool, error)
}

// EventLog remembers which events have been applied
type EventLog interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Record(ctx context.Context, eventID, eventType string) error
}

// Processor verifies and applies webhook deliveries
type Processor struct {
	accounts  AccountUpdater
	events    EventLog
	secret    string
	tolerance time.Duration
	logger    logrus.FieldLogger
}

// NewProcessor creates a webhook processor
func NewProcessor(accounts AccountUpdater, events EventLog, secret string, logger logrus.FieldLogger) *Processor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Processor{
		accounts:  accounts,
		events:    events,
		secret:    secret,
		tolerance: DefaultTolerance,
		logger:    logger,
	}
}

// WithTolerance sets how far a signature timestamp may drift from now
func (p *Processor) WithTolerance(d time.Duration) *Processor {
	if d > 0 {
		p.tolerance = d
	}
	return p
}

// Handle verifies the signature header, then applies the event once.
// Signature and parse failures are returned as errors; events for unknown
// accounts are reported through the outcome so Stripe stops retrying.
func (p *Processor) Handle(ctx context.Context, payload []byte, signatureHeader string) (*stripe.Event, Outcome, error) {
	event, err := p.constructEvent(payload, signatureHeader)
	if err != nil {
		return nil, "", err
	}

	seen, err := p.events.Seen(ctx, event.ID)
	if err != nil {
		return event, "", err
	}
	if seen {
		return event, OutcomeDuplicate, nil
	}

	outcome, err := p.apply(ctx, event)
	if err != nil {
		return event, "", err
	}
	if err := p.events.Record(ctx, event.ID, string(event.Type)); err != nil {
		return event, "", err
	}
	return event, outcome, nil
}

// constructEvent verifies payload with the Stripe SDK and maps its errors
// onto this package's sentinels. The account API version is not pinned, so
// version mismatches are ignored.
func (p *Processor) constructEvent(payload []byte, signatureHeader string) (*stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.secret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, webhook.ErrNotSigned), errors.Is(err, webhook.ErrInvalidHeader):
			return nil, fmt.Errorf("%w: %v", ErrMissingSignature, err)
		case errors.Is(err, webhook.ErrTooOld):
			return nil, fmt.Errorf("%w: %v", ErrExpiredSignature, err)
		case errors.Is(err, webhook.ErrNoValidSignature):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	}
	if event.ID == "" || event.Type == "" || event.Data == nil {
		return nil, ErrMalformedEvent
	}
	return &event, nil
}

// checkoutEmail returns the purchaser's email, preferring customer_email
func checkoutEmail(session *stripe.CheckoutSession) string {
	if session.CustomerEmail != "" {
		return session.CustomerEmail
	}
	if session.CustomerDetails != nil {
		return session.CustomerDetails.Email
	}
	return ""
}

func customerID(c *stripe.Customer) string {
	if c == nil {
		return ""
	}
	return c.ID
}

func (p *Processor) apply(ctx context.Context, event *stripe.Event) (Outcome, error) {
	log := p.logger.WithFields(logrus.Fields{"event_id": event.ID, "event_type": event.Type})

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return "", ErrMalformedEvent
		}
		email := checkoutEmail(&session)
		customer := customerID(session.Customer)
		if email == "" {
			log.Warn("checkout session without customer email")
			return OutcomeNoAccount, nil
		}
		ok, err := p.accounts.ActivatePro(ctx, email, customer)
		if err != nil {
			return "", err
		}
		if !ok {
			log.WithField("email", email).Warn("checkout completed for unknown account")
			return OutcomeNoAccount, nil
		}
		log.WithField("customer", customer).Info("account upgraded to pro")
		return OutcomeApplied, nil

	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", ErrMalformedEvent
		}
		customer := customerID(sub.Customer)
		if customer == "" {
			return OutcomeNoAccount, nil
		}
		ok, err := p.accounts.RevokePro(ctx, customer)
		if err != nil {
			return "", err
		}
		if !ok {
			log.WithField("customer", customer).Warn("subscription deleted for unknown customer")
			return OutcomeNoAccount, nil
		}
		log.WithField("customer", customer).Info("pro revoked")
		return OutcomeApplied, nil

	case stripe.EventTypeInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return "", ErrMalformedEvent
		}
		log.WithFields(logrus.Fields{"customer": customerID(inv.Customer), "attempt": inv.AttemptCount}).Warn("subscription payment failed")
		return OutcomeApplied, nil

	default:
		return OutcomeIgnored, nil
	}
}

// PostgresEventLog records processed events in the billing_events table
type PostgresEventLog struct {
	db *sql.DB
}

// NewPostgresEventLog creates a new PostgresEventLog
func NewPostgresEventLog(db *sql.DB) *PostgresEventLog {
	return &PostgresEventLog{db: db}
}

// Seen reports whether eventID was already applied
func (l *PostgresEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	var seen bool
	err := l.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM billing_events WHERE id = $1)`, eventID).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("failed to check event: %w", err)
	}
	return seen, nil
}

// Record marks eventID as applied. Recording twice is harmless.
func (l *PostgresEventLog) Record(ctx context.Context, eventID, eventType string) error {
	query := `INSERT INTO billing_events (id, type) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`
	if _, err := l.db.ExecContext(ctx, query, eventID, eventType); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}
