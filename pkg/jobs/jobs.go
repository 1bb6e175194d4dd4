package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tally/pkg/async"
	"github.com/platinummonkey/tally/pkg/observability"
)

// Job names, used as the metric label
const (
	JobExpireTrials  = "expire_trials"
	JobPurgeSessions = "purge_sessions"
)

// Default schedules
const (
	DefaultTrialSchedule   = "@hourly"
	DefaultSessionSchedule = "@daily"
)

// DefaultTimeout bounds a single job run
const DefaultTimeout = 5 * time.Minute

// TrialExpirer downgrades accounts whose trial ended before now
type TrialExpirer interface {
	ExpireTrials(ctx context.Context, now time.Time) (int64, error)
}

// SessionPurger deletes expired sessions
type SessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Runner executes the maintenance jobs
type Runner struct {
	accounts TrialExpirer
	sessions SessionPurger
	metrics  *observability.Metrics
	logger   *observability.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewRunner creates a job runner
func NewRunner(accounts TrialExpirer, sessions SessionPurger, metrics *observability.Metrics, logger *observability.Logger) *Runner {
	return &Runner{
		accounts: accounts,
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
		timeout:  DefaultTimeout,
		now:      time.Now,
	}
}

// ExpireTrials ends lapsed Pro trials
func (r *Runner) ExpireTrials(ctx context.Context) error {
	return r.run(ctx, JobExpireTrials, func(ctx context.Context) error {
		n, err := r.accounts.ExpireTrials(ctx, r.now())
		if err != nil {
			return err
		}
		r.metrics.TrialsExpiredTotal.Add(float64(n))
		r.logger.WithField("accounts", n).Info("Expired trials")
		return nil
	})
}

// PurgeSessions removes expired sessions
func (r *Runner) PurgeSessions(ctx context.Context) error {
	return r.run(ctx, JobPurgeSessions, func(ctx context.Context) error {
		n, err := r.sessions.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		r.metrics.SessionsPurgedTotal.Add(float64(n))
		r.logger.WithField("sessions", n).Info("Purged expired sessions")
		return nil
	})
}

// RunAll runs every job once, returning the first error after trying all of them
func (r *Runner) RunAll(ctx context.Context) error {
	var first error
	for _, job := range []func(context.Context) error{r.ExpireTrials, r.PurgeSessions} {
		if err := job(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (r *Runner) run(ctx context.Context, name string, fn func(context.Context) error) error {
	err := async.Run(ctx, r.timeout, name, fn)
	r.metrics.ObserveJob(name, err)
	if err != nil {
		r.logger.WithError(err).WithField("job", name).Error("Job failed")
	}
	return err
}

// Schedule registers both jobs on c. Errors are logged and counted by the
// runner, so the scheduled functions ignore them.
func (r *Runner) Schedule(ctx context.Context, c *cron.Cron, trialSpec, sessionSpec string) error {
	if _, err := c.AddFunc(trialSpec, func() { _ = r.ExpireTrials(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", JobExpireTrials, err)
	}
	if _, err := c.AddFunc(sessionSpec, func() { _ = r.PurgeSessions(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule %s: %w", JobPurgeSessions, err)
	}
	return nil
}
