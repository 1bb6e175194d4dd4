package async

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/tally/pkg/observability"
)

// SafeGo executes fn in a goroutine with a timeout, panic recovery and
// error logging. Use it instead of a bare `go func()` for work that outlives
// the request, and detach the request context first:
//
//	async.SafeGo(context.WithoutCancel(r.Context()), 30*time.Second, "delete old logo", logger,
//	    func(ctx context.Context) error { return logos.Remove(ctx, oldKey) })
func SafeGo(parentCtx context.Context, timeout time.Duration, taskName string, logger *observability.Logger, fn func(context.Context) error) {
	go func() {
		if err := Run(parentCtx, timeout, taskName, fn); err != nil {
			logger.WithError(err).WithField("task", taskName).Error("Background task failed")
		}
	}()
}

// Run executes fn synchronously with a timeout and turns a panic into an error
func Run(parentCtx context.Context, timeout time.Duration, taskName string, fn func(context.Context) error) (err error) {
	ctx, cancel := context.WithTimeout(parentCtx, timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", taskName, r, debug.Stack())
		}
	}()

	if err := fn(ctx); err != nil {
		return fmt.Errorf("%s: %w", taskName, err)
	}
	return nil
}
