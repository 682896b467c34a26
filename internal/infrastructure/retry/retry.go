// Package retry runs browser calls again after a fixed pause when they fail.
//
// Page loads and element lookups fail transiently while a page is still
// rendering, so every wrapper call goes through Do with the session policy.
package retry

import (
	"context"
	"errors"
	"time"

	"common-library/internal/application/port/output"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 2 * time.Second
)

// Policy makes Attempts calls in total, sleeping Delay between them.
type Policy struct {
	Attempts int
	Delay    time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: DefaultAttempts, Delay: DefaultDelay}
}

// Normalize fills zero fields with defaults. A negative delay means no pause.
func (p Policy) Normalize() Policy {
	if p.Attempts <= 0 {
		p.Attempts = DefaultAttempts
	}
	if p.Delay == 0 {
		p.Delay = DefaultDelay
	}
	if p.Delay < 0 {
		p.Delay = 0
	}
	return p
}

// Permanent marks err so that Do returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

// Do calls op until it succeeds, returns a permanent error, the attempts run
// out or ctx is done. The error of the last attempt is returned.
func Do[T any](ctx context.Context, p Policy, log output.LoggerPort, name string, op func() (T, error)) (T, error) {
	p = p.Normalize()

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(p.Attempts-1))
	b = backoff.WithContext(b, ctx)

	attempt := 0
	wrapped := func() (T, error) {
		attempt++
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, backoff.Permanent(err)
		}
		return op()
	}

	notify := func(err error, delay time.Duration) {
		if log != nil {
			log.Debug("retrying",
				"op", name,
				"attempt", attempt,
				"max_attempts", p.Attempts,
				"delay", delay,
				"error", err,
			)
		}
	}

	result, err := backoff.RetryNotifyWithData(wrapped, b, notify)
	if err != nil && log != nil && attempt > 1 {
		log.Warn("giving up", "op", name, "attempts", attempt, "error", err)
	}
	return result, err
}

// DoErr is Do for operations without a result.
func DoErr(ctx context.Context, p Policy, log output.LoggerPort, name string, op func() error) error {
	_, err := Do(ctx, p, log, name, func() (struct{}, error) {
		return struct{}{}, op()
	})
	return err
}
