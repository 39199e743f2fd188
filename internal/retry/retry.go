// Package retry runs filesystem mutations that may fail while another
// process such as an editor or a virus scanner briefly holds a
// lock on the path. A Policy retries transient failures a bounded number of
// times with a fixed delay and gives up immediately on permanent ones.
package retry

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/cenk/backoff"

	"github.com/agentx-labs/pkginstall/internal/platform"
)

// Default attempt budget for externally locked paths.
const (
	DefaultMaxAttempts = 20
	DefaultDelay       = 100 * time.Millisecond
)

// ErrExhausted is matched by errors returned once every attempt has failed.
var ErrExhausted = errors.New("retry attempts exhausted")

// ExhaustedError reports the last failure after the attempt budget ran out.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrExhausted) true.
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Notify is called after each failed attempt that will be retried.
type Notify func(attempt int, err error, next time.Duration)

// Policy bounds how an operation is retried.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
	// Retryable decides whether an error may clear up on its own.
	// Nil means IsTransient.
	Retryable func(error) bool
}

// Default returns the policy used for every install-path mutation:
// 20 attempts, 100ms apart.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		Retryable:   IsTransient,
	}
}

// IsTransient treats every error as retryable except missing paths,
// renames across volumes and context cancellation.
func IsTransient(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, platform.ErrCrossDevice):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	default:
		return true
	}
}

// Do runs op until it succeeds, returns a non-retryable error, the context
// is done, or MaxAttempts is reached. Exhaustion yields an *ExhaustedError.
func (p Policy) Do(ctx context.Context, op func() error, notify Notify) error {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsTransient
	}

	var (
		attempt   int
		lastErr   error
		permanent bool
	)
	operation := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable(err) {
			permanent = true
			return backoff.Permanent(err)
		}
		return err
	}

	// WithMaxRetries treats 0 as unlimited, so a single attempt needs StopBackOff.
	var base backoff.BackOff = &backoff.StopBackOff{}
	if attempts > 1 {
		base = backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(attempts-1))
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(base, ctx), func(err error, next time.Duration) {
		if notify != nil {
			notify(attempt, err, next)
		}
	})
	if err == nil {
		return nil
	}
	if permanent {
		return lastErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w (last error: %v)", ctxErr, lastErr)
	}
	return &ExhaustedError{Attempts: attempt, Err: lastErr}
}
