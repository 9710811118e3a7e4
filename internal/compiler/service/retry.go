package service

import (
	"context"
	"errors"
	"net"
	"time"

	"mockinterview/internal/compiler/model"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = time.Second
)

// Cause classifies why a retried operation finally failed.
type Cause int

const (
	CauseNone Cause = iota
	CauseTimeout
	CauseFailure
	CausePermanent
	CauseCanceled
)

func (c Cause) String() string {
	switch c {
	case CauseNone:
		return "none"
	case CauseTimeout:
		return "timeout"
	case CausePermanent:
		return "permanent"
	case CauseCanceled:
		return "canceled"
	default:
		return "failure"
	}
}

// Policy bounds a retry loop. Backoff is flat between attempts.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.Backoff < 0 {
		p.Backoff = 0
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

// Outcome is the tagged result of Retry: Value when Cause is CauseNone,
// otherwise the last error and its classification.
type Outcome[T any] struct {
	Value    T
	Err      error
	Cause    Cause
	Attempts int
}

// OK reports whether the operation eventually succeeded.
func (o Outcome[T]) OK() bool {
	return o.Cause == CauseNone
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Classify maps an attempt error onto a Cause.
func Classify(err error) Cause {
	if err == nil {
		return CauseNone
	}
	var perm *permanentError
	if errors.As(err, &perm) {
		return CausePermanent
	}
	if errors.Is(err, model.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	if errors.Is(err, context.Canceled) {
		return CauseCanceled
	}
	return CauseFailure
}

// Retry runs op until it succeeds, fails permanently, the attempt budget is spent,
// or ctx ends. The backoff wait returns early when ctx is done.
func Retry[T any](ctx context.Context, policy Policy, op func(ctx context.Context, attempt int) (T, error)) Outcome[T] {
	policy = policy.withDefaults()

	var out Outcome[T]
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		out.Attempts = attempt
		value, err := op(ctx, attempt)
		if err == nil {
			return Outcome[T]{Value: value, Cause: CauseNone, Attempts: attempt}
		}
		out.Err = err
		out.Cause = Classify(err)

		if out.Cause == CausePermanent {
			return out
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			out.Cause = ctxCause(ctxErr)
			return out
		}
		if attempt == policy.MaxAttempts {
			break
		}

		logger.Warn(ctx, "execution attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", policy.MaxAttempts),
			zap.Duration("backoff", policy.Backoff),
			zap.String("cause", out.Cause.String()),
			zap.Error(err),
		)
		if err := policy.Sleep(ctx, policy.Backoff); err != nil {
			logger.Warn(ctx, "execution retry canceled during backoff",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", policy.Backoff),
			)
			out.Cause = ctxCause(err)
			return out
		}
	}
	return out
}

func ctxCause(err error) Cause {
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	return CauseCanceled
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
