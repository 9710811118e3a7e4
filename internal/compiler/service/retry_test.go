package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mockinterview/internal/compiler/model"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), Policy{MaxAttempts: 3, Backoff: time.Second, Sleep: noSleep},
		func(context.Context, int) (string, error) {
			calls++
			if calls == 2 {
				return "done", nil
			}
			return "", model.ErrTimeout
		})
	if !out.OK() || out.Value != "done" {
		t.Fatalf("outcome = %+v", out)
	}
	if calls != 2 || out.Attempts != 2 {
		t.Fatalf("calls=%d attempts=%d, want 2", calls, out.Attempts)
	}
}

func TestRetryExhaustsBudget(t *testing.T) {
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	calls := 0
	out := Retry(context.Background(), Policy{MaxAttempts: 3, Backoff: time.Second, Sleep: sleep},
		func(context.Context, int) (int, error) {
			calls++
			return 0, fmt.Errorf("%w: bad gateway", model.ErrBadStatus)
		})
	if out.OK() || out.Cause != CauseFailure {
		t.Fatalf("outcome = %+v", out)
	}
	if calls != 3 || out.Attempts != 3 {
		t.Fatalf("calls=%d attempts=%d", calls, out.Attempts)
	}
	if len(waits) != 2 || waits[0] != time.Second || waits[1] != time.Second {
		t.Fatalf("backoff must be flat between attempts, got %v", waits)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	calls := 0
	out := Retry(context.Background(), Policy{MaxAttempts: 3, Sleep: noSleep},
		func(context.Context, int) (int, error) {
			calls++
			return 0, Permanent(errors.New("unsupported"))
		})
	if calls != 1 || out.Cause != CausePermanent {
		t.Fatalf("calls=%d cause=%v", calls, out.Cause)
	}
}

func TestRetryBackoffCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan Outcome[int], 1)
	go func() {
		done <- Retry(ctx, Policy{MaxAttempts: 3, Backoff: time.Hour},
			func(context.Context, int) (int, error) {
				calls++
				return 0, model.ErrTimeout
			})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case out := <-done:
		if calls != 1 {
			t.Fatalf("calls = %d, want 1", calls)
		}
		if out.Cause != CauseCanceled {
			t.Fatalf("cause = %v, want canceled", out.Cause)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("backoff did not observe cancellation")
	}
}

func TestRetryDeadlineClassifiedAsTimeout(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	out := Retry(ctx, Policy{MaxAttempts: 3, Backoff: time.Hour},
		func(context.Context, int) (int, error) {
			return 0, errors.New("connection reset")
		})
	if out.Cause != CauseTimeout {
		t.Fatalf("cause = %v, want timeout", out.Cause)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Cause
	}{
		{nil, CauseNone},
		{fmt.Errorf("%w: dial", model.ErrTimeout), CauseTimeout},
		{context.DeadlineExceeded, CauseTimeout},
		{context.Canceled, CauseCanceled},
		{fmt.Errorf("%w: eof", model.ErrMalformed), CauseFailure},
		{Permanent(model.ErrTimeout), CausePermanent},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
