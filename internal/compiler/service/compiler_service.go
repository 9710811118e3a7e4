package service

import (
	"context"
	"errors"
	"time"

	"mockinterview/internal/compiler/model"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

// Executor performs one remote execution attempt.
type Executor interface {
	Execute(ctx context.Context, sub model.PreparedSubmission, stdin string) (model.RawResponse, error)
}

const (
	defaultRequestTimeout = 60 * time.Second
	defaultBatchTimeout   = 80 * time.Second
)

// Config controls retries and deadlines. RequestTimeout bounds one execution,
// BatchTimeout bounds a whole RunTests call.
type Config struct {
	MaxAttempts    int
	Backoff        time.Duration
	RequestTimeout time.Duration
	BatchTimeout   time.Duration
}

// CompilerService relays user code to the remote sandbox.
type CompilerService struct {
	executor       Executor
	policy         Policy
	requestTimeout time.Duration
	batchTimeout   time.Duration
}

func NewCompilerService(executor Executor, cfg Config) *CompilerService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	return &CompilerService{
		executor:       executor,
		policy:         Policy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.Backoff},
		requestTimeout: cfg.RequestTimeout,
		batchTimeout:   cfg.BatchTimeout,
	}
}

// WithSleep replaces the backoff wait; used by tests.
func (s *CompilerService) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *CompilerService {
	s.policy.Sleep = sleep
	return s
}

// Execute validates and prepares the request, then runs it with retries.
// Only invalid input and unsupported languages return an error; execution failures
// are reported in the result.
func (s *CompilerService) Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error) {
	sub, err := Prepare(req.SourceCode, req.Language)
	if err != nil {
		return model.ExecutionResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	res := s.SubmitWithRetry(ctx, sub, req.Stdin)
	logger.Info(ctx, "code executed",
		zap.String("language", sub.Language),
		zap.String("file", sub.FileName),
		zap.String("status", string(res.Status)),
		zap.Int("attempts", res.Attempts),
	)
	return res, nil
}

// SubmitWithRetry sends sub, retrying timeouts and backend failures under the policy.
// A parseable reply ends the loop whether or not the program itself succeeded.
func (s *CompilerService) SubmitWithRetry(ctx context.Context, sub model.PreparedSubmission, stdin string) model.ExecutionResult {
	out := Retry(ctx, s.policy, func(ctx context.Context, attempt int) (model.RawResponse, error) {
		logger.Debug(ctx, "submitting code",
			zap.String("sandbox", sub.SandboxID),
			zap.Int("attempt", attempt),
		)
		raw, err := s.executor.Execute(ctx, sub, stdin)
		if errors.Is(err, model.ErrRejected) {
			return raw, Permanent(err)
		}
		return raw, err
	})
	if !out.OK() {
		logger.Warn(ctx, "code execution failed",
			zap.String("sandbox", sub.SandboxID),
			zap.Int("attempts", out.Attempts),
			zap.String("cause", out.Cause.String()),
			zap.Error(out.Err),
		)
		return failureResult(out)
	}
	res := Normalize(out.Value)
	res.Attempts = out.Attempts
	return res
}
