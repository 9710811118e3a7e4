package service

import (
	"fmt"
	"math"

	"mockinterview/internal/compiler/model"
)

// Normalize maps a remote reply onto an ExecutionResult. Absent output fields become "",
// and a millisecond duration becomes seconds rounded to three decimals.
func Normalize(raw model.RawResponse) model.ExecutionResult {
	status := model.StatusError
	if raw.OK {
		status = model.StatusAccepted
	}
	res := model.ExecutionResult{
		Success:    status == model.StatusAccepted,
		Stdout:     deref(raw.Stdout),
		Stderr:     deref(raw.Stderr),
		Status:     status,
		StatusCode: status.Code(),
	}
	if raw.Duration != nil && !math.IsNaN(*raw.Duration) && *raw.Duration >= 0 {
		secs := math.Round(*raw.Duration) / 1000
		res.ElapsedSeconds = &secs
	}
	return res
}

// failureResult builds the result for a run whose attempts all failed.
func failureResult[T any](out Outcome[T]) model.ExecutionResult {
	status := model.StatusError
	var msg string
	switch out.Cause {
	case CauseTimeout:
		status = model.StatusTimeout
		msg = fmt.Sprintf("execution timed out after %d %s", out.Attempts, plural(out.Attempts))
	case CauseCanceled:
		msg = "execution canceled"
	case CausePermanent:
		msg = fmt.Sprintf("execution failed: %v", out.Err)
	default:
		msg = fmt.Sprintf("execution failed after %d %s: %v", out.Attempts, plural(out.Attempts), out.Err)
	}
	return model.ExecutionResult{
		Success:    false,
		Status:     status,
		StatusCode: status.Code(),
		Error:      msg,
		Attempts:   out.Attempts,
	}
}

func plural(n int) string {
	if n == 1 {
		return "attempt"
	}
	return "attempts"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
