package model

import "errors"

// Execution backend failures. Clients wrap these so callers can classify with errors.Is.
var (
	ErrTimeout   = errors.New("execution backend timed out")
	ErrTransport = errors.New("execution backend unreachable")
	ErrBadStatus = errors.New("execution backend returned an error status")
	ErrMalformed = errors.New("execution backend returned a malformed response")

	// ErrRejected marks a submission that could not be sent at all. It is never retried.
	ErrRejected = errors.New("submission rejected before sending")
)
