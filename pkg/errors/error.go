package errors

import (
	stderrors "errors"
	"fmt"
	"runtime"
	"strings"
)

const stackDepth = 16

// Error carries an ErrorCode through the service layers to the response writer.
type Error struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Err     error
	// Stack is captured where the error was created, for server-side logs only.
	Stack string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
		Stack:   callers(4),
	}
}

// New creates an Error with the code's default message.
func New(code ErrorCode) *Error {
	return newError(code, code.Message(), nil)
}

func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap attaches code to err. The cause's message is kept so clients see what went
// wrong, and an existing *Error is wrapped rather than mutated.
func Wrap(err error, code ErrorCode) *Error {
	if err == nil {
		return nil
	}
	return newError(code, err.Error(), err)
}

// Wrapf is Wrap with a client-facing message replacing the cause's.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return newError(code, fmt.Sprintf(format, args...), err)
}

func (e *Error) WithMessage(msg string) *Error {
	e.Message = msg
	return e
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, 1)
	}
	e.Details[key] = value
	return e
}

// GetCode returns Success for nil and InternalServerError for foreign errors.
func GetCode(err error) ErrorCode {
	if err == nil {
		return Success
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return InternalServerError
}

// GetError returns the outermost *Error in err's chain, wrapping foreign errors
// as InternalServerError.
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return newError(InternalServerError, err.Error(), err)
}

// Is reports whether the outermost *Error in err's chain carries code.
func Is(err error, code ErrorCode) bool {
	var e *Error
	return err != nil && stderrors.As(err, &e) && e.Code == code
}

func callers(skip int) string {
	var pcs [stackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	if n == 0 {
		return ""
	}
	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			fmt.Fprintf(&b, "\n\t%s:%d %s", frame.File, frame.Line, frame.Function)
		}
		if !more {
			return b.String()
		}
	}
}

// BadRequest is InvalidParams with a custom message.
func BadRequest(msg string) *Error {
	return New(InvalidParams).WithMessage(msg)
}

// InvalidInput rejects one request field with a specific code.
func InvalidInput(code ErrorCode, field string) *Error {
	return New(code).WithDetail("field", field)
}

func ValidationError(field, reason string) *Error {
	return New(ValidationFailed).
		WithDetail("field", field).
		WithDetail("reason", reason)
}
