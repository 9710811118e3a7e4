package model

// Status is the normalized outcome of one execution.
type Status string

const (
	StatusAccepted Status = "Accepted"
	StatusError    Status = "Error"
	StatusTimeout  Status = "Timeout"
)

// Status codes follow the Judge0 numbering the frontend already understands.
const (
	StatusCodeAccepted = 3
	StatusCodeError    = 4
	StatusCodeTimeout  = 5
)

// Code returns the numeric status id.
func (s Status) Code() int {
	switch s {
	case StatusAccepted:
		return StatusCodeAccepted
	case StatusTimeout:
		return StatusCodeTimeout
	default:
		return StatusCodeError
	}
}

// SandboxCommand is the command every sandbox runs.
const SandboxCommand = "run"

// ExecutionRequest is one inbound run of user code.
type ExecutionRequest struct {
	SourceCode string
	Language   string
	Stdin      string
}

// PreparedSubmission is what is sent for one execution attempt.
type PreparedSubmission struct {
	Language    string
	SandboxID   string
	FileName    string
	FileContent string
	Command     string

	// EntryPoint is the type the runtime starts from, set only for wrapped languages.
	EntryPoint string
}

// RawResponse is the remote execution reply before normalization.
// Pointer fields distinguish an absent field from an empty one.
type RawResponse struct {
	OK       bool
	Stdout   *string
	Stderr   *string
	Duration *float64 // milliseconds
}

// ExecutionResult is the normalized, immutable outcome returned to callers.
type ExecutionResult struct {
	Success    bool
	Stdout     string
	Stderr     string
	Status     Status
	StatusCode int

	// ElapsedSeconds is nil when the remote service reported no duration.
	ElapsedSeconds *float64

	// Error explains a failed run; empty on success.
	Error    string
	Attempts int
}

// TestCase pairs stdin with the expected stdout. A nil ExpectedOutput means the
// caller sent none; an empty one expects empty output.
type TestCase struct {
	Input          string
	ExpectedOutput *string
}

// Expected returns the expected output, or "" when none was given.
func (tc TestCase) Expected() string {
	if tc.ExpectedOutput == nil {
		return ""
	}
	return *tc.ExpectedOutput
}

// TestCaseResult is the outcome of one case.
type TestCaseResult struct {
	TestCase
	ActualOutput string
	Passed       bool
	Result       ExecutionResult
}

// TestReport aggregates a batch in input order.
type TestReport struct {
	Results     []TestCaseResult
	TotalTests  int
	PassedTests int
	Success     bool
}
