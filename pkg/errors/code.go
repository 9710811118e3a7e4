package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: User & Auth errors
// 12000-12999: Resume errors
// 13000-13999: Compiler (code execution) errors
// 14000-14999: Interview errors
// 15000-15999: AI collaborator errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102
	TransactionFailed   ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	RequiredFieldEmpty ErrorCode = 10303

	// Storage errors (10400-10499)
	StorageError ErrorCode = 10400

	// ========== User & Auth Errors (11000-11999) ==========

	// Authentication (11000-11099)
	InvalidCredentials    ErrorCode = 11000
	UserNotFound          ErrorCode = 11001
	TokenExpired          ErrorCode = 11003
	TokenInvalid          ErrorCode = 11004
	TokenGenerationFailed ErrorCode = 11005

	// Registration (11100-11199)
	EmailAlreadyExists ErrorCode = 11101
	InvalidEmail       ErrorCode = 11103
	InvalidPassword    ErrorCode = 11104
	InvalidName        ErrorCode = 11106

	// ========== Resume Errors (12000-12999) ==========

	ResumeNotFound       ErrorCode = 12000
	ResumeRequired       ErrorCode = 12001
	ResumeTooLarge       ErrorCode = 12002
	ResumeTypeRejected   ErrorCode = 12003
	ResumeTextEmpty      ErrorCode = 12004
	ResumeExtractFailed  ErrorCode = 12005
	AnalysisNotFound     ErrorCode = 12100
	AnalysisEnqueueError ErrorCode = 12101

	// ========== Compiler Errors (13000-13999) ==========

	SourceCodeEmpty      ErrorCode = 13000
	LanguageNotSupported ErrorCode = 13003
	TestCasesRequired    ErrorCode = 13004
	ExpectedOutputEmpty  ErrorCode = 13005
	ExecutionTooFrequent ErrorCode = 13006

	// ========== Interview Errors (14000-14999) ==========

	InterviewNotFound     ErrorCode = 14000
	QuestionNotFound      ErrorCode = 14001
	AnswerRequired        ErrorCode = 14002
	InterviewAccessDenied ErrorCode = 14003
	InvalidRoundType      ErrorCode = 14004
	ReportRenderFailed    ErrorCode = 14100

	// ========== AI Errors (15000-15999) ==========

	AIUnavailable   ErrorCode = 15000
	AIRequestFailed ErrorCode = 15001
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	Success: "Success",

	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized",
	Forbidden:           "Forbidden",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Request timeout",

	DatabaseError:       "Database error",
	RecordNotFound:      "Record not found",
	RecordAlreadyExists: "Record already exists",
	TransactionFailed:   "Transaction failed",

	CacheError: "Cache error",

	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	RequiredFieldEmpty: "Required field is empty",

	StorageError: "Object storage error",

	InvalidCredentials:    "Invalid credentials",
	UserNotFound:          "User not found",
	TokenExpired:          "Token has expired",
	TokenInvalid:          "Invalid token",
	TokenGenerationFailed: "Failed to generate token",

	EmailAlreadyExists: "User already exists with this email",
	InvalidEmail:       "Invalid email address",
	InvalidPassword:    "Invalid password",
	InvalidName:        "Invalid name",

	ResumeNotFound:       "Resume not found",
	ResumeRequired:       "Resume file is required",
	ResumeTooLarge:       "Resume file is too large",
	ResumeTypeRejected:   "Only PDF, DOC, DOCX and TXT files are supported",
	ResumeTextEmpty:      "Could not extract text from the resume",
	ResumeExtractFailed:  "Failed to extract resume text",
	AnalysisNotFound:     "Resume analysis not found",
	AnalysisEnqueueError: "Failed to queue resume analysis",

	SourceCodeEmpty:      "Source code is required",
	LanguageNotSupported: "Language not supported",
	TestCasesRequired:    "At least one test case is required",
	ExpectedOutputEmpty:  "Expected output is required for every test case",
	ExecutionTooFrequent: "Code execution requested too frequently",

	InterviewNotFound:     "Interview not found",
	QuestionNotFound:      "Question not found",
	AnswerRequired:        "Answer is required",
	InterviewAccessDenied: "Interview belongs to another user",
	InvalidRoundType:      "Invalid round type",
	ReportRenderFailed:    "Failed to render interview report",

	AIUnavailable:   "AI service is not configured",
	AIRequestFailed: "AI request failed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == InvalidCredentials, c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return 401
	case c == Forbidden, c == InterviewAccessDenied:
		return 403
	case c == NotFound, c == RecordNotFound, c == UserNotFound, c == ResumeNotFound,
		c == AnalysisNotFound, c == InterviewNotFound, c == QuestionNotFound:
		return 404
	case c == TooManyRequests, c == ExecutionTooFrequent:
		return 429
	case c == ServiceUnavailable, c == AIUnavailable:
		return 503
	case c == Timeout:
		return 504
	case c == ResumeTooLarge:
		return 413
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == EmailAlreadyExists, c == InvalidEmail, c == InvalidPassword, c == InvalidName:
		return 400
	case c >= 12001 && c < 12005, c >= 13000 && c < 13006, c == AnswerRequired, c == InvalidRoundType:
		return 400
	default:
		return 500
	}
}
