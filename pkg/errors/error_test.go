package errors_test

import (
	"errors"
	"fmt"
	"testing"

	. "mockinterview/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{EmailAlreadyExists, "User already exists with this email"},
		{LanguageNotSupported, "Language not supported"},
		{InterviewNotFound, "Interview not found"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantStatus int
	}{
		{Success, 200},
		{InvalidParams, 400},
		{SourceCodeEmpty, 400},
		{LanguageNotSupported, 400},
		{EmailAlreadyExists, 400},
		{InvalidCredentials, 401},
		{TokenExpired, 401},
		{InterviewAccessDenied, 403},
		{ResumeNotFound, 404},
		{QuestionNotFound, 404},
		{ResumeTooLarge, 413},
		{ExecutionTooFrequent, 429},
		{AIUnavailable, 503},
		{InternalServerError, 500},
		{DatabaseError, 500},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.wantStatus {
				t.Errorf("HTTPStatus() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(InterviewNotFound, "interview %d not found", 7)
	if err.Error() != "interview 7 not found" {
		t.Errorf("Error() = %v", err.Error())
	}
	if err.Stack == "" {
		t.Error("expected stack to be captured")
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, DatabaseError)

	if !errors.Is(err, cause) {
		t.Fatal("wrapped error should unwrap to its cause")
	}
	if GetCode(err) != DatabaseError {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), DatabaseError)
	}
	if Wrap(nil, DatabaseError) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	inner := New(ResumeNotFound)
	outer := fmt.Errorf("load latest resume: %w", inner)

	if GetCode(outer) != ResumeNotFound {
		t.Errorf("GetCode() = %v, want %v", GetCode(outer), ResumeNotFound)
	}
	if !Is(outer, ResumeNotFound) {
		t.Error("Is() should see through fmt wrapping")
	}
	if GetError(outer) != inner {
		t.Error("GetError() should return the inner error")
	}
}

func TestGetCodeForeignError(t *testing.T) {
	if GetCode(errors.New("boom")) != InternalServerError {
		t.Error("foreign errors map to InternalServerError")
	}
	if GetCode(nil) != Success {
		t.Error("nil maps to Success")
	}
}

func TestInvalidInputDetail(t *testing.T) {
	err := InvalidInput(SourceCodeEmpty, "sourceCode")
	if err.Details["field"] != "sourceCode" {
		t.Errorf("field detail = %v", err.Details["field"])
	}
	if err.Code.HTTPStatus() != 400 {
		t.Errorf("status = %d", err.Code.HTTPStatus())
	}
}

func TestWrapCustomErrorKeepsBoth(t *testing.T) {
	inner := New(ResumeNotFound)
	outer := Wrap(inner, DatabaseError)

	if inner.Code != ResumeNotFound {
		t.Fatal("Wrap must not mutate the inner error")
	}
	if GetCode(outer) != DatabaseError {
		t.Errorf("GetCode() = %v, want %v", GetCode(outer), DatabaseError)
	}
	if !errors.Is(outer, inner) {
		t.Error("outer should unwrap to inner")
	}
}

func TestGetErrorForeign(t *testing.T) {
	cause := errors.New("disk full")
	got := GetError(cause)
	if got.Code != InternalServerError || got.Error() != "disk full" {
		t.Errorf("GetError() = %v / %q", got.Code, got.Error())
	}
	if !errors.Is(got, cause) {
		t.Error("wrapped foreign error should unwrap")
	}
}
