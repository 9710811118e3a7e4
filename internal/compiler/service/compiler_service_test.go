package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"mockinterview/internal/compiler/model"
	appErr "mockinterview/pkg/errors"
)

type fakeExecutor struct {
	mu      sync.Mutex
	calls   []string
	subs    []model.PreparedSubmission
	respond func(call int, stdin string) (model.RawResponse, error)
}

func (f *fakeExecutor) Execute(_ context.Context, sub model.PreparedSubmission, stdin string) (model.RawResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, stdin)
	f.subs = append(f.subs, sub)
	n := len(f.calls)
	f.mu.Unlock()
	return f.respond(n, stdin)
}

// blockingExecutor records the call, then holds it until ctx is done.
type blockingExecutor struct {
	mu    sync.Mutex
	calls []string
}

func (b *blockingExecutor) Execute(ctx context.Context, _ model.PreparedSubmission, stdin string) (model.RawResponse, error) {
	b.mu.Lock()
	b.calls = append(b.calls, stdin)
	b.mu.Unlock()
	<-ctx.Done()
	return model.RawResponse{}, ctx.Err()
}

func strPtr(s string) *string { return &s }

func f64Ptr(v float64) *float64 { return &v }

func newTestService(exec Executor) *CompilerService {
	return NewCompilerService(exec, Config{MaxAttempts: 3, Backoff: time.Second}).WithSleep(noSleep)
}

func TestNormalizeAccepted(t *testing.T) {
	res := Normalize(model.RawResponse{OK: true, Stdout: strPtr("5\n"), Duration: f64Ptr(250)})
	if !res.Success || res.Status != model.StatusAccepted || res.StatusCode != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Stdout != "5\n" || res.Stderr != "" {
		t.Fatalf("stdout=%q stderr=%q", res.Stdout, res.Stderr)
	}
	if res.ElapsedSeconds == nil || *res.ElapsedSeconds != 0.25 {
		t.Fatalf("elapsed = %v", res.ElapsedSeconds)
	}
	if got := fmt.Sprintf("%.3f", *res.ElapsedSeconds); got != "0.250" {
		t.Fatalf("formatted elapsed = %s", got)
	}
}

func TestNormalizeErrorWithMissingFields(t *testing.T) {
	res := Normalize(model.RawResponse{OK: false})
	if res.Success || res.Status != model.StatusError || res.StatusCode != 4 {
		t.Fatalf("result = %+v", res)
	}
	if res.Stdout != "" || res.Stderr != "" || res.ElapsedSeconds != nil {
		t.Fatalf("absent fields must default: %+v", res)
	}
	if got := Normalize(model.RawResponse{OK: true, Duration: f64Ptr(1234.6)}); *got.ElapsedSeconds != 1.235 {
		t.Fatalf("rounding: %v", *got.ElapsedSeconds)
	}
}

func TestSubmitWithRetryAlwaysTimesOut(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{}, fmt.Errorf("%w: read tcp: i/o timeout", model.ErrTimeout)
	}}
	svc := newTestService(exec)
	sub, _ := Prepare("print(1)", "python")

	res := svc.SubmitWithRetry(context.Background(), sub, "")
	if len(exec.calls) != 3 {
		t.Fatalf("attempts = %d, want 3", len(exec.calls))
	}
	if res.Success || res.Status != model.StatusTimeout || res.StatusCode != 5 {
		t.Fatalf("result = %+v", res)
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Fatalf("error = %q", res.Error)
	}
}

func TestSubmitWithRetryGenericFailureMessage(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{}, fmt.Errorf("%w: codapi status 502", model.ErrBadStatus)
	}}
	res := newTestService(exec).SubmitWithRetry(context.Background(), model.PreparedSubmission{SandboxID: "go"}, "")
	if len(exec.calls) != 3 {
		t.Fatalf("attempts = %d", len(exec.calls))
	}
	if res.Status != model.StatusError || !strings.Contains(res.Error, "execution failed") || strings.Contains(res.Error, "timed out") {
		t.Fatalf("result = %+v", res)
	}
}

func TestSubmitWithRetrySucceedsOnSecondAttempt(t *testing.T) {
	exec := &fakeExecutor{respond: func(call int, _ string) (model.RawResponse, error) {
		if call == 1 {
			return model.RawResponse{}, model.ErrTimeout
		}
		return model.RawResponse{OK: true, Stdout: strPtr("ok\n")}, nil
	}}
	res := newTestService(exec).SubmitWithRetry(context.Background(), model.PreparedSubmission{SandboxID: "python"}, "")
	if !res.Success || res.Attempts != 2 {
		t.Fatalf("result = %+v", res)
	}
	if len(exec.calls) != 2 {
		t.Fatalf("attempts = %d, want 2", len(exec.calls))
	}
}

func TestSubmitWithRetryProgramErrorNotRetried(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{OK: false, Stderr: strPtr("SyntaxError")}, nil
	}}
	res := newTestService(exec).SubmitWithRetry(context.Background(), model.PreparedSubmission{}, "")
	if len(exec.calls) != 1 {
		t.Fatalf("attempts = %d, want 1", len(exec.calls))
	}
	if res.Success || res.Status != model.StatusError || res.Stderr != "SyntaxError" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSubmitWithRetryRejectedSubmissionNotRetried(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{}, fmt.Errorf("%w: no judge0 language id for \"cobol\"", model.ErrRejected)
	}}
	res := newTestService(exec).SubmitWithRetry(context.Background(), model.PreparedSubmission{Language: "cobol"}, "")
	if len(exec.calls) != 1 {
		t.Fatalf("attempts = %d, want 1", len(exec.calls))
	}
	if res.Success || res.Status != model.StatusError || !strings.Contains(res.Error, "cobol") {
		t.Fatalf("result = %+v", res)
	}
}

func TestExecuteValidatesBeforeCallingBackend(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{OK: true}, nil
	}}
	svc := newTestService(exec)
	if _, err := svc.Execute(context.Background(), model.ExecutionRequest{SourceCode: "", Language: "python"}); !appErr.Is(err, appErr.SourceCodeEmpty) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.Execute(context.Background(), model.ExecutionRequest{SourceCode: "x", Language: "brainfuck"}); !appErr.Is(err, appErr.LanguageNotSupported) {
		t.Fatalf("err = %v", err)
	}
	if len(exec.calls) != 0 {
		t.Fatalf("backend called %d times for invalid input", len(exec.calls))
	}
}

func TestExecutePassesStdinAndPreparedFile(t *testing.T) {
	exec := &fakeExecutor{respond: func(_ int, stdin string) (model.RawResponse, error) {
		return model.RawResponse{OK: true, Stdout: strPtr(stdin)}, nil
	}}
	res, err := newTestService(exec).Execute(context.Background(), model.ExecutionRequest{
		SourceCode: `System.out.println("hi");`,
		Language:   "JAVA",
		Stdin:      "3 4",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !res.Success || res.Stdout != "3 4" {
		t.Fatalf("result = %+v", res)
	}
	if exec.subs[0].FileName != "Main.java" || exec.subs[0].SandboxID != "java" {
		t.Fatalf("submission = %+v", exec.subs[0])
	}
}

func TestExecuteRequestDeadlineAbortsRetries(t *testing.T) {
	exec := &fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{}, fmt.Errorf("%w: refused", model.ErrTransport)
	}}
	svc := NewCompilerService(exec, Config{MaxAttempts: 3, Backoff: time.Hour, RequestTimeout: 20 * time.Millisecond})

	start := time.Now()
	res, err := svc.Execute(context.Background(), model.ExecutionRequest{SourceCode: "print(1)", Language: "python"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("request deadline did not cut the backoff short")
	}
	if len(exec.calls) != 1 || res.Status != model.StatusTimeout {
		t.Fatalf("calls=%d result=%+v", len(exec.calls), res)
	}
}

func TestRunTestsReportsEveryCaseInOrder(t *testing.T) {
	exec := &fakeExecutor{respond: func(_ int, stdin string) (model.RawResponse, error) {
		switch stdin {
		case "1":
			return model.RawResponse{OK: true, Stdout: strPtr("2\n")}, nil
		case "2":
			return model.RawResponse{OK: true, Stdout: strPtr("5\n")}, nil
		default:
			return model.RawResponse{OK: true, Stdout: strPtr("  6  \n")}, nil
		}
	}}
	cases := []model.TestCase{
		{Input: "1", ExpectedOutput: strPtr("2")},
		{Input: "2", ExpectedOutput: strPtr("4")},
		{Input: "3", ExpectedOutput: strPtr("6\n")},
	}
	report, err := newTestService(exec).RunTests(context.Background(), "print(int(input())*2)", "python", cases)
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if report.TotalTests != 3 || report.PassedTests != 2 || report.Success {
		t.Fatalf("report = %+v", report)
	}
	if len(report.Results) != 3 {
		t.Fatalf("results = %d", len(report.Results))
	}
	for i, want := range []bool{true, false, true} {
		if report.Results[i].Passed != want {
			t.Fatalf("case %d passed=%v", i, report.Results[i].Passed)
		}
		if report.Results[i].Input != cases[i].Input {
			t.Fatalf("case %d out of order", i)
		}
	}
	if report.Results[1].ActualOutput != "5" {
		t.Fatalf("actual output = %q", report.Results[1].ActualOutput)
	}
	if strings.Join(exec.calls, ",") != "1,2,3" {
		t.Fatalf("executions = %v", exec.calls)
	}
}

func TestRunTestsValidation(t *testing.T) {
	svc := newTestService(&fakeExecutor{respond: func(int, string) (model.RawResponse, error) {
		return model.RawResponse{OK: true}, nil
	}})
	if _, err := svc.RunTests(context.Background(), "x", "python", nil); !appErr.Is(err, appErr.TestCasesRequired) {
		t.Fatalf("err = %v", err)
	}
	_, err := svc.RunTests(context.Background(), "x", "python", []model.TestCase{
		{Input: "1", ExpectedOutput: strPtr("1")},
		{Input: "2"},
	})
	if !appErr.Is(err, appErr.ExpectedOutputEmpty) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunTestsEmptyExpectedOutput(t *testing.T) {
	exec := &fakeExecutor{respond: func(_ int, stdin string) (model.RawResponse, error) {
		if stdin == "quiet" {
			return model.RawResponse{OK: true, Stdout: strPtr("\n")}, nil
		}
		return model.RawResponse{}, fmt.Errorf("%w: codapi status 502", model.ErrBadStatus)
	}}
	report, err := newTestService(exec).RunTests(context.Background(), "pass", "python", []model.TestCase{
		{Input: "quiet", ExpectedOutput: strPtr("")},
		{Input: "broken", ExpectedOutput: strPtr("  ")},
	})
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if !report.Results[0].Passed {
		t.Fatalf("empty stdout should match empty expectation: %+v", report.Results[0])
	}
	if report.Results[1].Passed || report.PassedTests != 1 || report.Success {
		t.Fatalf("relay failure must not pass: %+v", report)
	}
}

func TestRunTestsBatchDeadlineReportsRemainingCases(t *testing.T) {
	exec := &blockingExecutor{}
	svc := NewCompilerService(exec, Config{
		MaxAttempts:    3,
		Backoff:        time.Second,
		RequestTimeout: time.Second,
		BatchTimeout:   50 * time.Millisecond,
	}).WithSleep(noSleep)

	cases := []model.TestCase{
		{Input: "1", ExpectedOutput: strPtr("1")},
		{Input: "2", ExpectedOutput: strPtr("2")},
		{Input: "3", ExpectedOutput: strPtr("3")},
	}
	start := time.Now()
	report, err := svc.RunTests(context.Background(), "print(input())", "python", cases)
	if err != nil {
		t.Fatalf("run tests: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("batch ran %v past its deadline", elapsed)
	}
	if len(report.Results) != 3 || report.PassedTests != 0 || report.Success {
		t.Fatalf("report = %+v", report)
	}
	for i, r := range report.Results {
		if r.Result.Status != model.StatusTimeout || r.Result.Error == "" {
			t.Fatalf("case %d result = %+v", i, r.Result)
		}
		if r.Input != cases[i].Input {
			t.Fatalf("case %d out of order", i)
		}
	}
	if len(exec.calls) != 1 {
		t.Fatalf("executions = %d, want 1", len(exec.calls))
	}
	if !strings.Contains(report.Results[2].Result.Error, "deadline") {
		t.Fatalf("unsent case error = %q", report.Results[2].Result.Error)
	}
}
