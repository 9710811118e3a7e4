package controller

import (
	"context"

	"mockinterview/internal/compiler/model"
	"mockinterview/internal/compiler/profile"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Runner is the slice of the compiler service the HTTP layer needs.
type Runner interface {
	Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error)
	RunTests(ctx context.Context, sourceCode, language string, cases []model.TestCase) (model.TestReport, error)
}

// CompilerController handles code execution endpoints.
type CompilerController struct {
	runner Runner
}

// NewCompilerController creates a new CompilerController.
func NewCompilerController(runner Runner) *CompilerController {
	return &CompilerController{runner: runner}
}

// Execute runs one program.
func (h *CompilerController) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	res, err := h.runner.Execute(c.Request.Context(), model.ExecutionRequest{
		SourceCode: req.SourceCode,
		Language:   req.Language,
		Stdin:      req.Stdin,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toExecuteResponse(res))
}

// Test runs a program against every test case.
func (h *CompilerController) Test(c *gin.Context) {
	var req TestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	cases := make([]model.TestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		cases = append(cases, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}
	report, err := h.runner.RunTests(c.Request.Context(), req.SourceCode, req.Language, cases)
	if err != nil {
		response.Error(c, err)
		return
	}

	out := TestResponse{
		TestResults: make([]TestResultItem, 0, len(report.Results)),
		TotalTests:  report.TotalTests,
		PassedTests: report.PassedTests,
		Success:     report.Success,
	}
	for _, r := range report.Results {
		out.TestResults = append(out.TestResults, TestResultItem{
			Input:          r.Input,
			ExpectedOutput: r.Expected(),
			ActualOutput:   r.ActualOutput,
			Passed:         r.Passed,
			Status:         string(r.Result.Status),
			Time:           r.Result.ElapsedSeconds,
			Stderr:         r.Result.Stderr,
			Error:          r.Result.Error,
		})
	}
	response.Success(c, out)
}

// Languages lists the supported language names.
func (h *CompilerController) Languages(c *gin.Context) {
	response.Success(c, LanguagesResponse{Languages: profile.Supported()})
}

func toExecuteResponse(res model.ExecutionResult) ExecuteResponse {
	return ExecuteResponse{
		Success:  res.Success,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Error:    res.Error,
		Status:   string(res.Status),
		StatusID: res.StatusCode,
		Time:     res.ElapsedSeconds,
		Attempts: res.Attempts,
	}
}

type ExecuteRequest struct {
	SourceCode string `json:"sourceCode"`
	Language   string `json:"language"`
	Stdin      string `json:"stdin"`
}

type ExecuteResponse struct {
	Success  bool     `json:"success"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	Error    string   `json:"error,omitempty"`
	Status   string   `json:"status"`
	StatusID int      `json:"statusId"`
	Time     *float64 `json:"time,omitempty"`
	Attempts int      `json:"attempts"`
}

// TestCaseRequest leaves ExpectedOutput nil when the field is absent, which the
// service rejects; an empty string is a valid expectation.
type TestCaseRequest struct {
	Input          string  `json:"input"`
	ExpectedOutput *string `json:"expectedOutput"`
}

type TestRequest struct {
	SourceCode string            `json:"sourceCode"`
	Language   string            `json:"language"`
	TestCases  []TestCaseRequest `json:"testCases"`
}

type TestResultItem struct {
	Input          string   `json:"input"`
	ExpectedOutput string   `json:"expectedOutput"`
	ActualOutput   string   `json:"actualOutput"`
	Passed         bool     `json:"passed"`
	Status         string   `json:"status"`
	Time           *float64 `json:"time,omitempty"`
	Stderr         string   `json:"stderr,omitempty"`
	Error          string   `json:"error,omitempty"`
}

type TestResponse struct {
	TestResults []TestResultItem `json:"testResults"`
	TotalTests  int              `json:"totalTests"`
	PassedTests int              `json:"passedTests"`
	Success     bool             `json:"success"`
}

type LanguagesResponse struct {
	Languages []string `json:"languages"`
}
