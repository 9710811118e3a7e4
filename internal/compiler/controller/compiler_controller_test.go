package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mockinterview/internal/compiler/model"
	appErr "mockinterview/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	execReq model.ExecutionRequest
	result  model.ExecutionResult
	report  model.TestReport
	cases   []model.TestCase
	err     error
}

func (f *fakeRunner) Execute(_ context.Context, req model.ExecutionRequest) (model.ExecutionResult, error) {
	f.execReq = req
	return f.result, f.err
}

func (f *fakeRunner) RunTests(_ context.Context, _, _ string, cases []model.TestCase) (model.TestReport, error) {
	f.cases = cases
	return f.report, f.err
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newRouter(r Runner) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := NewCompilerController(r)
	engine.POST("/api/compiler/execute", h.Execute)
	engine.POST("/api/compiler/test", h.Test)
	engine.GET("/api/compiler/languages", h.Languages)
	return engine
}

func do(t *testing.T, engine *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestExecuteReturnsResult(t *testing.T) {
	elapsed := 0.25
	runner := &fakeRunner{result: model.ExecutionResult{
		Success: true, Stdout: "5\n", Status: model.StatusAccepted,
		StatusCode: model.StatusCodeAccepted, ElapsedSeconds: &elapsed, Attempts: 1,
	}}
	w, env := do(t, newRouter(runner), http.MethodPost, "/api/compiler/execute",
		`{"sourceCode":"print(5)","language":"python","stdin":"x"}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "python", runner.execReq.Language)
	require.Equal(t, "x", runner.execReq.Stdin)

	var got ExecuteResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.True(t, got.Success)
	require.Equal(t, "Accepted", got.Status)
	require.Equal(t, 3, got.StatusID)
	require.Equal(t, 0.25, *got.Time)
}

func TestExecuteFailedRunIsStillOK(t *testing.T) {
	runner := &fakeRunner{result: model.ExecutionResult{
		Status: model.StatusTimeout, StatusCode: model.StatusCodeTimeout,
		Error: "execution timed out after 3 attempts", Attempts: 3,
	}}
	w, env := do(t, newRouter(runner), http.MethodPost, "/api/compiler/execute",
		`{"sourceCode":"x","language":"go"}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got ExecuteResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.False(t, got.Success)
	require.Equal(t, 5, got.StatusID)
	require.Nil(t, got.Time)
}

func TestExecuteUnsupportedLanguage(t *testing.T) {
	runner := &fakeRunner{err: appErr.New(appErr.LanguageNotSupported)}
	w, env := do(t, newRouter(runner), http.MethodPost, "/api/compiler/execute",
		`{"sourceCode":"x","language":"cobol"}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int(appErr.LanguageNotSupported), env.Code)
}

func TestExecuteRejectsBadJSON(t *testing.T) {
	w, env := do(t, newRouter(&fakeRunner{}), http.MethodPost, "/api/compiler/execute", `{"sourceCode":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, int(appErr.InvalidParams), env.Code)
}

func TestTestEndpointMapsReport(t *testing.T) {
	runner := &fakeRunner{report: model.TestReport{
		Results: []model.TestCaseResult{
			{TestCase: model.TestCase{Input: "1", ExpectedOutput: strPtr("1")}, ActualOutput: "1", Passed: true,
				Result: model.ExecutionResult{Success: true, Status: model.StatusAccepted}},
			{TestCase: model.TestCase{Input: "2", ExpectedOutput: strPtr("4")}, ActualOutput: "3",
				Result: model.ExecutionResult{Success: true, Status: model.StatusAccepted}},
		},
		TotalTests: 2, PassedTests: 1,
	}}
	w, env := do(t, newRouter(runner), http.MethodPost, "/api/compiler/test",
		`{"sourceCode":"x","language":"python","testCases":[{"input":"1","expectedOutput":"1"},{"input":"2","expectedOutput":"4"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var got TestResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got.TestResults, 2)
	require.Equal(t, 1, got.PassedTests)
	require.False(t, got.Success)
	require.Equal(t, "3", got.TestResults[1].ActualOutput)
	require.Equal(t, "4", got.TestResults[1].ExpectedOutput)
	require.False(t, got.TestResults[1].Passed)
}

func TestTestEndpointKeepsEmptyAndAbsentExpectations(t *testing.T) {
	runner := &fakeRunner{}
	w, _ := do(t, newRouter(runner), http.MethodPost, "/api/compiler/test",
		`{"sourceCode":"x","language":"python","testCases":[{"input":"1","expectedOutput":""},{"input":"2"}]}`)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.cases, 2)
	require.NotNil(t, runner.cases[0].ExpectedOutput)
	require.Equal(t, "", *runner.cases[0].ExpectedOutput)
	require.Nil(t, runner.cases[1].ExpectedOutput)
}

func strPtr(s string) *string { return &s }

func TestLanguages(t *testing.T) {
	w, env := do(t, newRouter(&fakeRunner{}), http.MethodGet, "/api/compiler/languages", "")
	require.Equal(t, http.StatusOK, w.Code)
	var got LanguagesResponse
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Contains(t, got.Languages, "java")
	require.Len(t, got.Languages, 8)
}
