package service

import (
	"context"
	"errors"
	"strings"

	"mockinterview/internal/compiler/model"
	appErr "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

// RunTests executes every case in order, one independent run per case, and compares
// trimmed stdout with the trimmed expected output. A failing case never stops the batch.
// The whole batch shares one deadline; cases left when it expires are reported as
// timed out without being sent.
func (s *CompilerService) RunTests(ctx context.Context, sourceCode, language string, cases []model.TestCase) (model.TestReport, error) {
	if len(cases) == 0 {
		return model.TestReport{}, appErr.InvalidInput(appErr.TestCasesRequired, "testCases")
	}
	for i, tc := range cases {
		if tc.ExpectedOutput == nil {
			return model.TestReport{}, appErr.InvalidInput(appErr.ExpectedOutputEmpty, "testCases").
				WithDetail("index", i)
		}
	}
	sub, err := Prepare(sourceCode, language)
	if err != nil {
		return model.TestReport{}, err
	}

	batchCtx, cancelBatch := context.WithTimeout(ctx, s.batchTimeout)
	defer cancelBatch()

	report := model.TestReport{
		Results:    make([]model.TestCaseResult, 0, len(cases)),
		TotalTests: len(cases),
	}
	skipped := 0
	for _, tc := range cases {
		var res model.ExecutionResult
		if ctxErr := batchCtx.Err(); ctxErr != nil {
			res = unsentResult(ctxErr)
			skipped++
		} else {
			caseCtx, cancel := context.WithTimeout(batchCtx, s.requestTimeout)
			res = s.SubmitWithRetry(caseCtx, sub, tc.Input)
			cancel()
		}

		actual := strings.TrimSpace(res.Stdout)
		// A relay failure carries Error and never counts as output, even against an empty expectation.
		passed := res.Error == "" && actual == strings.TrimSpace(tc.Expected())
		if passed {
			report.PassedTests++
		}
		report.Results = append(report.Results, model.TestCaseResult{
			TestCase:     tc,
			ActualOutput: actual,
			Passed:       passed,
			Result:       res,
		})
	}
	report.Success = report.PassedTests == report.TotalTests

	logger.Info(ctx, "test cases executed",
		zap.String("language", sub.Language),
		zap.Int("total", report.TotalTests),
		zap.Int("passed", report.PassedTests),
		zap.Int("skipped", skipped),
	)
	return report, nil
}

func unsentResult(ctxErr error) model.ExecutionResult {
	status := model.StatusTimeout
	msg := "test batch deadline exceeded before this case ran"
	if !errors.Is(ctxErr, context.DeadlineExceeded) {
		status = model.StatusError
		msg = "test batch canceled before this case ran"
	}
	return model.ExecutionResult{
		Status:     status,
		StatusCode: status.Code(),
		Error:      msg,
	}
}
