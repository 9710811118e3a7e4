package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/interview/model"
	"mockinterview/internal/interview/service"
	pkgerrors "mockinterview/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Code    pkgerrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
	Data    json.RawMessage     `json:"data"`
}

type fakeInterviews struct {
	started    service.StartInput
	withResume bool
	answer     string
}

func (f *fakeInterviews) Start(_ context.Context, userID int64, in service.StartInput) (*model.Interview, error) {
	f.started = in
	return &model.Interview{
		ID:        7,
		UserID:    userID,
		JobTitle:  in.JobTitle,
		StartedAt: time.Unix(0, 0).UTC(),
		Questions: []*model.Question{{ID: 1, QuestionText: "Q1"}, {ID: 2, QuestionText: "Q2"}},
	}, nil
}

func (f *fakeInterviews) StartWithResume(ctx context.Context, userID int64, in service.StartInput) (*model.Interview, error) {
	f.withResume = true
	return f.Start(ctx, userID, in)
}

func (f *fakeInterviews) SubmitAnswer(_ context.Context, userID, questionID int64, answer string) (*model.Answer, error) {
	if questionID == 404 {
		return nil, pkgerrors.New(pkgerrors.QuestionNotFound)
	}
	if userID != 42 {
		return nil, pkgerrors.New(pkgerrors.InterviewAccessDenied)
	}
	f.answer = answer
	return &model.Answer{ID: 3, QuestionID: questionID, UserAnswer: answer, AIFeedback: "Good.", Score: 81}, nil
}

func (f *fakeInterviews) Finish(_ context.Context, _ int64, id int64) (*model.Interview, error) {
	at := time.Unix(100, 0).UTC()
	return &model.Interview{ID: id, FinishedAt: &at}, nil
}

func (f *fakeInterviews) History(context.Context, int64) ([]*model.Summary, error) {
	return []*model.Summary{{ID: 2, JobTitle: "SRE", QuestionCount: 5}, {ID: 1, JobTitle: "DBA", QuestionCount: 8}}, nil
}

func (f *fakeInterviews) Detail(_ context.Context, _ int64, id int64) (*model.Interview, error) {
	return &model.Interview{
		ID:       id,
		JobTitle: "SRE",
		Questions: []*model.Question{
			{ID: 1, QuestionText: "Q1", Answers: []*model.Answer{{ID: 9, UserAnswer: "A", Score: 70}}},
			{ID: 2, QuestionText: "Q2"},
		},
	}, nil
}

func (f *fakeInterviews) Report(context.Context, int64, int64) (*service.Report, error) {
	return &service.Report{FileName: "Interview_SRE_1.pdf", Data: []byte("%PDF-1.3 test")}, nil
}

func newRouter(userID int64, h *InterviewController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if userID != 0 {
		r.Use(func(c *gin.Context) {
			middleware.SetUserID(c, userID)
			c.Next()
		})
	}
	g := r.Group("/api/interview")
	g.POST("/start", h.Start)
	g.POST("/start-with-resume", h.StartWithResume)
	g.POST("/:id/answer", h.Answer)
	g.POST("/:id/finish", h.Finish)
	g.GET("/history", h.History)
	g.GET("/:id", h.Detail)
	g.GET("/:id/download-pdf", h.DownloadPDF)
	return r
}

func do(r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestStart(t *testing.T) {
	fake := &fakeInterviews{}
	r := newRouter(42, NewInterviewController(fake))

	w, env := do(r, http.MethodPost, "/api/interview/start", `{"jobTitle":"SRE","roundType":"dsa"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "dsa", fake.started.RoundType)
	require.False(t, fake.withResume)

	var resp StartResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Equal(t, "Interview started successfully", resp.Message)
	require.Equal(t, int64(7), resp.ID)
	require.Equal(t, []QuestionItem{{ID: 1, QuestionText: "Q1"}, {ID: 2, QuestionText: "Q2"}}, resp.Questions)

	_, _ = do(r, http.MethodPost, "/api/interview/start-with-resume", `{"jobTitle":"SRE"}`)
	require.True(t, fake.withResume)
}

func TestStartBadJSON(t *testing.T) {
	r := newRouter(42, NewInterviewController(&fakeInterviews{}))
	w, env := do(r, http.MethodPost, "/api/interview/start", `{"jobTitle":`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, pkgerrors.InvalidParams, env.Code)
}

func TestRequiresUser(t *testing.T) {
	r := newRouter(0, NewInterviewController(&fakeInterviews{}))
	w, _ := do(r, http.MethodGet, "/api/interview/history", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnswer(t *testing.T) {
	fake := &fakeInterviews{}
	r := newRouter(42, NewInterviewController(fake))

	w, env := do(r, http.MethodPost, "/api/interview/5/answer", `{"answer":"channels"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp AnswerResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Equal(t, AnswerResponse{Message: "Answer submitted successfully", ID: 3, UserAnswer: "channels", AIFeedback: "Good.", Score: 81}, resp)

	w, env = do(r, http.MethodPost, "/api/interview/404/answer", `{"answer":"x"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, pkgerrors.QuestionNotFound, env.Code)

	w, _ = do(r, http.MethodPost, "/api/interview/abc/answer", `{"answer":"x"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	other := newRouter(7, NewInterviewController(fake))
	w, _ = do(other, http.MethodPost, "/api/interview/5/answer", `{"answer":"x"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestFinishAndHistory(t *testing.T) {
	r := newRouter(42, NewInterviewController(&fakeInterviews{}))

	w, env := do(r, http.MethodPost, "/api/interview/3/finish", "")
	require.Equal(t, http.StatusOK, w.Code)
	var fin FinishResponse
	require.NoError(t, json.Unmarshal(env.Data, &fin))
	require.Equal(t, int64(3), fin.ID)
	require.NotNil(t, fin.FinishedAt)

	w, env = do(r, http.MethodGet, "/api/interview/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hist HistoryResponse
	require.NoError(t, json.Unmarshal(env.Data, &hist))
	require.Equal(t, 2, hist.Count)
	require.Equal(t, "SRE", hist.Interviews[0].JobTitle)
	require.Equal(t, 8, hist.Interviews[1].QuestionCount)
}

func TestDetail(t *testing.T) {
	r := newRouter(42, NewInterviewController(&fakeInterviews{}))
	w, env := do(r, http.MethodGet, "/api/interview/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp DetailResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Questions, 2)
	require.Len(t, resp.Questions[0].Answers, 1)
	require.Empty(t, resp.Questions[1].Answers)
}

func TestDownloadPDF(t *testing.T) {
	r := newRouter(42, NewInterviewController(&fakeInterviews{}))
	w, _ := do(r, http.MethodGet, "/api/interview/1/download-pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.Equal(t, `attachment; filename="Interview_SRE_1.pdf"`, w.Header().Get("Content-Disposition"))
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}
