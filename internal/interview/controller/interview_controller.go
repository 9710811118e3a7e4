package controller

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/interview/model"
	"mockinterview/internal/interview/service"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Interviews is the slice of the interview service the HTTP layer needs.
type Interviews interface {
	Start(ctx context.Context, userID int64, in service.StartInput) (*model.Interview, error)
	StartWithResume(ctx context.Context, userID int64, in service.StartInput) (*model.Interview, error)
	SubmitAnswer(ctx context.Context, userID, questionID int64, answer string) (*model.Answer, error)
	Finish(ctx context.Context, userID, interviewID int64) (*model.Interview, error)
	History(ctx context.Context, userID int64) ([]*model.Summary, error)
	Detail(ctx context.Context, userID, interviewID int64) (*model.Interview, error)
	Report(ctx context.Context, userID, interviewID int64) (*service.Report, error)
}

// InterviewController handles interview endpoints.
type InterviewController struct {
	interviews Interviews
}

// NewInterviewController creates a new InterviewController.
func NewInterviewController(interviews Interviews) *InterviewController {
	return &InterviewController{interviews: interviews}
}

type StartRequest struct {
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	RoundType      string `json:"roundType"`
}

type AnswerRequest struct {
	Answer string `json:"answer"`
}

type QuestionItem struct {
	ID           int64  `json:"id"`
	QuestionText string `json:"questionText"`
}

type StartResponse struct {
	Message   string         `json:"message"`
	ID        int64          `json:"id"`
	JobTitle  string         `json:"jobTitle"`
	RoundType string         `json:"roundType,omitempty"`
	StartedAt time.Time      `json:"startedAt"`
	Questions []QuestionItem `json:"questions"`
}

type AnswerResponse struct {
	Message    string `json:"message"`
	ID         int64  `json:"id"`
	UserAnswer string `json:"userAnswer"`
	AIFeedback string `json:"aiFeedback"`
	Score      int    `json:"score"`
}

type FinishResponse struct {
	Message    string     `json:"message"`
	ID         int64      `json:"id"`
	FinishedAt *time.Time `json:"finishedAt"`
}

type HistoryItem struct {
	ID             int64      `json:"id"`
	JobTitle       string     `json:"jobTitle"`
	JobDescription string     `json:"jobDescription"`
	RoundType      string     `json:"roundType,omitempty"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	QuestionCount  int        `json:"questionCount"`
}

type HistoryResponse struct {
	Interviews []HistoryItem `json:"interviews"`
	Count      int           `json:"count"`
}

type AnswerItem struct {
	ID         int64     `json:"id"`
	UserAnswer string    `json:"userAnswer"`
	AIFeedback string    `json:"aiFeedback"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"createdAt"`
}

type DetailQuestion struct {
	ID           int64        `json:"id"`
	QuestionText string       `json:"questionText"`
	Answers      []AnswerItem `json:"answers"`
}

type DetailResponse struct {
	ID             int64            `json:"id"`
	JobTitle       string           `json:"jobTitle"`
	JobDescription string           `json:"jobDescription"`
	RoundType      string           `json:"roundType,omitempty"`
	StartedAt      time.Time        `json:"startedAt"`
	FinishedAt     *time.Time       `json:"finishedAt,omitempty"`
	Questions      []DetailQuestion `json:"questions"`
}

// Start begins an interview with generated questions.
func (h *InterviewController) Start(c *gin.Context) {
	h.start(c, h.interviews.Start)
}

// StartWithResume begins an interview tailored to the caller's latest resume.
func (h *InterviewController) StartWithResume(c *gin.Context) {
	h.start(c, h.interviews.StartWithResume)
}

func (h *InterviewController) start(c *gin.Context, fn func(context.Context, int64, service.StartInput) (*model.Interview, error)) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	iv, err := fn(c.Request.Context(), userID, service.StartInput{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		RoundType:      req.RoundType,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	questions := make([]QuestionItem, 0, len(iv.Questions))
	for _, q := range iv.Questions {
		questions = append(questions, QuestionItem{ID: q.ID, QuestionText: q.QuestionText})
	}
	response.Success(c, StartResponse{
		Message:   "Interview started successfully",
		ID:        iv.ID,
		JobTitle:  iv.JobTitle,
		RoundType: iv.RoundType,
		StartedAt: iv.StartedAt,
		Questions: questions,
	})
}

// Answer grades an answer to one question.
func (h *InterviewController) Answer(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	questionID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}
	answer, err := h.interviews.SubmitAnswer(c.Request.Context(), userID, questionID, req.Answer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, AnswerResponse{
		Message:    "Answer submitted successfully",
		ID:         answer.ID,
		UserAnswer: answer.UserAnswer,
		AIFeedback: answer.AIFeedback,
		Score:      answer.Score,
	})
}

// Finish marks an interview as finished.
func (h *InterviewController) Finish(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	iv, err := h.interviews.Finish(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, FinishResponse{Message: "Interview finished successfully", ID: iv.ID, FinishedAt: iv.FinishedAt})
}

// History lists the caller's interviews.
func (h *InterviewController) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	list, err := h.interviews.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]HistoryItem, 0, len(list))
	for _, s := range list {
		items = append(items, HistoryItem{
			ID:             s.ID,
			JobTitle:       s.JobTitle,
			JobDescription: s.JobDescription,
			RoundType:      s.RoundType,
			StartedAt:      s.StartedAt,
			FinishedAt:     s.FinishedAt,
			QuestionCount:  s.QuestionCount,
		})
	}
	response.Success(c, HistoryResponse{Interviews: items, Count: len(items)})
}

// Detail returns an interview with questions and answers.
func (h *InterviewController) Detail(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	iv, err := h.interviews.Detail(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, toDetailResponse(iv))
}

// DownloadPDF streams the interview report as an attachment.
func (h *InterviewController) DownloadPDF(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	rep, err := h.interviews.Report(c.Request.Context(), userID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rep.FileName))
	c.Data(http.StatusOK, "application/pdf", rep.Data)
}

func toDetailResponse(iv *model.Interview) DetailResponse {
	questions := make([]DetailQuestion, 0, len(iv.Questions))
	for _, q := range iv.Questions {
		answers := make([]AnswerItem, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, AnswerItem{
				ID:         a.ID,
				UserAnswer: a.UserAnswer,
				AIFeedback: a.AIFeedback,
				Score:      a.Score,
				CreatedAt:  a.CreatedAt,
			})
		}
		questions = append(questions, DetailQuestion{ID: q.ID, QuestionText: q.QuestionText, Answers: answers})
	}
	return DetailResponse{
		ID:             iv.ID,
		JobTitle:       iv.JobTitle,
		JobDescription: iv.JobDescription,
		RoundType:      iv.RoundType,
		StartedAt:      iv.StartedAt,
		FinishedAt:     iv.FinishedAt,
		Questions:      questions,
	}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, pkgerrors.New(pkgerrors.InvalidParams).WithMessage("invalid "+name))
		return 0, false
	}
	return id, true
}
