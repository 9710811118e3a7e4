package controller

import (
	"context"
	"io"
	"mime/multipart"
	"time"

	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/resume/model"
	"mockinterview/internal/resume/service"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// readLimit caps how much of an upload is buffered; the service rejects anything larger than its own limit.
const readLimit = 32 << 20

// ResumeStore is the slice of the resume service the HTTP layer needs.
type ResumeStore interface {
	Upload(ctx context.Context, userID int64, in service.UploadInput) (*model.Resume, error)
	List(ctx context.Context, userID int64) ([]*model.Resume, error)
}

// Analyzer is the slice of the analyzer service the HTTP layer needs.
type Analyzer interface {
	Analyze(ctx context.Context, userID int64, in service.AnalyzeInput) (*model.Analysis, error)
	History(ctx context.Context, userID int64) ([]*model.Analysis, error)
}

// ResumeController handles resume upload endpoints.
type ResumeController struct {
	resumes ResumeStore
}

func NewResumeController(resumes ResumeStore) *ResumeController {
	return &ResumeController{resumes: resumes}
}

type UploadResponse struct {
	Message    string    `json:"message"`
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	HasText    bool      `json:"hasText"`
}

type ResumeItem struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	SizeBytes  int64     `json:"sizeBytes"`
	UploadedAt time.Time `json:"uploadedAt"`
	HasText    bool      `json:"hasText"`
}

type ResumeListResponse struct {
	Resumes []ResumeItem `json:"resumes"`
	Count   int          `json:"count"`
}

// Upload stores the multipart "file" field.
func (h *ResumeController) Upload(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	name, contentType, data, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	resume, err := h.resumes.Upload(c.Request.Context(), userID, service.UploadInput{
		FileName:    name,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, UploadResponse{
		Message:    "Resume uploaded successfully",
		ID:         resume.ID,
		FileName:   resume.FileName,
		UploadedAt: resume.UploadedAt,
		HasText:    resume.HasText(),
	})
}

// List returns the caller's resumes, newest first.
func (h *ResumeController) List(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	resumes, err := h.resumes.List(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]ResumeItem, 0, len(resumes))
	for _, r := range resumes {
		items = append(items, ResumeItem{
			ID:         r.ID,
			FileName:   r.FileName,
			SizeBytes:  r.SizeBytes,
			UploadedAt: r.UploadedAt,
			HasText:    r.HasText(),
		})
	}
	response.Success(c, ResumeListResponse{Resumes: items, Count: len(items)})
}

// AnalyzerController handles resume analysis endpoints.
type AnalyzerController struct {
	analyzer Analyzer
}

func NewAnalyzerController(analyzer Analyzer) *AnalyzerController {
	return &AnalyzerController{analyzer: analyzer}
}

type QueuedResponse struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
}

type HistoryResponse struct {
	Analyses []*model.Analysis `json:"analyses"`
	Count    int               `json:"count"`
}

// Analyze scores the multipart "file" against the optional "jobDescription" field.
func (h *AnalyzerController) Analyze(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	name, _, data, err := readUpload(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	analysis, err := h.analyzer.Analyze(c.Request.Context(), userID, service.AnalyzeInput{
		FileName:       name,
		Data:           data,
		JobDescription: c.PostForm("jobDescription"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if analysis.Status == model.AnalysisQueued {
		response.SuccessWithMessage(c, "Analysis queued", QueuedResponse{JobID: analysis.JobID, Status: analysis.Status})
		return
	}
	response.Success(c, analysis)
}

// History lists the caller's past analyses.
func (h *AnalyzerController) History(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Unauthorized(c, "")
		return
	}
	analyses, err := h.analyzer.History(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, HistoryResponse{Analyses: analyses, Count: len(analyses)})
}

func readUpload(c *gin.Context) (string, string, []byte, error) {
	header, err := c.FormFile("file")
	if err != nil {
		return "", "", nil, pkgerrors.New(pkgerrors.ResumeRequired).WithMessage("No file provided or file is empty")
	}
	data, err := readFile(header)
	if err != nil {
		return "", "", nil, pkgerrors.Wrap(err, pkgerrors.InvalidParams).WithMessage("Failed to read uploaded file")
	}
	return header.Filename, header.Header.Get("Content-Type"), data, nil
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, readLimit))
}
