package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mockinterview/internal/common/storage"
	"mockinterview/internal/resume/model"
	"mockinterview/internal/resume/parser"
	"mockinterview/internal/resume/repository"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxFileSize = 5 << 20
	defaultKeyPrefix   = "resumes"
)

var defaultAllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// ResumeServiceConfig controls upload validation and object layout.
type ResumeServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	KeyPrefix         string
}

// UploadInput is one uploaded resume file.
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ResumeService stores resume files and their extracted text.
type ResumeService struct {
	repo    repository.ResumeRepository
	storage storage.ObjectStorage
	config  ResumeServiceConfig
	now     func() time.Time
}

func NewResumeService(repo repository.ResumeRepository, obj storage.ObjectStorage, cfg ResumeServiceConfig) *ResumeService {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = defaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = defaultAllowedExtensions
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaultKeyPrefix
	}
	return &ResumeService{repo: repo, storage: obj, config: cfg, now: time.Now}
}

// Upload validates and stores a resume. Text extraction failures do not fail the
// upload; the resume is saved without text.
func (s *ResumeService) Upload(ctx context.Context, userID int64, in UploadInput) (*model.Resume, error) {
	fileName := filepath.Base(strings.TrimSpace(in.FileName))
	if err := s.validate(fileName, int64(len(in.Data))); err != nil {
		return nil, err
	}

	key := objectKey(s.config.KeyPrefix, userID, fileName)
	if err := s.storage.PutObject(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentTypeOf(in.ContentType)); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.StorageError)
	}

	resume := &model.Resume{
		UserID:     userID,
		FileName:   fileName,
		ObjectKey:  key,
		SizeBytes:  int64(len(in.Data)),
		UploadedAt: s.now().UTC(),
	}
	if text, err := parser.ExtractText(fileName, in.Data); err != nil {
		logger.Warn(ctx, "extract resume text failed", zap.String("file_name", fileName), zap.Error(err))
	} else if text != "" {
		resume.ResumeText = &text
	}

	id, err := s.repo.Create(ctx, nil, resume)
	if err != nil {
		if rmErr := s.storage.RemoveObject(ctx, key); rmErr != nil {
			logger.Warn(ctx, "remove orphaned resume object failed", zap.String("object_key", key), zap.Error(rmErr))
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	resume.ID = id
	logger.Info(ctx, "resume uploaded",
		zap.Int64("resume_id", id),
		zap.Int64("size_bytes", resume.SizeBytes),
		zap.Bool("has_text", resume.HasText()),
	)
	return resume, nil
}

func (s *ResumeService) List(ctx context.Context, userID int64) ([]*model.Resume, error) {
	resumes, err := s.repo.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return resumes, nil
}

// Latest returns the most recently uploaded resume of the user.
func (s *ResumeService) Latest(ctx context.Context, userID int64) (*model.Resume, error) {
	resume, err := s.repo.LatestByUser(ctx, nil, userID)
	if err != nil {
		if stderrors.Is(err, repository.ErrResumeNotFound) {
			return nil, pkgerrors.New(pkgerrors.ResumeNotFound).WithMessage("No resume found. Please upload a resume first.")
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return resume, nil
}

// LatestText returns the extracted text of the latest resume.
func (s *ResumeService) LatestText(ctx context.Context, userID int64) (string, error) {
	resume, err := s.Latest(ctx, userID)
	if err != nil {
		return "", err
	}
	if !resume.HasText() {
		return "", pkgerrors.New(pkgerrors.ResumeTextEmpty).
			WithMessage("Could not extract text from your resume. Please upload a PDF or DOCX file.")
	}
	return *resume.ResumeText, nil
}

func (s *ResumeService) validate(fileName string, size int64) error {
	if fileName == "" || fileName == "." || size == 0 {
		return pkgerrors.New(pkgerrors.ResumeRequired).WithMessage("No file provided or file is empty")
	}
	if size > s.config.MaxFileSize {
		return pkgerrors.Newf(pkgerrors.ResumeTooLarge, "Resume file exceeds %d bytes", s.config.MaxFileSize).
			WithDetail("max_bytes", s.config.MaxFileSize)
	}
	ext := parser.Extension(fileName)
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.ResumeTypeRejected).WithDetail("extension", ext)
}

func objectKey(prefix string, userID int64, fileName string) string {
	return fmt.Sprintf("%s/%d/%s_%s", prefix, userID, uuid.NewString(), fileName)
}

func contentTypeOf(ct string) string {
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
