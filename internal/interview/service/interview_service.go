package service

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"mockinterview/internal/ai"
	"mockinterview/internal/common/db"
	"mockinterview/internal/common/storage"
	"mockinterview/internal/interview/model"
	"mockinterview/internal/interview/report"
	"mockinterview/internal/interview/repository"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	defaultReportPrefix = "reports"
	maxJobTitleLength   = 200
)

// Interviewer produces questions and grades answers.
type Interviewer interface {
	GenerateQuestions(ctx context.Context, req ai.QuestionRequest) ([]string, error)
	Feedback(ctx context.Context, question, answer string) (string, error)
	Score(feedback string) float64
}

// ResumeTexts looks up the text of a user's latest resume.
type ResumeTexts interface {
	LatestText(ctx context.Context, userID int64) (string, error)
}

// CandidateNames resolves the display name printed on reports.
type CandidateNames interface {
	CandidateName(ctx context.Context, userID int64) (string, error)
}

// StartInput describes a new interview.
type StartInput struct {
	JobTitle       string
	JobDescription string
	RoundType      string
}

// Config holds InterviewService options.
type Config struct {
	ReportPrefix   string
	ArchiveReports bool
}

// Report is a rendered interview report.
type Report struct {
	FileName string
	Data     []byte
}

// InterviewService runs interviews: questions, answers and reports.
type InterviewService struct {
	dbProvider  db.Provider
	interviews  repository.InterviewRepository
	questions   repository.QuestionRepository
	answers     repository.AnswerRepository
	interviewer Interviewer
	resumes     ResumeTexts
	candidates  CandidateNames
	reports     storage.ObjectStorage
	config      Config
	now         func() time.Time
}

func NewInterviewService(
	provider db.Provider,
	interviews repository.InterviewRepository,
	questions repository.QuestionRepository,
	answers repository.AnswerRepository,
	interviewer Interviewer,
	resumes ResumeTexts,
	candidates CandidateNames,
	reports storage.ObjectStorage,
	cfg Config,
) *InterviewService {
	if cfg.ReportPrefix == "" {
		cfg.ReportPrefix = defaultReportPrefix
	}
	return &InterviewService{
		dbProvider:  provider,
		interviews:  interviews,
		questions:   questions,
		answers:     answers,
		interviewer: interviewer,
		resumes:     resumes,
		candidates:  candidates,
		reports:     reports,
		config:      cfg,
		now:         time.Now,
	}
}

// Start creates an interview with generated questions.
func (s *InterviewService) Start(ctx context.Context, userID int64, in StartInput) (*model.Interview, error) {
	return s.start(ctx, userID, in, "")
}

// StartWithResume is Start with the latest resume fed into question generation.
// A missing resume is not an error; generic questions are generated instead.
func (s *InterviewService) StartWithResume(ctx context.Context, userID int64, in StartInput) (*model.Interview, error) {
	var resumeText string
	if s.resumes != nil {
		text, err := s.resumes.LatestText(ctx, userID)
		if err != nil {
			logger.Info(ctx, "no usable resume, generating generic questions", zap.Error(err))
		}
		resumeText = text
	}
	return s.start(ctx, userID, in, resumeText)
}

func (s *InterviewService) start(ctx context.Context, userID int64, in StartInput, resumeText string) (*model.Interview, error) {
	title := strings.TrimSpace(in.JobTitle)
	if title == "" {
		return nil, pkgerrors.InvalidInput(pkgerrors.RequiredFieldEmpty, "jobTitle")
	}
	if len(title) > maxJobTitleLength {
		return nil, pkgerrors.ValidationError("jobTitle", "too long")
	}
	roundType, ok := model.NormalizeRoundType(in.RoundType)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.InvalidRoundType).WithDetail("roundType", in.RoundType)
	}

	texts := s.generateQuestions(ctx, ai.QuestionRequest{
		JobTitle:       title,
		JobDescription: in.JobDescription,
		RoundType:      roundType,
		ResumeText:     resumeText,
	})

	interview := &model.Interview{
		UserID:         userID,
		JobTitle:       title,
		JobDescription: in.JobDescription,
		RoundType:      roundType,
		StartedAt:      s.now().UTC(),
	}
	err := s.withTx(ctx, func(tx db.Transaction) error {
		id, err := s.interviews.Create(ctx, tx, interview)
		if err != nil {
			return err
		}
		interview.ID = id
		questions, err := s.questions.CreateBatch(ctx, tx, id, texts)
		if err != nil {
			return err
		}
		interview.Questions = questions
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	logger.Info(ctx, "interview started",
		zap.Int64("interview_id", interview.ID),
		zap.String("round_type", roundType),
		zap.Int("questions", len(interview.Questions)),
		zap.Bool("with_resume", resumeText != ""),
	)
	return interview, nil
}

func (s *InterviewService) generateQuestions(ctx context.Context, req ai.QuestionRequest) []string {
	if s.interviewer == nil {
		return fallbackQuestions(req.JobTitle)
	}
	questions, err := s.interviewer.GenerateQuestions(ctx, req)
	if err != nil || len(questions) == 0 {
		logger.Warn(ctx, "question generation failed, using templates", zap.Error(err))
		return fallbackQuestions(req.JobTitle)
	}
	return questions
}

// SubmitAnswer grades and stores an answer to a question owned by the user.
func (s *InterviewService) SubmitAnswer(ctx context.Context, userID, questionID int64, answer string) (*model.Answer, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, pkgerrors.New(pkgerrors.AnswerRequired)
	}
	question, err := s.Question(ctx, userID, questionID)
	if err != nil {
		return nil, err
	}

	feedback := ai.PlaceholderFeedback()
	if s.interviewer != nil {
		if fb, err := s.interviewer.Feedback(ctx, question.QuestionText, answer); err != nil {
			logger.Warn(ctx, "answer feedback failed, using placeholder", zap.Int64("question_id", questionID), zap.Error(err))
		} else if strings.TrimSpace(fb) != "" {
			feedback = fb
		}
	}
	score := 0
	if s.interviewer != nil {
		score = int(s.interviewer.Score(feedback))
	}
	return s.SaveAnswer(ctx, question.ID, answer, feedback, score)
}

// SaveAnswer stores an already graded answer.
func (s *InterviewService) SaveAnswer(ctx context.Context, questionID int64, answer, feedback string, score int) (*model.Answer, error) {
	a := &model.Answer{
		QuestionID: questionID,
		UserAnswer: answer,
		AIFeedback: feedback,
		Score:      score,
		CreatedAt:  s.now().UTC(),
	}
	id, err := s.answers.Create(ctx, nil, a)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	a.ID = id
	return a, nil
}

// Question returns a question after checking that its interview belongs to the user.
func (s *InterviewService) Question(ctx context.Context, userID, questionID int64) (*model.Question, error) {
	question, err := s.questions.GetByID(ctx, nil, questionID)
	if err != nil {
		if stderrors.Is(err, repository.ErrQuestionNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.QuestionNotFound, "Question not found with ID: %d", questionID)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	if _, err := s.owned(ctx, userID, question.InterviewID); err != nil {
		return nil, err
	}
	return question, nil
}

// Finish stamps the finish time. Finishing twice keeps the first time.
func (s *InterviewService) Finish(ctx context.Context, userID, interviewID int64) (*model.Interview, error) {
	interview, err := s.owned(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}
	if interview.FinishedAt != nil {
		return interview, nil
	}
	at := s.now().UTC()
	if err := s.interviews.Finish(ctx, nil, interviewID, at); err != nil {
		if stderrors.Is(err, repository.ErrInterviewNotFound) {
			return s.owned(ctx, userID, interviewID)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	interview.FinishedAt = &at
	return interview, nil
}

// History lists the user's interviews, newest first.
func (s *InterviewService) History(ctx context.Context, userID int64) ([]*model.Summary, error) {
	list, err := s.interviews.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return list, nil
}

// Detail loads an interview with its questions and answers.
func (s *InterviewService) Detail(ctx context.Context, userID, interviewID int64) (*model.Interview, error) {
	interview, err := s.owned(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByInterview(ctx, nil, interviewID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	answers, err := s.answers.ListByInterview(ctx, nil, interviewID)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	byQuestion := make(map[int64]*model.Question, len(questions))
	for _, q := range questions {
		byQuestion[q.ID] = q
	}
	for _, a := range answers {
		if q, ok := byQuestion[a.QuestionID]; ok {
			q.Answers = append(q.Answers, a)
		}
	}
	interview.Questions = questions
	return interview, nil
}

// Report renders the PDF report and archives a copy when configured.
func (s *InterviewService) Report(ctx context.Context, userID, interviewID int64) (*Report, error) {
	interview, err := s.Detail(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}
	candidate := ""
	if s.candidates != nil {
		if name, err := s.candidates.CandidateName(ctx, userID); err != nil {
			logger.Warn(ctx, "resolve candidate name failed", zap.Error(err))
		} else {
			candidate = name
		}
	}
	data, err := report.Render(report.Data{Interview: interview, CandidateName: candidate, GeneratedAt: s.now()})
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ReportRenderFailed)
	}
	if s.config.ArchiveReports && s.reports != nil {
		key := fmt.Sprintf("%s/%d/%d.pdf", s.config.ReportPrefix, userID, interviewID)
		if err := s.reports.PutObject(ctx, key, bytes.NewReader(data), int64(len(data)), "application/pdf"); err != nil {
			logger.Warn(ctx, "archive interview report failed", zap.String("object_key", key), zap.Error(err))
		}
	}
	return &Report{FileName: report.FileName(interview), Data: data}, nil
}

func (s *InterviewService) owned(ctx context.Context, userID, interviewID int64) (*model.Interview, error) {
	interview, err := s.interviews.GetByID(ctx, nil, interviewID)
	if err != nil {
		if stderrors.Is(err, repository.ErrInterviewNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.InterviewNotFound, "Interview not found with ID: %d", interviewID)
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	if interview.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.InterviewAccessDenied)
	}
	return interview, nil
}

func (s *InterviewService) withTx(ctx context.Context, fn func(tx db.Transaction) error) error {
	database, err := db.CurrentDatabase(s.dbProvider)
	if err != nil {
		return err
	}
	return database.Transaction(ctx, fn)
}
