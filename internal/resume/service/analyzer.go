package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mockinterview/internal/common/mq"
	"mockinterview/internal/resume/model"
	"mockinterview/internal/resume/parser"
	"mockinterview/internal/resume/repository"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"
	"mockinterview/pkg/utils/text"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	analysisMaxTokens    = 1500
	defaultAnalysisTopic = "resume.analysis"
	summaryLimit         = 500
)

var (
	fencePattern = regexp.MustCompile("```(?:json)?\\n?")
	phonePattern = regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`)
)

// Completer is the LLM surface the analyzer needs.
type Completer interface {
	Enabled() bool
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// AnalyzerConfig selects synchronous or queued analysis.
type AnalyzerConfig struct {
	Async        bool
	Topic        string
	HistoryLimit int
}

// AnalyzeInput is one resume submitted for analysis.
type AnalyzeInput struct {
	FileName       string
	Data           []byte
	JobDescription string
}

// AnalyzerService scores resumes against an optional job description.
type AnalyzerService struct {
	completer Completer
	repo      repository.AnalysisRepository
	producer  mq.Producer
	config    AnalyzerConfig
	now       func() time.Time
}

func NewAnalyzerService(completer Completer, repo repository.AnalysisRepository, producer mq.Producer, cfg AnalyzerConfig) *AnalyzerService {
	if cfg.Topic == "" {
		cfg.Topic = defaultAnalysisTopic
	}
	return &AnalyzerService{
		completer: completer,
		repo:      repo,
		producer:  producer,
		config:    cfg,
		now:       time.Now,
	}
}

// Analyze extracts the resume text and analyzes it. In async mode the analysis is
// queued and the returned value only carries the job id and queued status.
func (s *AnalyzerService) Analyze(ctx context.Context, userID int64, in AnalyzeInput) (*model.Analysis, error) {
	if len(in.Data) == 0 {
		return nil, pkgerrors.New(pkgerrors.ResumeRequired).WithMessage("No file provided or file is empty")
	}
	resumeText, err := parser.ExtractText(in.FileName, in.Data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ResumeTextEmpty).WithMessage(err.Error())
	}
	if strings.TrimSpace(resumeText) == "" {
		return nil, pkgerrors.New(pkgerrors.ResumeTextEmpty)
	}

	job := model.AnalysisJob{
		JobID:          uuid.NewString(),
		UserID:         userID,
		FileName:       in.FileName,
		FileSize:       int64(len(in.Data)),
		ResumeText:     resumeText,
		JobDescription: in.JobDescription,
		RequestedAt:    s.now().UTC(),
	}
	if s.config.Async && s.producer != nil {
		return s.enqueue(ctx, job)
	}

	analysis := s.evaluate(ctx, job)
	payload, err := json.Marshal(analysis)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	if _, err := s.repo.Create(ctx, nil, &model.AnalysisRecord{
		UserID:     userID,
		JobID:      job.JobID,
		Status:     model.AnalysisDone,
		FileName:   job.FileName,
		FileSize:   job.FileSize,
		Payload:    payload,
		AnalyzedAt: analysis.AnalyzedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	return analysis, nil
}

// History lists past analyses newest first, queued jobs included.
func (s *AnalyzerService) History(ctx context.Context, userID int64) ([]*model.Analysis, error) {
	records, err := s.repo.ListByUser(ctx, nil, userID, s.config.HistoryLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}
	out := make([]*model.Analysis, 0, len(records))
	for _, rec := range records {
		analysis := &model.Analysis{}
		if len(rec.Payload) > 0 {
			if err := json.Unmarshal(rec.Payload, analysis); err != nil {
				logger.Warn(ctx, "decode stored analysis failed", zap.String("job_id", rec.JobID), zap.Error(err))
				continue
			}
		}
		analysis.JobID = rec.JobID
		analysis.Status = rec.Status
		analysis.FileName = rec.FileName
		analysis.FileSize = rec.FileSize
		analysis.AnalyzedAt = rec.AnalyzedAt
		out = append(out, analysis)
	}
	return out, nil
}

// Subscribe registers the job handler on consumer. The caller starts the consumer.
func (s *AnalyzerService) Subscribe(ctx context.Context, consumer mq.Consumer, group string) error {
	if consumer == nil {
		return stderrors.New("message queue is nil")
	}
	return consumer.Subscribe(ctx, s.config.Topic, s.HandleJob, &mq.SubscribeOptions{
		ConsumerGroup:   group,
		DeadLetterTopic: s.config.Topic + ".dead",
	})
}

// HandleJob completes one queued analysis.
func (s *AnalyzerService) HandleJob(ctx context.Context, message *mq.Message) error {
	var job model.AnalysisJob
	if err := json.Unmarshal(message.Body, &job); err != nil {
		logger.Warn(ctx, "parse analysis job failed", zap.Error(err))
		return nil
	}
	if job.JobID == "" || job.UserID <= 0 {
		logger.Warn(ctx, "analysis job missing ids", zap.String("message_id", message.ID))
		return nil
	}

	analysis := s.evaluate(ctx, job)
	payload, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis failed: %w", err)
	}
	err = s.repo.Complete(ctx, nil, job.JobID, model.AnalysisDone, payload, analysis.AnalyzedAt)
	if stderrors.Is(err, repository.ErrAnalysisNotFound) {
		logger.Info(ctx, "analysis job already completed", zap.String("job_id", job.JobID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("store analysis failed: %w", err)
	}
	logger.Info(ctx, "analysis job completed", zap.String("job_id", job.JobID), zap.Int64("user_id", job.UserID))
	return nil
}

func (s *AnalyzerService) enqueue(ctx context.Context, job model.AnalysisJob) (*model.Analysis, error) {
	if _, err := s.repo.Create(ctx, nil, &model.AnalysisRecord{
		UserID:     job.UserID,
		JobID:      job.JobID,
		Status:     model.AnalysisQueued,
		FileName:   job.FileName,
		FileSize:   job.FileSize,
		AnalyzedAt: job.RequestedAt,
	}); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.DatabaseError)
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.InternalServerError)
	}
	message := mq.NewMessage("resume-analysis-"+job.JobID, body)
	message.SetHeader("user_id", fmt.Sprintf("%d", job.UserID))
	if err := s.producer.Publish(ctx, s.config.Topic, message); err != nil {
		logger.Error(ctx, "publish analysis job failed", zap.String("job_id", job.JobID), zap.Error(err))
		if cerr := s.repo.Complete(ctx, nil, job.JobID, model.AnalysisFailed, nil, s.now().UTC()); cerr != nil {
			logger.Warn(ctx, "mark analysis job failed", zap.String("job_id", job.JobID), zap.Error(cerr))
		}
		return nil, pkgerrors.Wrap(err, pkgerrors.AnalysisEnqueueError)
	}
	return &model.Analysis{
		JobID:      job.JobID,
		Status:     model.AnalysisQueued,
		FileName:   job.FileName,
		FileSize:   job.FileSize,
		AnalyzedAt: job.RequestedAt,
	}, nil
}

func (s *AnalyzerService) evaluate(ctx context.Context, job model.AnalysisJob) *model.Analysis {
	var analysis *model.Analysis
	if s.completer == nil || !s.completer.Enabled() {
		analysis = placeholderAnalysis(job.ResumeText)
	} else if reply, err := s.completer.Complete(ctx, analysisPrompt(job.ResumeText, job.JobDescription), analysisMaxTokens); err != nil {
		logger.Warn(ctx, "resume analysis request failed, using placeholder", zap.Error(err))
		analysis = placeholderAnalysis(job.ResumeText)
	} else {
		analysis = parseAnalysisReply(ctx, reply)
	}
	analysis.JobID = job.JobID
	analysis.Status = model.AnalysisDone
	analysis.FileName = job.FileName
	analysis.FileSize = job.FileSize
	analysis.AnalyzedAt = s.now().UTC()
	return analysis
}

func analysisPrompt(resumeText, jobDescription string) string {
	var b strings.Builder
	b.WriteString("Analyze this resume and provide detailed feedback:\n\n")
	b.WriteString("RESUME:\n")
	b.WriteString(resumeText)
	b.WriteString("\n\n")
	if jd := strings.TrimSpace(jobDescription); jd != "" {
		b.WriteString("JOB DESCRIPTION:\n")
		b.WriteString(jd)
		b.WriteString("\n\nProvide analysis considering the job requirements.\n\n")
	}
	b.WriteString("Please provide:\n" +
		"1. Overall Score (0-100)\n" +
		"2. Strengths (list 3-5 key strengths)\n" +
		"3. Areas for Improvement (list 3-5 areas)\n" +
		"4. Skills Match (if job description provided, rate 0-100)\n" +
		"5. Recommendations (3-5 specific suggestions)\n" +
		"6. ATS Compatibility Score (0-100)\n" +
		"7. Missing Keywords (list important keywords not found)\n\n" +
		"Format your response as JSON with keys: overallScore, strengths, improvements, skillsMatch, " +
		"recommendations, atsScore, missingKeywords, summary")
	return b.String()
}

type analysisReply struct {
	OverallScore    *float64 `json:"overallScore"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	SkillsMatch     *float64 `json:"skillsMatch"`
	Recommendations []string `json:"recommendations"`
	ATSScore        *float64 `json:"atsScore"`
	MissingKeywords []string `json:"missingKeywords"`
	Summary         *string  `json:"summary"`
}

// parseAnalysisReply decodes the model's JSON reply. Missing fields take defaults;
// a reply that is not JSON falls back to fixed scores with the text as summary.
func parseAnalysisReply(ctx context.Context, reply string) *model.Analysis {
	content := strings.TrimSpace(fencePattern.ReplaceAllString(reply, ""))
	var parsed analysisReply
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		logger.Warn(ctx, "analysis reply is not json, using text fallback", zap.Error(err))
		return textualAnalysis(content)
	}
	summary := "Analysis complete"
	if parsed.Summary != nil && *parsed.Summary != "" {
		summary = *parsed.Summary
	}
	return &model.Analysis{
		OverallScore:    scoreOr(parsed.OverallScore, 70),
		Strengths:       listOr(parsed.Strengths),
		Improvements:    listOr(parsed.Improvements),
		SkillsMatch:     scoreOr(parsed.SkillsMatch, 70),
		Recommendations: listOr(parsed.Recommendations),
		ATSScore:        scoreOr(parsed.ATSScore, 70),
		MissingKeywords: listOr(parsed.MissingKeywords),
		Summary:         summary,
	}
}

func textualAnalysis(content string) *model.Analysis {
	summary := text.Truncate(content, summaryLimit, "...")
	return &model.Analysis{
		OverallScore:    75,
		Strengths:       []string{"Clear formatting", "Relevant experience", "Strong technical skills"},
		Improvements:    []string{"Add quantifiable achievements", "Improve keyword optimization"},
		SkillsMatch:     70,
		Recommendations: []string{"Add metrics to achievements", "Include more keywords"},
		ATSScore:        65,
		MissingKeywords: []string{"Leadership", "Agile", "Cloud"},
		Summary:         summary,
	}
}

func placeholderAnalysis(resumeText string) *model.Analysis {
	score := 60
	if len(strings.Fields(resumeText)) > 300 {
		score += 10
	}
	if strings.Contains(resumeText, "@") {
		score += 5
	}
	if phonePattern.MatchString(resumeText) {
		score += 5
	}
	if score > 85 {
		score = 85
	}
	return &model.Analysis{
		OverallScore: score,
		Strengths: []string{
			"Clear structure and organization",
			"Professional presentation",
			"Relevant work experience included",
			"Technical skills highlighted",
		},
		Improvements: []string{
			"Add quantifiable achievements with metrics",
			"Include more industry-specific keywords",
			"Expand on project details and impact",
			"Consider adding a professional summary",
		},
		SkillsMatch: 70,
		Recommendations: []string{
			"Use action verbs to start each bullet point",
			"Include measurable results (e.g., 'increased by 25%')",
			"Tailor content to match job description keywords",
			"Keep formatting consistent throughout",
			"Limit resume to 1-2 pages",
		},
		ATSScore: 65,
		MissingKeywords: []string{
			"Leadership",
			"Agile methodology",
			"Cloud platforms",
			"Team collaboration",
		},
		Summary: "Your resume shows solid professional experience and technical skills. " +
			"To improve, focus on adding quantifiable achievements and optimizing for ATS systems. " +
			"Consider including more specific metrics and industry keywords to increase your chances of passing automated screening.",
	}
}

func scoreOr(v *float64, def int) int {
	if v == nil {
		return def
	}
	return int(*v)
}

func listOr(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"Analysis in progress"}
	}
	return out
}
