package ai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"mockinterview/pkg/utils/logger"
	"mockinterview/pkg/utils/text"

	"go.uber.org/zap"
)

const (
	questionCount     = 5
	questionMaxTokens = 500
	feedbackMaxTokens = 200
	chatMaxTokens     = 300
	resumePromptLimit = 2000
	defaultFeedback   = "Your answer demonstrates understanding of the topic. " +
		"Consider providing more specific examples to strengthen your response. " +
		"Overall, this is a solid answer that covers the main points."
)

var numberingPattern = regexp.MustCompile(`^\d+\.\s*`)

// QuestionRequest describes the interview the questions are generated for.
type QuestionRequest struct {
	JobTitle       string
	JobDescription string
	RoundType      string
	ResumeText     string
}

// Service builds interview prompts on top of a Completer.
type Service struct {
	completer Completer
	rnd       func() float64
}

func NewService(completer Completer) *Service {
	return &Service{completer: completer, rnd: rand.Float64}
}

// Enabled reports whether completions go to a real model.
func (s *Service) Enabled() bool {
	return s.completer != nil && s.completer.Enabled()
}

// GenerateQuestions asks the model for interview questions. Without a key it
// returns the placeholder list and no error; a failed request returns the error
// so callers can pick their own fallback.
func (s *Service) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]string, error) {
	if !s.Enabled() {
		return PlaceholderQuestions(req.JobTitle), nil
	}
	reply, err := s.completer.CompleteChat(ctx, questionPrompt(req), questionMaxTokens)
	if err != nil {
		return nil, err
	}
	questions := parseQuestions(reply)
	if len(questions) == 0 {
		return nil, ErrEmptyReply
	}
	if len(questions) < questionCount {
		logger.Debug(ctx, "model returned fewer questions than requested", zap.Int("count", len(questions)))
	}
	return questions, nil
}

// Feedback returns feedback on a candidate answer. Without a key the fixed
// placeholder feedback is returned.
func (s *Service) Feedback(ctx context.Context, question, answer string) (string, error) {
	if !s.Enabled() {
		return defaultFeedback, nil
	}
	prompt := fmt.Sprintf("You are an expert technical interviewer. Question: %s\nCandidate's Answer: %s\n\n"+
		"Provide constructive feedback on this answer in 2-3 sentences. Include what was good and what could be improved.",
		question, answer)
	return s.completer.CompleteChat(ctx, prompt, feedbackMaxTokens)
}

// PlaceholderFeedback is the feedback used when no model is available.
func PlaceholderFeedback() string {
	return defaultFeedback
}

// Score derives a score from the tone of the feedback text.
func (s *Service) Score(feedback string) float64 {
	lower := strings.ToLower(feedback)
	switch {
	case strings.Contains(lower, "excellent") || strings.Contains(lower, "great"):
		return s.between(90, 100)
	case strings.Contains(lower, "good"):
		return s.between(75, 90)
	case strings.Contains(lower, "needs improvement"):
		return s.between(50, 75)
	default:
		return s.between(70, 90)
	}
}

// RandomScore returns a score in [lo, hi).
func (s *Service) RandomScore(lo, hi float64) float64 {
	return s.between(lo, hi)
}

// Chat forwards a free-form message with an interviewer persona.
func (s *Service) Chat(ctx context.Context, message string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	prompt := "You are a friendly technical interviewer conducting a voice interview. " +
		"Reply briefly and conversationally to the candidate.\n\nCandidate: " + message
	return s.completer.CompleteChat(ctx, prompt, chatMaxTokens)
}

// Complete exposes the raw completer for callers with their own prompts.
func (s *Service) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	return s.completer.CompleteChat(ctx, prompt, maxTokens)
}

func (s *Service) between(lo, hi float64) float64 {
	return lo + s.rnd()*(hi-lo)
}

// SetRand replaces the random source used by the score heuristics.
func (s *Service) SetRand(rnd func() float64) {
	if rnd != nil {
		s.rnd = rnd
	}
}

// PlaceholderQuestions is the generic question list used when no model is configured.
func PlaceholderQuestions(jobTitle string) []string {
	return []string{
		fmt.Sprintf("Tell me about your experience relevant to the %s role.", jobTitle),
		"Describe a challenging technical problem you solved and how you approached it.",
		"How do you keep your skills up to date with new technologies?",
		"Explain a project you are proud of and the impact it had.",
		"How do you handle disagreements with teammates about technical decisions?",
	}
}

func questionPrompt(req QuestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d technical interview questions for a %s position. Job Description: %s\n\n",
		questionCount, req.JobTitle, req.JobDescription)
	if req.RoundType != "" {
		fmt.Fprintf(&b, "Interview round: %s\n\n", req.RoundType)
	}
	if resume := strings.TrimSpace(req.ResumeText); resume != "" {
		resume = text.Truncate(resume, resumePromptLimit, "...")
		b.WriteString("Candidate's Resume:\n")
		b.WriteString(resume)
		b.WriteString("\n\nMake the questions relevant to the candidate's experience and the job.\n\n")
	}
	fmt.Fprintf(&b, "Return only the questions, one per line, numbered 1-%d.", questionCount)
	return b.String()
}

func parseQuestions(reply string) []string {
	var out []string
	for _, line := range strings.Split(reply, "\n") {
		q := strings.TrimSpace(numberingPattern.ReplaceAllString(strings.TrimSpace(line), ""))
		if q == "" {
			continue
		}
		out = append(out, q)
		if len(out) == questionCount {
			break
		}
	}
	return out
}
