package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"mockinterview/internal/interview/model"
	pkgerrors "mockinterview/pkg/errors"
	"mockinterview/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	EmptyMessageReply = "I didn't hear anything. Please try again."
	UnavailableReply  = "Sorry, the AI service is currently not available. Please check your OpenAI API key configuration or try again later."

	fallbackScoreLow  = 70
	fallbackScoreHigh = 90
)

// Templates with a %d verb receive the answer's word count.
var fallbackTemplates = []string{
	"Great answer! You provided a detailed response with approximately %d words. Your explanation shows good understanding of the topic. Consider adding more specific examples to strengthen your answer further.",
	"Excellent response! I appreciate how you structured your answer. You covered the key points well. To improve, you could elaborate more on the practical applications of your experience.",
	"Good job! Your answer demonstrates solid knowledge. You explained the concepts clearly. Adding quantifiable achievements would make your response even stronger.",
	"Well done! You communicated your thoughts effectively with about %d words. Your response shows good depth of understanding. Consider incorporating more real-world examples to make your answer more compelling.",
	"Nice answer! You addressed the question comprehensively. Your explanation was clear and well-organized. To enhance it further, try adding specific metrics or outcomes from your experience.",
}

// Questions is the slice of the interview service voice answers go through.
type Questions interface {
	Question(ctx context.Context, userID, questionID int64) (*model.Question, error)
	SaveAnswer(ctx context.Context, questionID int64, answer, feedback string, score int) (*model.Answer, error)
}

// Assistant is the AI collaborator used for spoken feedback and chat.
type Assistant interface {
	Feedback(ctx context.Context, question, answer string) (string, error)
	Score(feedback string) float64
	RandomScore(lo, hi float64) float64
	Chat(ctx context.Context, message string) (string, error)
}

type ProcessInput struct {
	QuestionID   int64
	QuestionText string
	UserAnswer   string
}

type ProcessResult struct {
	AnswerID     int64
	FeedbackText string
	Score        int
}

type ChatResult struct {
	Reply           string
	OpenAIAvailable bool
}

// VoiceService backs the voice interview endpoints. Speech synthesis and
// recognition happen in the browser; this side only deals in text.
type VoiceService struct {
	questions Questions
	assistant Assistant
	pick      func(n int) int
}

func NewVoiceService(questions Questions, assistant Assistant) *VoiceService {
	return &VoiceService{questions: questions, assistant: assistant, pick: rand.IntN}
}

// Process grades a transcribed answer and stores it. A failing model falls
// back to an encouraging template with a score between 70 and 90.
func (s *VoiceService) Process(ctx context.Context, userID int64, in ProcessInput) (*ProcessResult, error) {
	answer := strings.TrimSpace(in.UserAnswer)
	if answer == "" {
		return nil, pkgerrors.New(pkgerrors.AnswerRequired).WithMessage("User answer is required")
	}
	if in.QuestionID <= 0 {
		return nil, pkgerrors.InvalidInput(pkgerrors.RequiredFieldEmpty, "questionId")
	}
	question, err := s.questions.Question(ctx, userID, in.QuestionID)
	if err != nil {
		return nil, err
	}

	prompt := strings.TrimSpace(in.QuestionText)
	if prompt == "" {
		prompt = question.QuestionText
	}

	var feedback string
	var score float64
	if fb, err := s.assistant.Feedback(ctx, prompt, answer); err != nil || strings.TrimSpace(fb) == "" {
		logger.Warn(ctx, "voice feedback unavailable, using template", zap.Int64("question_id", question.ID), zap.Error(err))
		feedback = s.fallbackFeedback(answer)
		score = s.assistant.RandomScore(fallbackScoreLow, fallbackScoreHigh)
	} else {
		feedback = fb
		score = s.assistant.Score(fb)
	}

	saved, err := s.questions.SaveAnswer(ctx, question.ID, answer, feedback, int(score))
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "voice answer processed", zap.Int64("answer_id", saved.ID), zap.Int("score", saved.Score))
	return &ProcessResult{AnswerID: saved.ID, FeedbackText: feedback, Score: saved.Score}, nil
}

// QuestionText returns the text the browser reads aloud.
func (s *VoiceService) QuestionText(ctx context.Context, userID, questionID int64) (*model.Question, error) {
	return s.questions.Question(ctx, userID, questionID)
}

// Chat always produces a reply; model failures become a fixed apology.
func (s *VoiceService) Chat(ctx context.Context, message string) ChatResult {
	message = strings.TrimSpace(message)
	if message == "" {
		return ChatResult{Reply: EmptyMessageReply}
	}
	reply, err := s.assistant.Chat(ctx, message)
	if err != nil || strings.TrimSpace(reply) == "" {
		logger.Warn(ctx, "voice chat unavailable", zap.Error(err))
		return ChatResult{Reply: UnavailableReply}
	}
	return ChatResult{Reply: reply, OpenAIAvailable: true}
}

func (s *VoiceService) fallbackFeedback(answer string) string {
	template := fallbackTemplates[s.pick(len(fallbackTemplates))]
	if strings.Contains(template, "%d") {
		return fmt.Sprintf(template, len(strings.Fields(answer)))
	}
	return template
}
