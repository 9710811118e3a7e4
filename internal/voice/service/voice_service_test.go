package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mockinterview/internal/interview/model"
	pkgerrors "mockinterview/pkg/errors"
)

type fakeQuestions struct {
	saved    *model.Answer
	saveErr  error
	ownerErr error
}

func (f *fakeQuestions) Question(_ context.Context, _ int64, questionID int64) (*model.Question, error) {
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	return &model.Question{ID: questionID, InterviewID: 1, QuestionText: "Describe a hard bug."}, nil
}

func (f *fakeQuestions) SaveAnswer(_ context.Context, questionID int64, answer, feedback string, score int) (*model.Answer, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.saved = &model.Answer{ID: 31, QuestionID: questionID, UserAnswer: answer, AIFeedback: feedback, Score: score}
	return f.saved, nil
}

type fakeAssistant struct {
	feedback    string
	feedbackErr error
	reply       string
	chatErr     error
	prompt      string
}

func (f *fakeAssistant) Feedback(_ context.Context, question, _ string) (string, error) {
	f.prompt = question
	return f.feedback, f.feedbackErr
}

func (f *fakeAssistant) Score(string) float64 { return 91.4 }

func (f *fakeAssistant) RandomScore(lo, hi float64) float64 { return (lo + hi) / 2 }

func (f *fakeAssistant) Chat(context.Context, string) (string, error) { return f.reply, f.chatErr }

func TestProcessUsesModelFeedback(t *testing.T) {
	questions := &fakeQuestions{}
	assistant := &fakeAssistant{feedback: "Great structure."}
	svc := NewVoiceService(questions, assistant)

	res, err := svc.Process(context.Background(), 1, ProcessInput{QuestionID: 4, UserAnswer: " I bisected it. "})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.AnswerID != 31 || res.Score != 91 || res.FeedbackText != "Great structure." {
		t.Fatalf("unexpected result: %+v", res)
	}
	if questions.saved.UserAnswer != "I bisected it." {
		t.Fatalf("answer not trimmed: %q", questions.saved.UserAnswer)
	}
	if assistant.prompt != "Describe a hard bug." {
		t.Fatalf("expected stored question text, got %q", assistant.prompt)
	}

	_, _ = svc.Process(context.Background(), 1, ProcessInput{QuestionID: 4, QuestionText: "Spoken variant", UserAnswer: "x"})
	if assistant.prompt != "Spoken variant" {
		t.Fatalf("expected provided question text, got %q", assistant.prompt)
	}
}

func TestProcessFallbackTemplate(t *testing.T) {
	questions := &fakeQuestions{}
	svc := NewVoiceService(questions, &fakeAssistant{feedbackErr: errors.New("offline")})
	svc.pick = func(int) int { return 0 }

	res, err := svc.Process(context.Background(), 1, ProcessInput{QuestionID: 4, UserAnswer: "one two three four"})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if !strings.Contains(res.FeedbackText, "approximately 4 words") {
		t.Fatalf("expected word count in feedback: %q", res.FeedbackText)
	}
	if res.Score != 80 {
		t.Fatalf("expected mid-band fallback score, got %d", res.Score)
	}

	svc.pick = func(int) int { return 2 }
	res, err = svc.Process(context.Background(), 1, ProcessInput{QuestionID: 4, UserAnswer: "short"})
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if res.FeedbackText != fallbackTemplates[2] {
		t.Fatalf("unexpected template: %q", res.FeedbackText)
	}
}

func TestProcessValidation(t *testing.T) {
	svc := NewVoiceService(&fakeQuestions{}, &fakeAssistant{})

	_, err := svc.Process(context.Background(), 1, ProcessInput{QuestionID: 4, UserAnswer: "  "})
	if !pkgerrors.Is(err, pkgerrors.AnswerRequired) {
		t.Fatalf("expected AnswerRequired, got %v", err)
	}
	_, err = svc.Process(context.Background(), 1, ProcessInput{UserAnswer: "hi"})
	if !pkgerrors.Is(err, pkgerrors.RequiredFieldEmpty) {
		t.Fatalf("expected RequiredFieldEmpty, got %v", err)
	}

	denied := NewVoiceService(&fakeQuestions{ownerErr: pkgerrors.New(pkgerrors.InterviewAccessDenied)}, &fakeAssistant{})
	_, err = denied.Process(context.Background(), 1, ProcessInput{QuestionID: 4, UserAnswer: "hi"})
	if !pkgerrors.Is(err, pkgerrors.InterviewAccessDenied) {
		t.Fatalf("expected InterviewAccessDenied, got %v", err)
	}
}

func TestChat(t *testing.T) {
	svc := NewVoiceService(&fakeQuestions{}, &fakeAssistant{reply: "Tell me more."})
	if got := svc.Chat(context.Background(), "hello"); got != (ChatResult{Reply: "Tell me more.", OpenAIAvailable: true}) {
		t.Fatalf("unexpected reply: %+v", got)
	}
	if got := svc.Chat(context.Background(), "   "); got.Reply != EmptyMessageReply || got.OpenAIAvailable {
		t.Fatalf("unexpected empty reply: %+v", got)
	}

	offline := NewVoiceService(&fakeQuestions{}, &fakeAssistant{chatErr: errors.New("no key")})
	if got := offline.Chat(context.Background(), "hello"); got.Reply != UnavailableReply || got.OpenAIAvailable {
		t.Fatalf("unexpected offline reply: %+v", got)
	}
}
