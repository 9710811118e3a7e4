package report

import (
	"bytes"
	"testing"
	"time"

	"mockinterview/internal/interview/model"
)

func sampleInterview() *model.Interview {
	finished := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	return &model.Interview{
		ID:         12,
		JobTitle:   "Senior Go/Backend Engineer",
		StartedAt:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		FinishedAt: &finished,
		RoundType:  model.RoundCoding,
		Questions: []*model.Question{
			{ID: 1, QuestionText: "What is a goroutine?", Answers: []*model.Answer{{UserAnswer: "A lightweight thread.", AIFeedback: "Good.", Score: 90}}},
			{ID: 2, QuestionText: "Explain channels – with café examples.", Answers: []*model.Answer{{UserAnswer: "Pipes.", AIFeedback: "Thin.", Score: 61}}},
			{ID: 3, QuestionText: "Describe the scheduler."},
		},
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(sampleInterview()); got != "Interview_Senior_Go_Backend_Engineer_12.pdf" {
		t.Fatalf("unexpected file name %q", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleInterview())
	if s.Answered != 2 || s.Total != 3 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.Average != 75.5 {
		t.Fatalf("unexpected average %v", s.Average)
	}
	if empty := Summarize(&model.Interview{}); empty.Average != 0 || empty.Answered != 0 {
		t.Fatalf("unexpected empty summary: %+v", empty)
	}
}

func TestScoreColor(t *testing.T) {
	cases := map[int]rgb{100: scoreGreen, 80: scoreGreen, 79: scoreOrange, 60: scoreOrange, 59: scoreRed, 0: scoreRed}
	for score, want := range cases {
		if got := scoreColor(score); got != want {
			t.Fatalf("score %d: got %v want %v", score, got, want)
		}
	}
}

func TestRender(t *testing.T) {
	out, err := Render(Data{Interview: sampleInterview(), CandidateName: "Jane Doe"})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", out[:8])
	}
	if _, err := Render(Data{}); err == nil {
		t.Fatalf("expected error without interview")
	}
}
