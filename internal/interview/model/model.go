package model

import (
	"strings"
	"time"
)

// Round types accepted when starting an interview.
const (
	RoundBehavioral   = "BEHAVIORAL"
	RoundCoding       = "CODING"
	RoundDSA          = "DSA"
	RoundSystemDesign = "SYSTEM_DESIGN"
)

// NormalizeRoundType upper-cases a round type and reports whether it is known.
// An empty round type is valid and stays empty.
func NormalizeRoundType(roundType string) (string, bool) {
	rt := strings.ToUpper(strings.TrimSpace(roundType))
	switch rt {
	case "", RoundBehavioral, RoundCoding, RoundDSA, RoundSystemDesign:
		return rt, true
	default:
		return rt, false
	}
}

type Interview struct {
	ID             int64
	UserID         int64
	JobTitle       string
	JobDescription string
	RoundType      string
	StartedAt      time.Time
	FinishedAt     *time.Time
	Questions      []*Question
}

// Summary is an interview row with its question count, used in history listings.
type Summary struct {
	ID             int64
	JobTitle       string
	JobDescription string
	RoundType      string
	StartedAt      time.Time
	FinishedAt     *time.Time
	QuestionCount  int
}

type Question struct {
	ID           int64
	InterviewID  int64
	Position     int
	QuestionText string
	Answers      []*Answer
}

// FirstAnswer returns the earliest answer or nil.
func (q *Question) FirstAnswer() *Answer {
	if q == nil || len(q.Answers) == 0 {
		return nil
	}
	return q.Answers[0]
}

type Answer struct {
	ID         int64
	QuestionID int64
	UserAnswer string
	AIFeedback string
	Score      int
	CreatedAt  time.Time
}
