package repository

import (
	"context"
	"strings"
	"time"

	"mockinterview/internal/common/db"
	"mockinterview/internal/interview/model"
)

type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx db.Transaction, interviewID int64, texts []string) ([]*model.Question, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*model.Question, error)
	ListByInterview(ctx context.Context, tx db.Transaction, interviewID int64) ([]*model.Question, error)
}

type AnswerRepository interface {
	Create(ctx context.Context, tx db.Transaction, answer *model.Answer) (int64, error)
	ListByInterview(ctx context.Context, tx db.Transaction, interviewID int64) ([]*model.Answer, error)
}

type MySQLQuestionRepository struct {
	dbProvider db.Provider
}

func NewQuestionRepository(provider db.Provider) QuestionRepository {
	return &MySQLQuestionRepository{dbProvider: provider}
}

// CreateBatch inserts the questions in order. Each insert reports its own id, the
// batch is expected to run inside the caller's transaction.
func (r *MySQLQuestionRepository) CreateBatch(ctx context.Context, tx db.Transaction, interviewID int64, texts []string) ([]*model.Question, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Question, 0, len(texts))
	for i, text := range texts {
		result, err := querier.Exec(ctx,
			"INSERT INTO questions (interview_id, position, question_text) VALUES (?, ?, ?)", interviewID, i+1, text)
		if err != nil {
			return nil, err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return nil, err
		}
		out = append(out, &model.Question{ID: id, InterviewID: interviewID, Position: i + 1, QuestionText: text})
	}
	return out, nil
}

func (r *MySQLQuestionRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*model.Question, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	var q model.Question
	err = querier.QueryRow(ctx, "SELECT id, interview_id, position, question_text FROM questions WHERE id = ?", id).
		Scan(&q.ID, &q.InterviewID, &q.Position, &q.QuestionText)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *MySQLQuestionRepository) ListByInterview(ctx context.Context, tx db.Transaction, interviewID int64) ([]*model.Question, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx,
		"SELECT id, interview_id, position, question_text FROM questions WHERE interview_id = ? ORDER BY position, id", interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.Position, &q.QuestionText); err != nil {
			return nil, err
		}
		out = append(out, &q)
	}
	return out, rows.Err()
}

type MySQLAnswerRepository struct {
	dbProvider db.Provider
}

func NewAnswerRepository(provider db.Provider) AnswerRepository {
	return &MySQLAnswerRepository{dbProvider: provider}
}

func (r *MySQLAnswerRepository) Create(ctx context.Context, tx db.Transaction, answer *model.Answer) (int64, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}
	result, err := querier.Exec(ctx,
		"INSERT INTO answers (question_id, user_answer, ai_feedback, score, created_at) VALUES (?, ?, ?, ?, ?)",
		answer.QuestionID, answer.UserAnswer, answer.AIFeedback, answer.Score, answer.CreatedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MySQLAnswerRepository) ListByInterview(ctx context.Context, tx db.Transaction, interviewID int64) ([]*model.Answer, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := strings.Join([]string{
		"SELECT a.id, a.question_id, a.user_answer, a.ai_feedback, a.score, a.created_at",
		"FROM answers a JOIN questions q ON q.id = a.question_id",
		"WHERE q.interview_id = ?",
		"ORDER BY a.created_at, a.id",
	}, " ")
	rows, err := querier.Query(ctx, query, interviewID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Answer
	for rows.Next() {
		var a model.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.UserAnswer, &a.AIFeedback, &a.Score, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}
