package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"mockinterview/internal/common/db"
	"mockinterview/internal/interview/model"
)

var (
	ErrInterviewNotFound = errors.New("interview not found")
	ErrQuestionNotFound  = errors.New("question not found")
)

type InterviewRepository interface {
	Create(ctx context.Context, tx db.Transaction, interview *model.Interview) (int64, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (*model.Interview, error)
	ListByUser(ctx context.Context, tx db.Transaction, userID int64) ([]*model.Summary, error)
	Finish(ctx context.Context, tx db.Transaction, id int64, finishedAt time.Time) error
}

type MySQLInterviewRepository struct {
	dbProvider db.Provider
}

func NewInterviewRepository(provider db.Provider) InterviewRepository {
	return &MySQLInterviewRepository{dbProvider: provider}
}

const interviewColumns = "id, user_id, job_title, job_description, round_type, started_at, finished_at"

func (r *MySQLInterviewRepository) Create(ctx context.Context, tx db.Transaction, interview *model.Interview) (int64, error) {
	if interview == nil {
		return 0, errors.New("interview is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO interviews (user_id, job_title, job_description, round_type, started_at) VALUES (?, ?, ?, ?, ?)"
	result, err := querier.Exec(ctx, query,
		interview.UserID, interview.JobTitle, interview.JobDescription, interview.RoundType, interview.StartedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MySQLInterviewRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (*model.Interview, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	var (
		interview model.Interview
		finished  sql.NullTime
	)
	err = querier.QueryRow(ctx, "SELECT "+interviewColumns+" FROM interviews WHERE id = ?", id).Scan(
		&interview.ID,
		&interview.UserID,
		&interview.JobTitle,
		&interview.JobDescription,
		&interview.RoundType,
		&interview.StartedAt,
		&finished,
	)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrInterviewNotFound
		}
		return nil, err
	}
	if finished.Valid {
		interview.FinishedAt = &finished.Time
	}
	return &interview, nil
}

func (r *MySQLInterviewRepository) ListByUser(ctx context.Context, tx db.Transaction, userID int64) ([]*model.Summary, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	query := `SELECT i.id, i.job_title, i.job_description, i.round_type, i.started_at, i.finished_at, COUNT(q.id)
		FROM interviews i LEFT JOIN questions q ON q.interview_id = i.id
		WHERE i.user_id = ?
		GROUP BY i.id, i.job_title, i.job_description, i.round_type, i.started_at, i.finished_at
		ORDER BY i.started_at DESC, i.id DESC`
	rows, err := querier.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Summary
	for rows.Next() {
		var (
			s        model.Summary
			finished sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.JobTitle, &s.JobDescription, &s.RoundType, &s.StartedAt, &finished, &s.QuestionCount); err != nil {
			return nil, err
		}
		if finished.Valid {
			s.FinishedAt = &finished.Time
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *MySQLInterviewRepository) Finish(ctx context.Context, tx db.Transaction, id int64, finishedAt time.Time) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	result, err := querier.Exec(ctx, "UPDATE interviews SET finished_at = ? WHERE id = ? AND finished_at IS NULL", finishedAt, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrInterviewNotFound
	}
	return nil
}
