package repository

import (
	"context"
	"errors"
	"time"

	"mockinterview/internal/common/db"
	"mockinterview/internal/resume/model"
)

const defaultHistoryLimit = 50

var ErrAnalysisNotFound = errors.New("analysis not found")

type AnalysisRepository interface {
	Create(ctx context.Context, tx db.Transaction, record *model.AnalysisRecord) (int64, error)
	Complete(ctx context.Context, tx db.Transaction, jobID, status string, payload []byte, analyzedAt time.Time) error
	ListByUser(ctx context.Context, tx db.Transaction, userID int64, limit int) ([]*model.AnalysisRecord, error)
}

type MySQLAnalysisRepository struct {
	dbProvider db.Provider
}

func NewAnalysisRepository(provider db.Provider) AnalysisRepository {
	return &MySQLAnalysisRepository{dbProvider: provider}
}

const analysisColumns = "id, user_id, job_id, status, file_name, file_size, payload, analyzed_at"

func (r *MySQLAnalysisRepository) Create(ctx context.Context, tx db.Transaction, record *model.AnalysisRecord) (int64, error) {
	if record == nil {
		return 0, errors.New("analysis record is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO resume_analyses (user_id, job_id, status, file_name, file_size, payload, analyzed_at) VALUES (?, ?, ?, ?, ?, ?, ?)"
	result, err := querier.Exec(ctx, query,
		record.UserID, record.JobID, record.Status, record.FileName, record.FileSize, nullBytes(record.Payload), record.AnalyzedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// Complete stores the result of a queued job. Jobs already finished are left untouched.
func (r *MySQLAnalysisRepository) Complete(ctx context.Context, tx db.Transaction, jobID, status string, payload []byte, analyzedAt time.Time) error {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return err
	}
	query := "UPDATE resume_analyses SET status = ?, payload = ?, analyzed_at = ? WHERE job_id = ? AND status = ?"
	result, err := querier.Exec(ctx, query, status, nullBytes(payload), analyzedAt, jobID, model.AnalysisQueued)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAnalysisNotFound
	}
	return nil
}

func (r *MySQLAnalysisRepository) ListByUser(ctx context.Context, tx db.Transaction, userID int64, limit int) ([]*model.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx,
		"SELECT "+analysisColumns+" FROM resume_analyses WHERE user_id = ? ORDER BY analyzed_at DESC, id DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.AnalysisRecord
	for rows.Next() {
		var rec model.AnalysisRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.JobID,
			&rec.Status,
			&rec.FileName,
			&rec.FileSize,
			&rec.Payload,
			&rec.AnalyzedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
