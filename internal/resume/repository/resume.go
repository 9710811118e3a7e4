package repository

import (
	"context"
	"database/sql"
	"errors"

	"mockinterview/internal/common/db"
	"mockinterview/internal/resume/model"
)

var ErrResumeNotFound = errors.New("resume not found")

type ResumeRepository interface {
	Create(ctx context.Context, tx db.Transaction, resume *model.Resume) (int64, error)
	ListByUser(ctx context.Context, tx db.Transaction, userID int64) ([]*model.Resume, error)
	LatestByUser(ctx context.Context, tx db.Transaction, userID int64) (*model.Resume, error)
}

type MySQLResumeRepository struct {
	dbProvider db.Provider
}

func NewResumeRepository(provider db.Provider) ResumeRepository {
	return &MySQLResumeRepository{dbProvider: provider}
}

const resumeColumns = "id, user_id, file_name, object_key, size_bytes, resume_text, uploaded_at"

func (r *MySQLResumeRepository) Create(ctx context.Context, tx db.Transaction, resume *model.Resume) (int64, error) {
	if resume == nil {
		return 0, errors.New("resume is nil")
	}
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return 0, err
	}
	query := "INSERT INTO resumes (user_id, file_name, object_key, size_bytes, resume_text, uploaded_at) VALUES (?, ?, ?, ?, ?, ?)"
	result, err := querier.Exec(ctx, query,
		resume.UserID, resume.FileName, resume.ObjectKey, resume.SizeBytes, nullString(resume.ResumeText), resume.UploadedAt)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *MySQLResumeRepository) ListByUser(ctx context.Context, tx db.Transaction, userID int64) ([]*model.Resume, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	rows, err := querier.Query(ctx, "SELECT "+resumeColumns+" FROM resumes WHERE user_id = ? ORDER BY uploaded_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Resume
	for rows.Next() {
		resume, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, resume)
	}
	return out, rows.Err()
}

func (r *MySQLResumeRepository) LatestByUser(ctx context.Context, tx db.Transaction, userID int64) (*model.Resume, error) {
	querier, err := db.GetProviderQuerier(r.dbProvider, tx)
	if err != nil {
		return nil, err
	}
	row := querier.QueryRow(ctx, "SELECT "+resumeColumns+" FROM resumes WHERE user_id = ? ORDER BY uploaded_at DESC, id DESC LIMIT 1", userID)
	resume, err := scanResume(row)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrResumeNotFound
		}
		return nil, err
	}
	return resume, nil
}

func scanResume(row db.Row) (*model.Resume, error) {
	var (
		resume model.Resume
		text   sql.NullString
	)
	if err := row.Scan(
		&resume.ID,
		&resume.UserID,
		&resume.FileName,
		&resume.ObjectKey,
		&resume.SizeBytes,
		&text,
		&resume.UploadedAt,
	); err != nil {
		return nil, err
	}
	if text.Valid {
		resume.ResumeText = &text.String
	}
	return &resume, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
