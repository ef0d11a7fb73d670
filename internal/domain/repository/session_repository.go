package repository

import (
	"context"
	"database/sql"
	"time"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type pgSessionRepository struct {
	db *sql.DB
}

func NewPgSessionRepository(db *sql.DB) SessionRepository {
	return &pgSessionRepository{db: db}
}

const sessionColumns = `id, user_id, exercise_id, exercise_type, is_correct, time_spent, completed_at`

func (r *pgSessionRepository) Create(ctx context.Context, tx *sql.Tx, s *model.Session) error {
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := pick(r.db, tx).ExecContext(ctx, query,
		s.ID, s.UserID, s.ExerciseID, s.ExerciseType, s.IsCorrect, s.TimeSpent, s.CompletedAt)
	if err != nil {
		return common.StorageError("pgSessionRepository.Create", err)
	}
	return nil
}

func (r *pgSessionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.Session, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions
	          WHERE user_id = $1 ORDER BY completed_at DESC, id LIMIT $2`
	return r.list(ctx, "pgSessionRepository.ListRecentByUser", query, userID, limit)
}

func (r *pgSessionRepository) ListByUserAndType(ctx context.Context, userID string, t model.ExerciseType, limit int) ([]model.Session, error) {
	if err := checkLimit(limit); err != nil {
		return nil, err
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions
	          WHERE user_id = $1 AND exercise_type = $2 ORDER BY completed_at DESC, id LIMIT $3`
	return r.list(ctx, "pgSessionRepository.ListByUserAndType", query, userID, t, limit)
}

func (r *pgSessionRepository) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
	          WHERE user_id = $1 AND completed_at >= $2 ORDER BY completed_at DESC, id`
	return r.list(ctx, "pgSessionRepository.ListByUserSince", query, userID, since)
}

func (r *pgSessionRepository) list(ctx context.Context, op, query string, args ...any) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, common.StorageError(op, err)
	}
	defer rows.Close()

	out := []model.Session{}
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.UserID, &s.ExerciseID, &s.ExerciseType, &s.IsCorrect, &s.TimeSpent, &s.CompletedAt); err != nil {
			return nil, common.StorageError(op+" scan", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError(op+" rows", err)
	}
	return out, nil
}
