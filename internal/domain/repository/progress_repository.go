package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type pgProgressRepository struct {
	db *sql.DB
}

func NewPgProgressRepository(db *sql.DB) ProgressRepository {
	return &pgProgressRepository{db: db}
}

const progressColumns = `id, user_id, exercise_type, completed, total, stars, last_completed_at`

func scanProgress(row interface{ Scan(...any) error }, extra ...any) (*model.UserProgress, error) {
	p := &model.UserProgress{}
	var last sql.NullTime
	dest := append([]any{&p.ID, &p.UserID, &p.ExerciseType, &p.Completed, &p.Total, &p.Stars, &last}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if last.Valid {
		t := last.Time
		p.LastCompletedAt = &t
	}
	return p, nil
}

func (r *pgProgressRepository) ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 ORDER BY exercise_type`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, common.StorageError("pgProgressRepository.ListByUser", err)
	}
	defer rows.Close()

	out := []model.UserProgress{}
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, common.StorageError("pgProgressRepository.ListByUser scan", err)
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("pgProgressRepository.ListByUser rows", err)
	}
	return sortProgress(out), nil
}

func (r *pgProgressRepository) FindByUserAndType(ctx context.Context, userID string, t model.ExerciseType) (*model.UserProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM user_progress WHERE user_id = $1 AND exercise_type = $2`
	p, err := scanProgress(r.db.QueryRowContext(ctx, query, userID, t))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("progress %s for user %s: %w", t, userID, common.ErrNotFound)
		}
		return nil, common.StorageError("pgProgressRepository.FindByUserAndType", err)
	}
	return p, nil
}

func (r *pgProgressRepository) SeedForUser(ctx context.Context, tx *sql.Tx, userID string, types []model.ExerciseType, total int) error {
	q := pick(r.db, tx)
	for _, t := range types {
		if err := insertEmptyProgress(ctx, q, userID, t, total); err != nil {
			return common.StorageError("pgProgressRepository.SeedForUser", err)
		}
	}
	return nil
}

func insertEmptyProgress(ctx context.Context, q queryer, userID string, t model.ExerciseType, total int) error {
	query := `INSERT INTO user_progress (id, user_id, exercise_type, completed, total, stars)
	          VALUES ($1, $2, $3, 0, $4, 0)
	          ON CONFLICT (user_id, exercise_type) DO NOTHING`
	_, err := q.ExecContext(ctx, query, uuid.NewString(), userID, t, total)
	return err
}

// The CTE locks the row and exposes the pre-update stars to RETURNING; the
// LEAST clamps keep the row inside its limits under concurrent submissions.
const incrementProgressQuery = `
WITH prev AS (
    SELECT id, stars FROM user_progress
    WHERE user_id = $1 AND exercise_type = $2
    FOR UPDATE
)
UPDATE user_progress AS up
SET completed = LEAST(up.completed + 1, up.total),
    stars = LEAST(up.stars + 1, $4),
    last_completed_at = $3
FROM prev
WHERE up.id = prev.id
RETURNING up.id, up.user_id, up.exercise_type, up.completed, up.total, up.stars, up.last_completed_at, prev.stars`

func (r *pgProgressRepository) IncrementAndClamp(ctx context.Context, tx *sql.Tx, userID string, t model.ExerciseType, total int, at time.Time) (*model.UserProgress, int, error) {
	q := pick(r.db, tx)
	if err := insertEmptyProgress(ctx, q, userID, t, total); err != nil {
		return nil, 0, common.StorageError("pgProgressRepository.IncrementAndClamp insert", err)
	}

	var prevStars int
	p, err := scanProgress(q.QueryRowContext(ctx, incrementProgressQuery, userID, t, at, model.MaxStars), &prevStars)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("progress %s for user %s: %w", t, userID, common.ErrNotFound)
		}
		return nil, 0, common.StorageError("pgProgressRepository.IncrementAndClamp", err)
	}
	return p, prevStars, nil
}
