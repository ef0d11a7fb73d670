package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type pgExerciseRepository struct {
	db *sql.DB
}

func NewPgExerciseRepository(db *sql.DB) ExerciseRepository {
	return &pgExerciseRepository{db: db}
}

func (r *pgExerciseRepository) Upsert(ctx context.Context, ex *model.Exercise) error {
	if ex.Slug == "" {
		return fmt.Errorf("catalog exercise without slug: %w", common.ErrValidation)
	}
	problem, err := json.Marshal(ex.Problem)
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.Upsert marshal problem: %w", err)
	}
	options, err := json.Marshal(ex.Options)
	if err != nil {
		return fmt.Errorf("pgExerciseRepository.Upsert marshal options: %w", err)
	}

	query := `INSERT INTO exercises (slug, type, difficulty, problem, options)
	          VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (slug) DO UPDATE
	          SET type = EXCLUDED.type, difficulty = EXCLUDED.difficulty,
	              problem = EXCLUDED.problem, options = EXCLUDED.options
	          RETURNING id`
	err = r.db.QueryRowContext(ctx, query, ex.Slug, ex.Type, ex.Difficulty, problem, options).Scan(&ex.ID)
	if err != nil {
		return common.StorageError("pgExerciseRepository.Upsert", err)
	}
	return nil
}

func (r *pgExerciseRepository) FindByID(ctx context.Context, id int) (*model.Exercise, error) {
	query := `SELECT id, slug, type, difficulty, problem, options FROM exercises WHERE id = $1`
	ex, err := scanExercise(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("exercise %d: %w", id, common.ErrNotFound)
		}
		return nil, common.StorageError("pgExerciseRepository.FindByID", err)
	}
	return ex, nil
}

func (r *pgExerciseRepository) ListByType(ctx context.Context, t model.ExerciseType, difficulty *int) ([]model.Exercise, error) {
	query := `SELECT id, slug, type, difficulty, problem, options FROM exercises
	          WHERE type = $1 AND ($2::int IS NULL OR difficulty = $2) ORDER BY difficulty, id`
	var d sql.NullInt64
	if difficulty != nil {
		d = sql.NullInt64{Int64: int64(*difficulty), Valid: true}
	}
	rows, err := r.db.QueryContext(ctx, query, t, d)
	if err != nil {
		return nil, common.StorageError("pgExerciseRepository.ListByType", err)
	}
	defer rows.Close()

	out := []model.Exercise{}
	for rows.Next() {
		ex, err := scanExercise(rows)
		if err != nil {
			return nil, common.StorageError("pgExerciseRepository.ListByType scan", err)
		}
		out = append(out, *ex)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("pgExerciseRepository.ListByType rows", err)
	}
	return out, nil
}

func scanExercise(row interface{ Scan(...any) error }) (*model.Exercise, error) {
	var (
		ex               model.Exercise
		problem, options []byte
	)
	if err := row.Scan(&ex.ID, &ex.Slug, &ex.Type, &ex.Difficulty, &problem, &options); err != nil {
		return nil, err
	}
	p, err := model.DecodeProblem(ex.Type, problem)
	if err != nil {
		return nil, err
	}
	ex.Problem = p
	if err := json.Unmarshal(options, &ex.Options); err != nil {
		return nil, fmt.Errorf("decode options of exercise %d: %w", ex.ID, err)
	}
	return &ex, nil
}
