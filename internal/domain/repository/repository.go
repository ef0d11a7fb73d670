package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

// Write methods take an optional *sql.Tx; a nil tx runs against the pool.

type UserRepository interface {
	Create(ctx context.Context, tx *sql.Tx, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// AddStars adds delta (>= 0) to the user's total and returns the updated row.
	AddStars(ctx context.Context, tx *sql.Tx, id string, delta int) (*model.User, error)
}

type ProgressRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.UserProgress, error)
	FindByUserAndType(ctx context.Context, userID string, t model.ExerciseType) (*model.UserProgress, error)
	// SeedForUser creates an empty row per type, skipping rows that already exist.
	SeedForUser(ctx context.Context, tx *sql.Tx, userID string, types []model.ExerciseType, total int) error
	// IncrementAndClamp applies one correct answer atomically, creating the row
	// with the given total when it is missing. It returns the updated row and the
	// star count before the update.
	IncrementAndClamp(ctx context.Context, tx *sql.Tx, userID string, t model.ExerciseType, total int, at time.Time) (*model.UserProgress, int, error)
}

type SessionRepository interface {
	Create(ctx context.Context, tx *sql.Tx, s *model.Session) error
	// ListRecentByUser returns up to limit sessions, newest first.
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.Session, error)
	ListByUserAndType(ctx context.Context, userID string, t model.ExerciseType, limit int) ([]model.Session, error)
	// ListByUserSince returns sessions completed at or after since, newest first.
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]model.Session, error)
}

type ExerciseRepository interface {
	// Upsert stores a catalog exercise keyed by slug and fills in its id.
	Upsert(ctx context.Context, ex *model.Exercise) error
	FindByID(ctx context.Context, id int) (*model.Exercise, error)
	// ListByType filters by difficulty when it is non-nil.
	ListByType(ctx context.Context, t model.ExerciseType, difficulty *int) ([]model.Exercise, error)
}

// Transactor runs fn inside a transaction, committing when fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Store bundles the repositories of one storage backend.
type Store struct {
	Users     UserRepository
	Progress  ProgressRepository
	Sessions  SessionRepository
	Exercises ExerciseRepository
	Tx        Transactor
}

func NewPgStore(db *sql.DB) Store {
	return Store{
		Users:     NewPgUserRepository(db),
		Progress:  NewPgProgressRepository(db),
		Sessions:  NewPgSessionRepository(db),
		Exercises: NewPgExerciseRepository(db),
		Tx:        NewSQLTransactor(db),
	}
}

type sqlTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return common.StorageError("sqlTransactor.Begin", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.StorageError("sqlTransactor.Commit", err)
	}
	return nil
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return db
}

func checkLimit(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("limit must be positive: %w", common.ErrInvalidInput)
	}
	return nil
}
