package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
)

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

const userColumns = `id, username, password_hash, current_level, total_stars, created_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CurrentLevel, &user.TotalStars, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *pgUserRepository) Create(ctx context.Context, tx *sql.Tx, user *model.User) error {
	query := `INSERT INTO users (id, username, password_hash, current_level, total_stars, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := pick(r.db, tx).ExecContext(ctx, query,
		user.ID, user.Username, user.PasswordHash, user.CurrentLevel, user.TotalStars, user.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("user %q already exists: %w", user.Username, common.ErrConflict)
		}
		return common.StorageError("pgUserRepository.Create", err)
	}
	return nil
}

func (r *pgUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
		}
		return nil, common.StorageError("pgUserRepository.FindByID", err)
	}
	return user, nil
}

func (r *pgUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, common.ErrNotFound)
		}
		return nil, common.StorageError("pgUserRepository.FindByUsername", err)
	}
	return user, nil
}

func (r *pgUserRepository) AddStars(ctx context.Context, tx *sql.Tx, id string, delta int) (*model.User, error) {
	if delta < 0 {
		return nil, fmt.Errorf("star delta %d: %w", delta, common.ErrInvalidInput)
	}
	query := `UPDATE users SET total_stars = total_stars + $2 WHERE id = $1 RETURNING ` + userColumns
	user, err := scanUser(pick(r.db, tx).QueryRowContext(ctx, query, id, delta))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, common.ErrNotFound)
		}
		return nil, common.StorageError("pgUserRepository.AddStars", err)
	}
	return user, nil
}
