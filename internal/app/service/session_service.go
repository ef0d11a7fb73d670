package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
	"kids_math/internal/domain/repository"
)

// SessionService is the append-only recorder of answer attempts.
type SessionService struct {
	sessionRepo  repository.SessionRepository
	defaultLimit int
	maxLimit     int
}

func NewSessionService(sessionRepo repository.SessionRepository, defaultLimit, maxLimit int) *SessionService {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &SessionService{sessionRepo: sessionRepo, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

type Attempt struct {
	ExerciseID   int
	ExerciseType model.ExerciseType
	IsCorrect    bool
	TimeSpent    int
	CompletedAt  time.Time
}

// Record appends one session for userID inside tx.
func (s *SessionService) Record(ctx context.Context, tx *sql.Tx, userID string, a Attempt) (*model.Session, error) {
	if !a.ExerciseType.Valid() {
		return nil, fmt.Errorf("unknown exercise type %q: %w", a.ExerciseType, common.ErrInvalidInput)
	}
	if a.TimeSpent < 0 {
		return nil, fmt.Errorf("timeSpent must not be negative: %w", common.ErrInvalidInput)
	}
	session := &model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		ExerciseID:   a.ExerciseID,
		ExerciseType: a.ExerciseType,
		IsCorrect:    a.IsCorrect,
		TimeSpent:    a.TimeSpent,
		CompletedAt:  a.CompletedAt.UTC(),
	}
	if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}
	return session, nil
}

// ListRecent returns the newest sessions, optionally filtered by type. A zero
// limit means the default; larger limits are capped.
func (s *SessionService) ListRecent(ctx context.Context, userID string, t *model.ExerciseType, limit int) ([]model.Session, error) {
	switch {
	case limit < 0:
		return nil, fmt.Errorf("limit must not be negative: %w", common.ErrInvalidInput)
	case limit == 0:
		limit = s.defaultLimit
	case limit > s.maxLimit:
		limit = s.maxLimit
	}
	if t != nil {
		if !t.Valid() {
			return nil, fmt.Errorf("unknown exercise type %q: %w", *t, common.ErrInvalidInput)
		}
		return s.sessionRepo.ListByUserAndType(ctx, userID, *t, limit)
	}
	return s.sessionRepo.ListRecentByUser(ctx, userID, limit)
}

// ListAll returns every session of the user, newest first.
func (s *SessionService) ListAll(ctx context.Context, userID string) ([]model.Session, error) {
	return s.sessionRepo.ListByUserSince(ctx, userID, time.Time{})
}
