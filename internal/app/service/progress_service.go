package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
	"kids_math/internal/domain/repository"
)

// ProgressService is the progress tracker: it owns per-type progress rows and
// the user's star total.
type ProgressService struct {
	userRepo      repository.UserRepository
	progressRepo  repository.ProgressRepository
	progressTotal int
}

func NewProgressService(userRepo repository.UserRepository, progressRepo repository.ProgressRepository, progressTotal int) *ProgressService {
	if progressTotal <= 0 {
		progressTotal = model.DefaultProgressTotal
	}
	return &ProgressService{userRepo: userRepo, progressRepo: progressRepo, progressTotal: progressTotal}
}

// ProgressUpdate is the outcome of applying one answer. Progress and User are
// nil for a wrong answer, which touches no rows.
type ProgressUpdate struct {
	Progress    *model.UserProgress
	User        *model.User
	StarsGained int
}

func (s *ProgressService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

func (s *ProgressService) ListProgress(ctx context.Context, userID string) ([]model.UserProgress, error) {
	return s.progressRepo.ListByUser(ctx, userID)
}

func (s *ProgressService) GetProgress(ctx context.Context, userID string, t model.ExerciseType) (*model.UserProgress, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown exercise type %q: %w", t, common.ErrInvalidInput)
	}
	return s.progressRepo.FindByUserAndType(ctx, userID, t)
}

// Apply records the effect of one answer inside tx. Wrong answers change
// nothing and issue no queries. A correct answer advances the row by one
// (clamped) and adds the stars actually gained to the user's total, so the
// total stays the sum of the per-type stars. All statements run on tx.
func (s *ProgressService) Apply(ctx context.Context, tx *sql.Tx, userID string, t model.ExerciseType, isCorrect bool, at time.Time) (*ProgressUpdate, error) {
	if !isCorrect {
		return &ProgressUpdate{}, nil
	}

	p, prevStars, err := s.progressRepo.IncrementAndClamp(ctx, tx, userID, t, s.progressTotal, at)
	if err != nil {
		return nil, fmt.Errorf("failed to advance progress: %w", err)
	}
	gained := p.Stars - prevStars
	user, err := s.userRepo.AddStars(ctx, tx, userID, gained)
	if err != nil {
		return nil, fmt.Errorf("failed to add stars: %w", err)
	}
	return &ProgressUpdate{Progress: p, User: user, StarsGained: gained}, nil
}

// Snapshot reads the user's current row for t and star total. A missing row
// is reported as a nil progress.
func (s *ProgressService) Snapshot(ctx context.Context, userID string, t model.ExerciseType) (*model.UserProgress, *model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.progressRepo.FindByUserAndType(ctx, userID, t)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, nil, err
	}
	return p, user, nil
}
