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
	"kids_math/internal/engine/generator"
	"kids_math/internal/platform/logger"
)

// RefreshPublisher schedules a background report refresh for a user.
type RefreshPublisher interface {
	Publish(ctx context.Context, userID string) error
}

type ExerciseService struct {
	gen       *generator.Generator
	catalog   repository.ExerciseRepository
	sessions  *SessionService
	progress  *ProgressService
	txr       repository.Transactor
	publisher RefreshPublisher
	now       func() time.Time
	log       *logger.Logger
}

func NewExerciseService(
	gen *generator.Generator,
	catalog repository.ExerciseRepository,
	sessions *SessionService,
	progress *ProgressService,
	txr repository.Transactor,
	publisher RefreshPublisher,
	log *logger.Logger,
) *ExerciseService {
	return &ExerciseService{
		gen:       gen,
		catalog:   catalog,
		sessions:  sessions,
		progress:  progress,
		txr:       txr,
		publisher: publisher,
		now:       time.Now,
		log:       log,
	}
}

func parseType(raw string) (model.ExerciseType, error) {
	t, ok := model.ParseExerciseType(raw)
	if !ok {
		return "", fmt.Errorf("unknown exercise type %q: %w", raw, common.ErrInvalidInput)
	}
	return t, nil
}

// GenerateRandom builds a fresh exercise. It is CPU only and never touches storage.
func (s *ExerciseService) GenerateRandom(ctx context.Context, rawType string, difficulty int) (*model.Exercise, error) {
	t, err := parseType(rawType)
	if err != nil {
		return nil, err
	}
	ex, err := s.gen.Generate(t, difficulty)
	if err != nil {
		if errors.Is(err, generator.ErrUnknownType) || errors.Is(err, generator.ErrInvalidDifficulty) {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
		}
		return nil, err
	}
	return &ex, nil
}

func (s *ExerciseService) ListCatalog(ctx context.Context, rawType string, difficulty *int) ([]model.Exercise, error) {
	t, err := parseType(rawType)
	if err != nil {
		return nil, err
	}
	if difficulty != nil && !model.ValidDifficulty(*difficulty) {
		return nil, fmt.Errorf("difficulty %d out of range: %w", *difficulty, common.ErrInvalidInput)
	}
	return s.catalog.ListByType(ctx, t, difficulty)
}

// GetCatalogExercise returns one stored catalog exercise.
func (s *ExerciseService) GetCatalogExercise(ctx context.Context, id int) (*model.Exercise, error) {
	if id <= 0 {
		return nil, fmt.Errorf("exercise id %d: %w", id, common.ErrInvalidInput)
	}
	return s.catalog.FindByID(ctx, id)
}

type SubmitRequest struct {
	ExerciseID   int    `json:"exerciseId"`
	ExerciseType string `json:"exerciseType"`
	IsCorrect    *bool  `json:"isCorrect"`
	TimeSpent    *int   `json:"timeSpent"`
}

type SubmitResult struct {
	Success  bool                `json:"success"`
	Session  *model.Session      `json:"session"`
	Progress *model.UserProgress `json:"progress,omitempty"`
	User     *model.User         `json:"user,omitempty"`
}

func (r SubmitRequest) validate() (model.ExerciseType, error) {
	t, err := parseType(r.ExerciseType)
	if err != nil {
		return "", err
	}
	if r.IsCorrect == nil {
		return "", fmt.Errorf("isCorrect is required: %w", common.ErrInvalidInput)
	}
	if r.TimeSpent == nil || *r.TimeSpent < 0 {
		return "", fmt.Errorf("timeSpent must be a non-negative number of seconds: %w", common.ErrInvalidInput)
	}
	return t, nil
}

// Submit records the attempt and applies it to progress in one transaction:
// either the session, progress row and star total all change or none does.
func (s *ExerciseService) Submit(ctx context.Context, userID string, req SubmitRequest) (*SubmitResult, error) {
	t, err := req.validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.progress.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	at := s.now()
	var result *SubmitResult
	err = s.txr.WithinTx(ctx, func(tx *sql.Tx) error {
		session, err := s.sessions.Record(ctx, tx, userID, Attempt{
			ExerciseID:   req.ExerciseID,
			ExerciseType: t,
			IsCorrect:    *req.IsCorrect,
			TimeSpent:    *req.TimeSpent,
			CompletedAt:  at,
		})
		if err != nil {
			return err
		}
		update, err := s.progress.Apply(ctx, tx, userID, t, *req.IsCorrect, session.CompletedAt)
		if err != nil {
			return err
		}
		result = &SubmitResult{Success: true, Session: session, Progress: update.Progress, User: update.User}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !*req.IsCorrect {
		// Read after commit so the tx never waits on a second pool connection.
		// A failed read only trims the response; the attempt is already stored.
		if p, u, err := s.progress.Snapshot(ctx, userID, t); err != nil {
			s.log.Warn("Failed to read progress after submit", "user_id", userID, "error", err)
		} else {
			result.Progress, result.User = p, u
		}
	}

	s.log.Debug("Answer submitted",
		"user_id", userID,
		"exercise_type", t,
		"is_correct", *req.IsCorrect,
		"completed", progressCompleted(result.Progress),
	)
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, userID); err != nil {
			s.log.Warn("Failed to schedule report refresh", "user_id", userID, "error", err)
		}
	}
	return result, nil
}

func progressCompleted(p *model.UserProgress) int {
	if p == nil {
		return 0
	}
	return p.Completed
}
