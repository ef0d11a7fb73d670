package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"kids_math/internal/common"
	"kids_math/internal/common/security"
	"kids_math/internal/domain/model"
	"kids_math/internal/domain/repository"
	"kids_math/internal/platform/logger"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 4
)

type AuthService struct {
	userRepo      repository.UserRepository
	progressRepo  repository.ProgressRepository
	txr           repository.Transactor
	progressTotal int
	now           func() time.Time
	log           *logger.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	txr repository.Transactor,
	progressTotal int,
	log *logger.Logger,
) *AuthService {
	if progressTotal <= 0 {
		progressTotal = model.DefaultProgressTotal
	}
	return &AuthService{
		userRepo:      userRepo,
		progressRepo:  progressRepo,
		txr:           txr,
		progressTotal: progressTotal,
		now:           time.Now,
		log:           log,
	}
}

type SignupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, fmt.Errorf("username must be %d-%d characters: %w", minUsernameLen, maxUsernameLen, common.ErrValidation)
	}
	if len(req.Password) < minPasswordLen {
		return nil, fmt.Errorf("password must be at least %d characters: %w", minPasswordLen, common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashedPassword,
		CurrentLevel: 1,
		CreatedAt:    s.now().UTC(),
	}
	err = s.txr.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.progressRepo.SeedForUser(ctx, tx, user.ID, model.AllExerciseTypes(), s.progressTotal)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.log.Info("User signed up", "user_id", user.ID, "username", user.Username)

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("username and password are required: %w", common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, common.ErrUnauthorized
	}
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResponse, error) {
	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// EnsureDemoLearner creates the demo account with its starting progress unless
// it already exists. Its star total equals the sum of the seeded per-type stars.
func (s *AuthService) EnsureDemoLearner(ctx context.Context, password string) (*model.User, error) {
	existing, err := s.userRepo.FindByUsername(ctx, repository.DemoUsername)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := s.now().UTC()
	user := &model.User{
		ID:           uuid.NewString(),
		Username:     repository.DemoUsername,
		PasswordHash: hashedPassword,
		CurrentLevel: repository.DemoLevel,
		CreatedAt:    now,
	}

	err = s.txr.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.userRepo.Create(ctx, tx, user); err != nil {
			return err
		}
		if err := s.progressRepo.SeedForUser(ctx, tx, user.ID, model.AllExerciseTypes(), s.progressTotal); err != nil {
			return err
		}
		gained := 0
		for _, t := range model.AllExerciseTypes() {
			for range repository.DemoProgress[t] {
				p, prev, err := s.progressRepo.IncrementAndClamp(ctx, tx, user.ID, t, s.progressTotal, now)
				if err != nil {
					return err
				}
				gained += p.Stars - prev
			}
		}
		updated, err := s.userRepo.AddStars(ctx, tx, user.ID, gained)
		if err != nil {
			return err
		}
		user = updated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed demo learner: %w", err)
	}
	s.log.Info("Seeded demo learner", "user_id", user.ID, "total_stars", user.TotalStars)
	return user, nil
}
