package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"kids_math/internal/domain/model"
	"kids_math/internal/domain/repository"
	"kids_math/internal/platform/logger"
	"kids_math/internal/platform/queue"
)

// ReportCache is the read-through cache in front of report computation.
type ReportCache interface {
	Get(ctx context.Context, userID string) (*model.Report, error)
	Set(ctx context.Context, r *model.Report) error
}

type ReportService struct {
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	sessionRepo  repository.SessionRepository
	cache        ReportCache
	now          func() time.Time
	log          *logger.Logger
}

// NewReportService builds the service; cache may be nil to compute every time.
func NewReportService(
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	sessionRepo repository.SessionRepository,
	cache ReportCache,
	log *logger.Logger,
) *ReportService {
	return &ReportService{
		userRepo:     userRepo,
		progressRepo: progressRepo,
		sessionRepo:  sessionRepo,
		cache:        cache,
		now:          time.Now,
		log:          log,
	}
}

// Summary returns the cached report when present and computes it otherwise.
func (s *ReportService) Summary(ctx context.Context, userID string) (*model.Report, error) {
	if s.cache != nil {
		r, err := s.cache.Get(ctx, userID)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, queue.ErrCacheMiss) {
			s.log.Warn("Report cache read failed", "user_id", userID, "error", err)
		}
	}

	r, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, r); err != nil {
			s.log.Warn("Report cache write failed", "user_id", userID, "error", err)
		}
	}
	return r, nil
}

// Refresh recomputes the report and stores it in the cache.
func (s *ReportService) Refresh(ctx context.Context, userID string) (*model.Report, error) {
	r, err := s.compute(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, r); err != nil {
			return nil, fmt.Errorf("store report for %s: %w", userID, err)
		}
	}
	return r, nil
}

func (s *ReportService) compute(ctx context.Context, userID string) (*model.Report, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	var (
		sessions []model.Session
		progress []model.UserProgress
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = s.sessionRepo.ListByUserSince(gctx, userID, time.Time{})
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.progressRepo.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report data: %w", err)
	}

	r := model.BuildReport(userID, sessions, progress, s.now())
	return &r, nil
}
