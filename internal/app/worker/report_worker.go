package worker

import (
	"context"
	"errors"
	"time"

	"kids_math/internal/common"
	"kids_math/internal/domain/model"
	"kids_math/internal/platform/logger"
)

type RefreshQueue interface {
	Pop(ctx context.Context, timeout time.Duration) (string, error)
	Requeue(ctx context.Context, userID string) error
}

type Locker interface {
	// Acquire returns common.ErrLockNotAcquired while another worker holds the lock.
	Acquire(ctx context.Context, userID string) (token string, err error)
	Release(ctx context.Context, userID, token string) (bool, error)
}

type Refresher interface {
	Refresh(ctx context.Context, userID string) (*model.Report, error)
}

const (
	defaultPopTimeout   = 5 * time.Second
	defaultRequeueDelay = time.Second
	errorBackoff        = 2 * time.Second
)

// ReportWorker drains the report refresh queue. Refreshes for one user are
// serialized across workers by a per-user lock; ids whose lock is taken go back
// on the queue after requeueDelay.
type ReportWorker struct {
	queue        RefreshQueue
	locker       Locker
	reports      Refresher
	log          *logger.Logger
	popTimeout   time.Duration
	requeueDelay time.Duration
}

func NewReportWorker(queue RefreshQueue, locker Locker, reports Refresher, log *logger.Logger) *ReportWorker {
	return &ReportWorker{
		queue:        queue,
		locker:       locker,
		reports:      reports,
		log:          log,
		popTimeout:   defaultPopTimeout,
		requeueDelay: defaultRequeueDelay,
	}
}

// Start blocks until ctx is cancelled.
func (w *ReportWorker) Start(ctx context.Context) error {
	w.log.Info("Report worker started")
	for {
		if ctx.Err() != nil {
			w.log.Info("Report worker stopping")
			return nil
		}

		userID, err := w.queue.Pop(ctx, w.popTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.log.Error("Failed to pop from report queue", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
			continue
		}
		if userID == "" {
			continue
		}
		w.Process(ctx, userID)
	}
}

// Process refreshes one user's report under that user's lock.
func (w *ReportWorker) Process(ctx context.Context, userID string) {
	token, err := w.locker.Acquire(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrLockNotAcquired) {
			w.log.Debug("Report refresh already running, re-queueing", "user_id", userID)
		} else {
			w.log.Error("Failed to acquire report lock", "user_id", userID, "error", err)
		}
		w.requeue(ctx, userID)
		return
	}
	defer func() {
		released, err := w.locker.Release(context.WithoutCancel(ctx), userID, token)
		if err != nil {
			w.log.Error("Failed to release report lock", "user_id", userID, "error", err)
		} else if !released {
			w.log.Warn("Report lock expired before release", "user_id", userID)
		}
	}()

	start := time.Now()
	r, err := w.reports.Refresh(ctx, userID)
	if err != nil {
		w.log.Error("Report refresh failed", "user_id", userID, "error", err)
		return
	}
	w.log.Debug("Report refreshed",
		"user_id", userID,
		"total_problems", r.TotalProblems,
		"duration", time.Since(start),
	)
}

// requeue waits before pushing userID back so a held lock is not polled in a
// tight pop/push loop. The id is pushed even when ctx ends during the wait.
func (w *ReportWorker) requeue(ctx context.Context, userID string) {
	if w.requeueDelay > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(w.requeueDelay):
		}
	}
	if err := w.queue.Requeue(context.WithoutCancel(ctx), userID); err != nil {
		w.log.Error("Failed to re-queue report refresh", "user_id", userID, "error", err)
	}
}
