package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"kids_math/internal/api"
	"kids_math/internal/app/service"
	"kids_math/internal/app/worker"
	"kids_math/internal/common/security"
	"kids_math/internal/domain/repository"
	"kids_math/internal/engine/generator"
	"kids_math/internal/engine/rng"
	"kids_math/internal/platform/config"
	"kids_math/internal/platform/database"
	"kids_math/internal/platform/logger"
	"kids_math/internal/platform/queue"
)

func main() {
	// 1. Load Configuration
	config.Load()
	cfg := config.AppConfig

	// 2. Initialize Logger
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// 3. Initialize JWT
	security.InitJWT(cfg.JWTKey, cfg.JWTExp)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Initialize Storage
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open storage", "driver", cfg.StorageDriver, "error", err)
	}
	defer closeStore()

	// 5. Initialize Redis (optional)
	var (
		rdb       *redis.Client
		publisher service.RefreshPublisher
		cache     service.ReportCache
		refreshQ  *queue.ReportQueue
	)
	if cfg.RedisEnabled {
		rdb, err = queue.ConnectRedis(ctx, queue.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", "error", err)
		}
		defer queue.CloseRedis(rdb, log)

		refreshQ = queue.NewReportQueue(rdb, cfg.ReportQueueName)
		publisher = refreshQ
		cache = queue.NewReportCache(rdb, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
	}

	// 6. Initialize Services
	progressSvc := service.NewProgressService(store.Users, store.Progress, cfg.ProgressTotalPerType)
	sessionSvc := service.NewSessionService(store.Sessions, cfg.SessionsDefaultLimit, cfg.SessionsMaxLimit)
	authSvc := service.NewAuthService(store.Users, store.Progress, store.Tx, cfg.ProgressTotalPerType, log)
	reportSvc := service.NewReportService(store.Users, store.Progress, store.Sessions, cache, log)
	exerciseSvc := service.NewExerciseService(
		generator.New(rng.NewTimeSeeded()),
		store.Exercises,
		sessionSvc,
		progressSvc,
		store.Tx,
		publisher,
		log,
	)

	if cfg.SeedDemoUser {
		if _, err := authSvc.EnsureDemoLearner(ctx, cfg.DemoPassword); err != nil {
			log.Fatal("Failed to seed demo learner", "error", err)
		}
	}

	// 7. Initialize Router & HTTP Server
	router := api.NewRouter(api.Services{
		Auth:     authSvc,
		Exercise: exerciseSvc,
		Progress: progressSvc,
		Session:  sessionSvc,
		Report:   reportSvc,
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", "port", cfg.APIPort, "storage", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// 8. Report worker (in-process when configured)
	if refreshQ != nil && cfg.RunWorkerInProcess {
		locker := queue.NewLocker(rdb, time.Duration(cfg.ReportLockTTLSeconds)*time.Second)
		w := worker.NewReportWorker(refreshQ, locker, reportSvc, log.With("component", "report_worker"))
		g.Go(func() error { return w.Start(gctx) })
	}

	// 9. Graceful Shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", "error", err)
		return
	}
	log.Info("Server and worker stopped gracefully")
}

// openStore returns the repositories for the configured driver and a func
// that releases them.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (repository.Store, func(), error) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Info("Using in-memory storage")
		return repository.NewMemoryStore().Store(), func() {}, nil
	}

	db, err := database.Connect(ctx, cfg.DBConnStr, log)
	if err != nil {
		return repository.Store{}, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		database.Close(db, log)
		return repository.Store{}, nil, err
	}
	store := repository.NewPgStore(db)
	if err := repository.SeedCatalog(ctx, store.Exercises); err != nil {
		database.Close(db, log)
		return repository.Store{}, nil, err
	}
	return store, func() { database.Close(db, log) }, nil
}
