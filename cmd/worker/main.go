package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kids_math/internal/app/service"
	"kids_math/internal/app/worker"
	"kids_math/internal/domain/repository"
	"kids_math/internal/platform/config"
	"kids_math/internal/platform/database"
	"kids_math/internal/platform/logger"
	"kids_math/internal/platform/queue"
)

// The standalone worker refreshes cached progress reports. It needs the
// shared Postgres database; the memory store only lives inside the server.
func main() {
	config.Load()
	cfg := config.AppConfig

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log = log.With("component", "report_worker")
	log.Info("Worker service starting...")

	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Fatal("Standalone worker requires STORAGE_DRIVER=postgres")
	}

	// Graceful shutdown on SIGINT or SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DBConnStr, log)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close(db, log)

	rdb, err := queue.ConnectRedis(ctx, queue.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", "error", err)
	}
	defer queue.CloseRedis(rdb, log)

	store := repository.NewPgStore(db)
	cache := queue.NewReportCache(rdb, time.Duration(cfg.ReportCacheTTLSeconds)*time.Second)
	reports := service.NewReportService(store.Users, store.Progress, store.Sessions, cache, log)

	w := worker.NewReportWorker(
		queue.NewReportQueue(rdb, cfg.ReportQueueName),
		queue.NewLocker(rdb, time.Duration(cfg.ReportLockTTLSeconds)*time.Second),
		reports,
		log,
	)
	if err := w.Start(ctx); err != nil {
		log.Error("Worker stopped with error", "error", err)
		return
	}
	log.Info("Worker exited cleanly")
}
