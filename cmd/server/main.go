package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"batch-ingestor/api/rest/routes"
	"batch-ingestor/config"
	"batch-ingestor/core/executor"
	"batch-ingestor/core/ingestion"
	"batch-ingestor/core/monitoring"
	"batch-ingestor/core/repository"
	"batch-ingestor/core/scheduler"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional audit log
	var audit repository.AuditSink = repository.NopAuditSink{}
	if cfg.DatabaseURL != "" {
		db, err := repository.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		eventRepo := repository.NewEventRepository(db)
		if err := eventRepo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure audit schema: %w", err)
		}
		audit = eventRepo
		logger.Info("audit log enabled")
	}

	limits := ingestion.DefaultLimits()
	limits.BatchSize = cfg.BatchSize
	limits.MaxIDs = cfg.MaxIDs
	limits.MaxItemID = cfg.MaxItemID

	store := repository.NewJobStore()
	processor := executor.NewSimulatedProcessor(executor.WithItemLatency(cfg.ItemLatency))
	sched := scheduler.NewScheduler(store, scheduler.NewBatchQueue(), processor, audit, logger, cfg.RateLimitInterval)
	service := ingestion.NewService(store, sched, audit, limits, logger)

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	go sched.Start(schedCtx)

	r := mux.NewRouter()
	routes.SetupRoutes(r, service, sched, monitoring.NewMetricsExporter(store, sched), logger)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.ServerPort, "batch_size", limits.BatchSize, "interval", cfg.RateLimitInterval)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	sched.Stop()
	if err := sched.Wait(shutdownCtx); err != nil {
		logger.Warn("scheduler did not stop in time", "error", err)
	}

	pending := 0
	for _, n := range sched.QueueDepth() {
		pending += n
	}
	if pending > 0 {
		logger.Warn("batches left unprocessed", "pending", pending)
	}

	logger.Info("server exited")
	return nil
}
