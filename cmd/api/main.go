package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/medconsulta/agenda/internal/api/router"
	"github.com/medconsulta/agenda/internal/app/bootstrap"
	appconfig "github.com/medconsulta/agenda/internal/config"
	"github.com/medconsulta/agenda/internal/directory"
	"github.com/medconsulta/agenda/internal/notify"
	obsmetrics "github.com/medconsulta/agenda/internal/observability/metrics"
	"github.com/medconsulta/agenda/internal/schedule"
	"github.com/medconsulta/agenda/pkg/logging"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agenda API server", "env", cfg.Env, "port", cfg.Port)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage
	var bookingRepo schedule.Repository
	var dirRepo directory.Repository
	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil && !cfg.UseMemoryRepo {
		defer pool.Close()
		bookingRepo = schedule.NewPostgresRepository(pool)
		dirRepo = directory.NewPostgresRepository(pool)
		logger.Info("postgres repositories initialized")
	} else {
		bookingRepo = schedule.NewInMemoryRepository()
		dirRepo = directory.NewInMemoryRepository()
		logger.Warn("using in-memory repositories, data will not survive restarts")
	}

	// Availability slot grid
	slots, err := schedule.NewSlotConfig(cfg.SlotDayStart, cfg.SlotDayEnd, cfg.SlotDuration, cfg.SlotBreakStart, cfg.SlotBreakEnd)
	if err != nil {
		logger.Warn("invalid slot configuration, using defaults", "error", err)
		slots = schedule.DefaultSlotConfig()
	}

	// Availability cache
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := schedule.NewAvailabilityCache(redisClient, cfg.AvailCacheTTL)

	// Metrics
	registry := prometheus.NewRegistry()
	schedulingMetrics := obsmetrics.NewSchedulingMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	scheduler := schedule.NewScheduler(
		bookingRepo,
		directory.NewChecker(dirRepo),
		slots,
		schedule.WithCache(cache),
		schedule.WithMetrics(schedulingMetrics),
		schedule.WithLogger(logger),
	)

	// Notification pipeline. With the memory queue the worker runs inline;
	// with SQS a separate notify-worker process drains the queue.
	var events schedule.Publisher
	var inlineWorker *notify.Worker
	switch {
	case cfg.UseMemoryQueue:
		queue := notify.NewMemoryQueue(0)
		events = notify.NewPublisher(queue, logger)
		awsCfg, err := bootstrap.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		sender := bootstrap.BuildEmailSender(awsCfg, cfg, logger)
		inlineWorker = notify.NewWorker(notify.NewService(sender, dirRepo, logger), queue, logger,
			notify.WithWorkerCount(cfg.NotifyWorkers))
		inlineWorker.Start(ctx)
		logger.Info("inline notification worker started", "workers", cfg.NotifyWorkers)
	case cfg.NotifyQueueURL != "":
		awsCfg, err := bootstrap.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		events = notify.NewPublisher(notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), logger)
		logger.Info("notification publisher initialized", "queue", cfg.NotifyQueueURL)
	default:
		logger.Warn("notifications disabled (no queue configured)")
	}

	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     schedule.NewHandler(scheduler, events, logger),
		DirectoryHandler:   directory.NewHandler(dirRepo, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if inlineWorker != nil {
		inlineWorker.Wait()
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}
