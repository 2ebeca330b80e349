package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/medconsulta/agenda/internal/app/bootstrap"
	appconfig "github.com/medconsulta/agenda/internal/config"
	"github.com/medconsulta/agenda/internal/directory"
	"github.com/medconsulta/agenda/internal/notify"
	"github.com/medconsulta/agenda/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting agenda notification worker", "env", cfg.Env)

	if cfg.UseMemoryQueue {
		logger.Error("notify worker cannot run with USE_MEMORY_QUEUE=true; the API process runs the worker inline")
		os.Exit(1)
	}
	if cfg.NotifyQueueURL == "" {
		logger.Error("NOTIFY_QUEUE_URL is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dirRepo directory.Repository
	pool, err := bootstrap.BuildPgxPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
		dirRepo = directory.NewPostgresRepository(pool)
	} else {
		logger.Error("DATABASE_URL is required to resolve patient contact details")
		os.Exit(1)
	}

	awsCfg, err := bootstrap.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue := notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
	sender := bootstrap.BuildEmailSender(awsCfg, cfg, logger)
	worker := notify.NewWorker(notify.NewService(sender, dirRepo, logger), queue, logger,
		notify.WithWorkerCount(cfg.NotifyWorkers))

	worker.Start(ctx)
	logger.Info("notification worker started", "workers", cfg.NotifyWorkers, "queue", cfg.NotifyQueueURL)

	<-ctx.Done()

	doneCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("notification worker stopped")
	case <-doneCtx.Done():
		logger.Error("notification worker shutdown timed out", "error", doneCtx.Err())
	}
}
