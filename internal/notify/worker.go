package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/medconsulta/agenda/pkg/logging"
)

const (
	defaultWorkerCount = 2
	defaultBatchSize   = 5
	defaultWaitSeconds = 2
)

// Worker drains the notification queue and dispatches emails.
type Worker struct {
	service *Service
	queue   queueClient
	logger  *logging.Logger

	workerCount int
	wg          sync.WaitGroup
}

// WorkerOption customizes the worker.
type WorkerOption func(*Worker)

// WithWorkerCount sets the number of consumer goroutines.
func WithWorkerCount(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.workerCount = n
		}
	}
}

// NewWorker creates a notification worker.
func NewWorker(service *Service, queue queueClient, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if service == nil {
		panic("notify: service cannot be nil")
	}
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	w := &Worker{
		service:     service,
		queue:       queue,
		logger:      logger,
		workerCount: defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches worker goroutines until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.workerCount; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Wait blocks until all worker goroutines exit.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, defaultBatchSize, defaultWaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive notifications", "worker", workerID, "error", err)
			time.Sleep(backoff)
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

func (w *Worker) handleMessage(ctx context.Context, msg queueMessage) {
	var payload queuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		w.logger.Error("dropping malformed notification", "message_id", msg.ID, "error", err)
		w.deleteMessage(ctx, msg)
		return
	}

	var err error
	switch payload.Kind {
	case kindBookingScheduled:
		if payload.Scheduled == nil {
			w.logger.Error("scheduled event without payload", "id", payload.ID)
			w.deleteMessage(ctx, msg)
			return
		}
		err = w.service.NotifyBookingScheduled(ctx, payload.Scheduled)
	case kindBookingCancelled:
		if payload.Cancelled == nil {
			w.logger.Error("cancelled event without payload", "id", payload.ID)
			w.deleteMessage(ctx, msg)
			return
		}
		err = w.service.NotifyBookingCancelled(ctx, payload.Cancelled)
	default:
		w.logger.Error("dropping notification with unknown kind", "kind", payload.Kind, "id", payload.ID)
		w.deleteMessage(ctx, msg)
		return
	}

	if err != nil {
		// Leave the message on the queue for redelivery.
		w.logger.Error("failed to process notification", "kind", payload.Kind, "id", payload.ID, "error", err)
		return
	}
	w.deleteMessage(ctx, msg)
}

func (w *Worker) deleteMessage(ctx context.Context, msg queueMessage) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete notification message", "message_id", msg.ID, "error", err)
	}
}
