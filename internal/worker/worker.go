package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"clipsmith/internal/config"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/services"
)

// Runner processes one job end to end, including its status transitions.
type Runner interface {
	Run(ctx context.Context, jobID string) error
}

// Worker owns the job queue: a bounded FIFO channel drained by exactly one
// goroutine, so jobs never run concurrently and submission order is
// processing order.
type Worker struct {
	store  *jobs.Store
	runner Runner
	queue  chan string
	logger *slog.Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a worker with the configured queue capacity.
func New(cfg *config.Config, store *jobs.Store, runner Runner, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = logging.NewNop()
	}
	capacity := cfg.Workflow.QueueCapacity
	if capacity < 1 {
		capacity = 1
	}
	return &Worker{
		store:  store,
		runner: runner,
		queue:  make(chan string, capacity),
		logger: logging.NewComponentLogger(logger, "worker"),
	}
}

// Start re-enqueues jobs that were queued when the previous process exited,
// then begins draining the queue. It returns immediately.
func (w *Worker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return fmt.Errorf("worker already started")
	}

	pending, err := w.store.List(ctx, jobs.StatusQueued)
	if err != nil {
		return fmt.Errorf("list queued jobs: %w", err)
	}
	for _, job := range pending {
		select {
		case w.queue <- job.ID:
		default:
			w.logger.Warn("queue full during recovery, job stays queued",
				logging.String(logging.FieldJobID, job.ID))
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.started = true

	go w.loop(runCtx)
	return nil
}

// Stop halts the drain loop after the in-flight job finishes. Queued jobs
// stay in the store and are recovered on the next Start.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done
}

// Submit persists a new job under the caller-chosen id and enqueues it. A
// full queue rejects the submission before anything is stored.
func (w *Worker) Submit(ctx context.Context, id string, userID, chatID int64, payload jobs.Payload) error {
	if len(w.queue) == cap(w.queue) {
		return services.Wrap(services.ErrTransient, "worker", "submit", "queue is full, try again shortly", nil)
	}

	if _, err := w.store.Create(ctx, id, userID, chatID, payload); err != nil {
		return err
	}
	select {
	case w.queue <- id:
	default:
		// Lost the capacity race; the job stays queued for recovery.
		w.logger.Warn("queue filled during submit, job deferred to recovery",
			logging.String(logging.FieldJobID, id))
	}
	w.logger.Info("job submitted",
		logging.String(logging.FieldJobID, id),
		logging.String("phase", payload.Phase))
	return nil
}

// Depth returns the number of jobs waiting in the queue.
func (w *Worker) Depth() int {
	return len(w.queue)
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-w.queue:
			w.process(ctx, jobID)
		}
	}
}

func (w *Worker) process(ctx context.Context, jobID string) {
	w.logger.Info("job started", logging.String(logging.FieldJobID, jobID))
	if err := w.runner.Run(services.WithJobID(ctx, jobID), jobID); err != nil {
		w.logger.Error("job failed",
			logging.String(logging.FieldJobID, jobID),
			logging.Error(err))
		return
	}
	w.logger.Info("job finished", logging.String(logging.FieldJobID, jobID))
}
