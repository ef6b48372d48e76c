package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

type ProcessorQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Task
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Task, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(handler Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handler: handler,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Task, 100),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)

				for task := range q.ch {
					q.run(workerID, task)
				}

				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, task Task) {
	ctx := context.Background()
	if task.RequestID != "" {
		ctx = common.WithRequestID(ctx, task.RequestID)
	}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	start := time.Now()
	err := q.handler.Handle(ctx, task)
	if err != nil {
		q.logger.Error("queue.job.failed",
			"worker_id", workerID, "job_id", task.JobID, "req_id", task.RequestID,
			"stage", common.StageOf(err), "error", err)
		return
	}
	q.logger.Info("queue.job.done",
		"worker_id", workerID, "job_id", task.JobID, "req_id", task.RequestID,
		"wait_ms", start.Sub(task.SubmittedAt).Milliseconds(),
		"elapsed_ms", time.Since(start).Milliseconds())
}

// Enqueue never blocks: a full buffer or a closed queue is ErrQueueFull.
func (q *ProcessorQueue) Enqueue(_ context.Context, task Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "job_id", task.JobID)
		return common.NewAppError("QUEUE_CLOSED", "queue is shutting down", common.ErrQueueFull)
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- task:
		q.logger.Info("queue.job.queued", "job_id", task.JobID, "file", task.FileName, "depth", len(q.ch))
		return nil
	default:
		q.logger.Warn("queue.enqueue.full", "job_id", task.JobID, "capacity", cap(q.ch))
		return common.NewAppError("QUEUE_FULL", "too many pending receipts", common.ErrQueueFull)
	}
}

// Shutdown stops accepting tasks and waits for queued ones to drain, or for
// ctx to expire.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
