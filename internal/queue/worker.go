package queue

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/botwerk/agency-backend/internal/metrics"
)

// Handler processes a single job
type Handler func(ctx context.Context, job *Job) error

// Worker pulls jobs off the queue and dispatches them to registered handlers
type Worker struct {
	queue      *Queue
	log        *zap.Logger
	metrics    *metrics.Metrics
	handlers   map[JobType]Handler
	numWorkers int

	quit chan struct{}
	wg   sync.WaitGroup
	mu   sync.RWMutex
}

// NewWorker creates a worker pool over the given queue. metrics may be
// nil in tests.
func NewWorker(queue *Queue, log *zap.Logger, m *metrics.Metrics, numWorkers int) *Worker {
	if numWorkers <= 0 {
		numWorkers = 2
	}
	return &Worker{
		queue:      queue,
		log:        log,
		metrics:    m,
		handlers:   make(map[JobType]Handler),
		numWorkers: numWorkers,
		quit:       make(chan struct{}),
	}
}

// Register binds a handler to a job type
func (w *Worker) Register(jobType JobType, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[jobType] = handler
}

// Start launches the worker goroutines
func (w *Worker) Start() {
	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.run(i)
	}
	w.log.Info("notification workers started", zap.Int("workers", w.numWorkers))
}

// Stop signals the workers and waits for them to drain
func (w *Worker) Stop() {
	close(w.quit)
	w.wg.Wait()
	w.log.Info("notification workers stopped")
}

func (w *Worker) run(id int) {
	defer w.wg.Done()

	ctx := context.Background()
	for {
		select {
		case <-w.quit:
			return
		default:
		}

		job, err := w.queue.Dequeue(ctx, time.Second)
		if err != nil {
			w.log.Error("failed to dequeue job", zap.Int("worker", id), zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		w.process(ctx, job)
	}
}

func (w *Worker) process(ctx context.Context, job *Job) {
	w.mu.RLock()
	handler, ok := w.handlers[job.Type]
	w.mu.RUnlock()

	if !ok {
		w.log.Warn("no handler registered for job type", zap.String("type", string(job.Type)))
		w.deadLetter(ctx, job, nil)
		return
	}

	if err := handler(ctx, job); err != nil {
		w.log.Warn("job failed",
			zap.String("job_id", job.ID),
			zap.String("type", string(job.Type)),
			zap.Int("retry_count", job.RetryCount),
			zap.Error(err))

		if job.RetryCount < job.MaxRetries {
			if rerr := w.queue.Retry(ctx, job, backoff(job.RetryCount)); rerr != nil {
				w.log.Error("failed to schedule retry", zap.String("job_id", job.ID), zap.Error(rerr))
			}
			return
		}
		w.deadLetter(ctx, job, err)
		return
	}

	w.log.Debug("job processed", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
}

func (w *Worker) deadLetter(ctx context.Context, job *Job, jobErr error) {
	if err := w.queue.Fail(ctx, job, jobErr); err != nil {
		w.log.Error("failed to dead-letter job", zap.String("job_id", job.ID), zap.Error(err))
	}
	if w.metrics != nil {
		w.metrics.RecordJobFailed(string(job.Type))
	}
}

// backoff returns an exponential delay: 30s, 1m, 2m, capped at 10m
func backoff(retryCount int) time.Duration {
	d := time.Duration(math.Pow(2, float64(retryCount))) * 30 * time.Second
	if d > 10*time.Minute {
		d = 10 * time.Minute
	}
	return d
}
