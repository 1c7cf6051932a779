package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/phrazzld/evekey-api/internal/platform/logger"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the task and result queues
	QueueSize int

	// ShutdownGrace bounds how long Stop waits for the task queue to drain
	// before abandoning outstanding work
	ShutdownGrace time.Duration

	// DrainPollInterval defines how often Stop re-checks the queue length
	// during the grace window. If zero, defaults to 1 second.
	DrainPollInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults.
// The worker count matches the original deployment's pool size.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:       5,
		QueueSize:         100,
		ShutdownGrace:     10 * time.Second,
		DrainPollInterval: time.Second,
	}
}

// Runner manages background key lookup processing: it owns the task and
// result queues and the fixed-size worker pool draining them.
type Runner struct {
	queue      *TaskQueue
	results    *ResultQueue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu      sync.Mutex
	started bool
}

// NewRunner creates a new Runner. The queues are owned by the runner; no
// ambient shared state is involved.
func NewRunner(config RunnerConfig, logger *slog.Logger) *Runner {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}
	if config.DrainPollInterval == 0 {
		config.DrainPollInterval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		queue:      NewTaskQueue(config.QueueSize, logger),
		results:    NewResultQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}
}

// SetErrorHandler allows setting a custom error handler function
func (r *Runner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit adds a new task to the queue. Fire-and-forget: the outcome arrives
// on the result queue, correlated by the request id.
func (r *Runner) Submit(task Task) error {
	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// ResultPublisher returns the publisher tasks report their outcome to.
func (r *Runner) ResultPublisher() ResultPublisher {
	return r.results
}

// Results returns the channel the result consumer drains.
func (r *Runner) Results() <-chan KeyLookupResult {
	return r.results.Results()
}

// QueueLen reports how many tasks are queued but not yet consumed.
func (r *Runner) QueueLen() int {
	return r.queue.Len()
}

// Start spawns the worker pool and begins processing tasks.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("runner already started")
	}
	r.started = true

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	r.logger.Info("task runner started", "worker_count", r.config.WorkerCount)
	return nil
}

// Stop gracefully shuts down the runner. New submissions are refused
// immediately; the queue is given up to ShutdownGrace to drain, re-checked
// every DrainPollInterval. Work still outstanding after the grace window is
// abandoned with a warning. Stop never blocks indefinitely.
func (r *Runner) Stop() {
	r.queue.Close()

	deadline := time.Now().Add(r.config.ShutdownGrace)
	for r.queue.Len() > 0 && time.Now().Before(deadline) {
		r.logger.Info("waiting for task queue to drain",
			"outstanding", r.queue.Len())
		time.Sleep(r.config.DrainPollInterval)
	}

	if outstanding := r.queue.Len(); outstanding > 0 {
		r.logger.Warn("giving up with outstanding tasks",
			"abandoned", outstanding)
	}

	r.cancelFunc()
	r.wg.Wait()
	r.results.Close()
	r.logger.Info("task runner stopped")
}

// worker processes tasks from the queue until the queue is drained and
// closed, or the runner's context is cancelled.
func (r *Runner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("starting worker", "worker_id", id)

	for {
		// Cancellation wins over further queued work
		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			r.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-r.queue.GetChannel():
			if !ok {
				r.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			r.processTask(task, id)
		}
	}
}

// processTask handles execution of a single task. A task begun is never
// interrupted mid-flight: it runs on a fresh context so shutdown cannot
// cancel it, and task-level failures never terminate the worker.
func (r *Runner) processTask(task Task, workerID int) {
	taskLogger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)
	ctx := logger.WithLogger(context.Background(), taskLogger)

	taskLogger.Info("processing task")

	if err := task.Execute(ctx); err != nil {
		r.errHandler(task, err)
		return
	}

	taskLogger.Info("task completed successfully")
}
