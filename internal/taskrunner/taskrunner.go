// Package taskrunner executes clip jobs with in-memory workers. It is the
// default execution backend when no Redis queue is configured.
package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"clipcast/internal/service"
	"clipcast/internal/types"
	"clipcast/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

// DefaultConfig returns a single-host friendly default config.
func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

// Runner executes queued clip jobs with in-memory workers.
type Runner struct {
	service *service.Service
	config  Config

	queue  chan types.JobInput
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New creates and starts a task runner.
func New(svc *service.Service, cfg Config) *Runner {
	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		service: svc,
		config:  cfg,
		queue:   make(chan types.JobInput, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// SubmitClipJob queues a clip job for background execution.
func (r *Runner) SubmitClipJob(job types.JobInput) error {
	if job.SourcePath == "" {
		return errors.New("clip job source path is required")
	}
	if r.closed.Load() {
		return ErrRunnerStopped
	}

	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case r.queue <- job:
		log.GetLogger().Info("[TaskRunner] clip job submitted",
			zap.String("job_id", job.JobID),
			zap.Int64("chat_id", job.ChatID))
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case job := <-r.queue:
			r.processJob(workerID, job)
		}
	}
}

func (r *Runner) processJob(workerID int, job types.JobInput) {
	if err := r.service.StartClipJob(r.ctx, job); err != nil {
		log.GetLogger().Error("[TaskRunner] clip job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.JobID),
			zap.Error(err))
		return
	}

	log.GetLogger().Info("[TaskRunner] clip job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.JobID))
}

// Close stops workers and rejects new jobs.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued jobs waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
