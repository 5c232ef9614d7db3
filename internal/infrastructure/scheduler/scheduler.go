package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mozillians/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Config holds scheduler configuration
type Config struct {
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 4,
		QueueSize:         100,
		JobTimeout:        5 * time.Minute,
	}
}

// Observer receives job lifecycle notifications, e.g. for metrics
type Observer interface {
	JobFinished(kind JobKind, status JobStatus, duration time.Duration)
	JobRetried(kind JobKind)
}

type noopObserver struct{}

func (noopObserver) JobFinished(JobKind, JobStatus, time.Duration) {}
func (noopObserver) JobRetried(JobKind)                            {}

// Observers fans notifications out to every given observer
type Observers []Observer

// JobFinished notifies every observer
func (o Observers) JobFinished(kind JobKind, status JobStatus, d time.Duration) {
	for _, obs := range o {
		obs.JobFinished(kind, status, d)
	}
}

// JobRetried notifies every observer
func (o Observers) JobRetried(kind JobKind) {
	for _, obs := range o {
		obs.JobRetried(kind)
	}
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithObserver sets the lifecycle observer
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observer = o
		}
	}
}

// Scheduler is a bounded in-process task queue served by a fixed worker pool.
// Failed jobs are retried after their fixed delay via timers, so a waiting
// retry never occupies a worker.
type Scheduler struct {
	config    Config
	logger    *zap.Logger
	observer  Observer
	executors map[JobKind]Executor

	jobs    chan *Job
	cancel  context.CancelFunc
	workers sync.WaitGroup
	pending sync.WaitGroup // submitted jobs that have not reached a final state

	mu        sync.Mutex
	isRunning bool
	timers    map[string]*time.Timer
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, logger *zap.Logger, opts ...Option) (*Scheduler, error) {
	if cfg.MaxConcurrentJobs <= 0 || cfg.QueueSize <= 0 || cfg.JobTimeout <= 0 {
		return nil, fmt.Errorf("%w: workers, queue size and timeout must be positive", ErrInvalidConfig)
	}
	s := &Scheduler{
		config:    cfg,
		logger:    logger,
		observer:  noopObserver{},
		executors: make(map[JobKind]Executor),
		jobs:      make(chan *Job, cfg.QueueSize),
		timers:    make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register installs the executor for a job kind. Register before Start.
func (s *Scheduler) Register(kind JobKind, executor Executor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executors[kind] = executor
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.workers.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Task scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Int("queue_size", s.config.QueueSize),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop stops the workers. Retries still waiting on their timer are dropped.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	for id, t := range s.timers {
		if t.Stop() {
			s.pending.Done()
		}
		delete(s.timers, id)
	}
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		for range s.jobs {
			s.pending.Done()
		}
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Task scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Task scheduler stop timed out")
		return ctx.Err()
	}
}

// Wait blocks until every submitted job, including its retries, reached a
// final state or ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Submit enqueues a job without blocking
func (s *Scheduler) Submit(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	if _, ok := s.executors[job.Kind]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJobKind, job.Kind)
	}

	s.pending.Add(1)
	select {
	case s.jobs <- job:
		s.logger.Debug("Job submitted",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
		)
		return nil
	default:
		s.pending.Done()
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.workers.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	s.mu.Lock()
	executor := s.executors[job.Kind]
	s.mu.Unlock()

	job.Start()
	jobCtx, log := logger.WithTaskID(ctx, s.logger, job.ID)
	log = log.With(zap.String("kind", string(job.Kind)), zap.Int("attempt", job.Attempt))
	log.Debug("Processing job", zap.Int("worker_id", workerID))

	jobCtx, cancel := context.WithTimeout(jobCtx, s.config.JobTimeout)
	defer cancel()

	started := time.Now()
	err := s.execute(jobCtx, executor, job)
	duration := time.Since(started)

	if err == nil {
		job.Complete()
		log.Info("Job completed", zap.Duration("duration", duration))
		s.observer.JobFinished(job.Kind, JobStatusSuccess, duration)
		s.pending.Done()
		return
	}

	job.Fail(err.Error())
	if !IsPermanent(err) && job.ShouldRetry() {
		job.ScheduleRetry()
		log.Warn("Job failed, retry scheduled",
			zap.Duration("retry_in", job.RetryDelay),
			zap.Int("max_retries", job.MaxRetries),
			zap.Error(err),
		)
		s.observer.JobRetried(job.Kind)
		s.scheduleRetry(job)
		return
	}

	log.Error("Job failed", zap.Bool("permanent", IsPermanent(err)), zap.Error(err))
	if handler, ok := executor.(ExhaustedHandler); ok && !IsPermanent(err) {
		reportCtx, cancelReport := context.WithTimeout(context.WithoutCancel(jobCtx), s.config.JobTimeout)
		handler.OnExhausted(reportCtx, job, err)
		cancelReport()
	}
	s.observer.JobFinished(job.Kind, JobStatusFailed, duration)
	s.pending.Done()
}

// execute runs the executor, turning a panic into an error
func (s *Scheduler) execute(ctx context.Context, executor Executor, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return executor.Execute(ctx, job)
}

func (s *Scheduler) scheduleRetry(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		s.pending.Done()
		return
	}
	s.armRetry(job, job.RetryDelay)
}

// armRetry requeues job after d. Callers hold s.mu.
func (s *Scheduler) armRetry(job *Job, d time.Duration) {
	s.timers[job.ID] = time.AfterFunc(d, func() { s.requeue(job) })
}

// requeue hands a waiting retry back to the workers. A full queue postpones
// the attempt by another retry delay; the retry budget is never spent by
// back-pressure.
func (s *Scheduler) requeue(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, job.ID)
	if !s.isRunning {
		s.pending.Done()
		return
	}
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Queue full, retry postponed",
			zap.String("job_id", job.ID),
			zap.String("kind", string(job.Kind)),
			zap.Duration("retry_in", job.RetryDelay),
		)
		s.armRetry(job, job.RetryDelay)
	}
}
