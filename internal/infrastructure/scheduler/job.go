package scheduler

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// JobKind selects the executor of a job
type JobKind string

// Job is one unit of background work. Payload is interpreted by the
// executor registered for Kind.
type Job struct {
	ID          string
	Kind        JobKind
	Payload     any
	Status      JobStatus
	Error       string
	Attempt     int // attempts started so far
	MaxRetries  int
	RetryDelay  time.Duration
	StartedAt   *time.Time
	CompletedAt *time.Time
	NextRetryAt *time.Time
}

// NewJob creates a pending job without retries
func NewJob(kind JobKind, payload any) *Job {
	return &Job{
		ID:      ulid.Make().String(),
		Kind:    kind,
		Payload: payload,
		Status:  JobStatusPending,
	}
}

// WithRetry sets a fixed-delay retry policy: at most maxRetries further
// attempts, each started delay after the previous failure.
func (j *Job) WithRetry(maxRetries int, delay time.Duration) *Job {
	j.MaxRetries = maxRetries
	j.RetryDelay = delay
	return j
}

// Start marks the job as running and counts the attempt
func (j *Job) Start() {
	now := time.Now()
	j.Attempt++
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.NextRetryAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the failed job has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.Attempt <= j.MaxRetries
}

// IsLastAttempt reports whether a failure of the running attempt exhausts the job
func (j *Job) IsLastAttempt() bool {
	return j.Attempt > j.MaxRetries
}

// ScheduleRetry puts the job back to pending until its next attempt
func (j *Job) ScheduleRetry() {
	j.Status = JobStatusPending
	next := time.Now().Add(j.RetryDelay)
	j.NextRetryAt = &next
}

// Executor runs jobs of one kind
type Executor interface {
	Execute(ctx context.Context, job *Job) error
}

// ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, job *Job) error

// Execute calls f
func (f ExecutorFunc) Execute(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// ExhaustedHandler is implemented by executors that report jobs whose
// last attempt failed.
type ExhaustedHandler interface {
	OnExhausted(ctx context.Context, job *Job, err error)
}
