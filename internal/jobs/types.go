// Package jobs defines asynchronous work items and the queue abstractions that carry them.
package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned by a JobStore for an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// JobType names the kind of work a job carries.
type JobType string

const (
	// JobTypeProcessFile validates and parses one ingested file.
	JobTypeProcessFile JobType = "process_file"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"

	// JobStatusRetrying marks a failed attempt that will be run again after a backoff.
	JobStatusRetrying JobStatus = "retrying"
)

// IsActive reports whether a job in this status may still run.
func (s JobStatus) IsActive() bool {
	return s == JobStatusPending || s == JobStatusRunning || s == JobStatusRetrying
}

// ProcessFileJob validates and parses the file with FileID.
type ProcessFileJob struct {
	JobID  string `json:"job_id"`
	FileID string `json:"file_id"`

	// TransactionID is set once the file has been parsed.
	TransactionID string `json:"transaction_id,omitempty"`

	Status JobStatus `json:"status"`

	// Outcome is a short description of the result, e.g. the validation errors.
	Outcome string `json:"outcome,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error is the last attempt's failure.
	Error string `json:"error,omitempty"`

	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`
}

// Job is what a JobHandler receives.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ProcessFileJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ProcessFileJob) GetType() JobType {
	return JobTypeProcessFile
}

// GetStatus implements the Job interface.
func (j *ProcessFileJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher enqueues jobs.
type Publisher interface {
	// PublishProcessFile enqueues a file processing job.
	PublishProcessFile(ctx context.Context, job *ProcessFileJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	// Start launches the workers and returns without blocking.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler runs one job. A non-nil error makes the queue retry it.
type JobHandler func(ctx context.Context, job Job) error

// JobStore keeps job state for status queries and scheduling.
type JobStore interface {
	SaveJob(ctx context.Context, job *ProcessFileJob) error

	// GetJob returns ErrJobNotFound for an unknown id.
	GetJob(ctx context.Context, jobID string) (*ProcessFileJob, error)

	// ListJobs returns matching jobs, newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ProcessFileJob, error)

	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter narrows ListJobs. Zero fields match everything.
type JobFilter struct {
	FileID string
	Status JobStatus
	Limit  int
	Offset int
}
