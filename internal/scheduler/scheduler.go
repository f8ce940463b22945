// Package scheduler periodically enqueues processing for files still in the Received state.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/logger"
	"github.com/dvloznov/edi-processor/internal/store"
)

// DefaultInterval is used when NewScheduler gets a non-positive interval.
const DefaultInterval = 5 * time.Minute

// FileLister lists candidate files.
type FileLister interface {
	ListFiles(ctx context.Context, filter store.FileFilter) ([]*domain.File, error)
}

// JobLister reports existing jobs for a file.
type JobLister interface {
	ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ProcessFileJob, error)
}

// Scheduler publishes one ProcessFileJob per pending file on every tick.
type Scheduler struct {
	files     FileLister
	jobStore  JobLister
	publisher jobs.Publisher
	interval  time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewScheduler(files FileLister, jobStore JobLister, publisher jobs.Publisher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		files:     files,
		jobStore:  jobStore,
		publisher: publisher,
		interval:  interval,
	}
}

// Run checks immediately, then on every interval, until ctx is cancelled or Stop is called.
func (s *Scheduler) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stop := s.stopCh
	s.mu.Unlock()

	log := logger.FromContext(ctx)
	if _, err := s.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: pending file check failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("scheduler: pending file check failed")
			}
		}
	}
}

// Stop ends a running Run loop.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// RunOnce publishes jobs for Received files without an active job and
// returns how many were published.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	log := logger.FromContext(ctx)

	pending, err := s.files.ListFiles(ctx, store.FileFilter{Status: domain.FileStatusReceived})
	if err != nil {
		return 0, fmt.Errorf("RunOnce: listing pending files: %w", err)
	}

	published := 0
	for _, f := range pending {
		active, err := s.hasActiveJob(ctx, f.ID)
		if err != nil {
			log.Error().Err(err).Str("file_id", f.ID).Msg("scheduler: checking existing jobs")
			continue
		}
		if active {
			continue
		}

		job := &jobs.ProcessFileJob{FileID: f.ID}
		if err := s.publisher.PublishProcessFile(ctx, job); err != nil {
			return published, fmt.Errorf("RunOnce: publishing job for file %s: %w", f.ID, err)
		}
		published++
		log.Info().
			Str("file_id", f.ID).
			Str("file_name", f.FileName).
			Str("job_id", job.JobID).
			Msg("scheduler: queued pending file")
	}

	if len(pending) > 0 {
		log.Info().Int("pending", len(pending)).Int("published", published).Msg("scheduler: pending file check done")
	}
	return published, nil
}

func (s *Scheduler) hasActiveJob(ctx context.Context, fileID string) (bool, error) {
	existing, err := s.jobStore.ListJobs(ctx, jobs.JobFilter{FileID: fileID})
	if err != nil {
		return false, err
	}
	for _, j := range existing {
		if j.Status.IsActive() {
			return true, nil
		}
	}
	return false, nil
}
