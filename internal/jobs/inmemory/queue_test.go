package inmemory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/logger"
)

func quietContext() context.Context {
	return logger.WithContext(context.Background(), zerolog.Nop())
}

func waitForStatus(t *testing.T, store *Store, jobID string, want jobs.JobStatus) *jobs.ProcessFileJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetJob(context.Background(), jobID)
		if err == nil && job.Status == want {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return nil
}

func TestQueue_ProcessesJob(t *testing.T) {
	ctx := quietContext()
	store := NewStore()
	q := NewQueue(Options{Workers: 2}, store)
	defer q.Close()

	var seen atomic.Value
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		seen.Store(job.(*jobs.ProcessFileJob).FileID)
		return nil
	}))

	job := &jobs.ProcessFileJob{FileID: "file-1"}
	require.NoError(t, q.PublishProcessFile(ctx, job))
	require.NotEmpty(t, job.JobID)

	done := waitForStatus(t, store, job.JobID, jobs.JobStatusCompleted)
	assert.Equal(t, "file-1", seen.Load())
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.CompletedAt)
	assert.Empty(t, done.Error)
}

func TestQueue_RetriesThenFails(t *testing.T) {
	ctx := quietContext()
	store := NewStore()
	q := NewQueue(Options{Workers: 1, MaxRetries: 2, Backoff: time.Millisecond}, store)
	defer q.Close()

	var calls int32
	require.NoError(t, q.Start(ctx, func(ctx context.Context, job jobs.Job) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("blob store unavailable")
	}))

	job := &jobs.ProcessFileJob{FileID: "file-2"}
	require.NoError(t, q.PublishProcessFile(ctx, job))

	failed := waitForStatus(t, store, job.JobID, jobs.JobStatusFailed)
	assert.Equal(t, 2, failed.RetryCount)
	assert.Equal(t, "blob store unavailable", failed.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueue_PublishAfterStop(t *testing.T) {
	q := NewQueue(Options{}, nil)
	require.NoError(t, q.Stop(context.Background()))
	assert.Error(t, q.PublishProcessFile(context.Background(), &jobs.ProcessFileJob{FileID: "f"}))
	assert.Error(t, q.Start(context.Background(), func(context.Context, jobs.Job) error { return nil }))
	assert.NoError(t, q.Stop(context.Background()), "second stop is a no-op")
}

func TestStore_ListJobs(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveJob(ctx, &jobs.ProcessFileJob{JobID: "j1", FileID: "a", Status: jobs.JobStatusCompleted, CreatedAt: base}))
	require.NoError(t, s.SaveJob(ctx, &jobs.ProcessFileJob{JobID: "j2", FileID: "a", Status: jobs.JobStatusPending, CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, s.SaveJob(ctx, &jobs.ProcessFileJob{JobID: "j3", FileID: "b", Status: jobs.JobStatusPending, CreatedAt: base.Add(2 * time.Minute)}))

	byFile, err := s.ListJobs(ctx, jobs.JobFilter{FileID: "a"})
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	assert.Equal(t, "j2", byFile[0].JobID)

	pending, err := s.ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusPending, Limit: 1})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "j3", pending[0].JobID)

	require.NoError(t, s.UpdateJobStatus(ctx, "j3", jobs.JobStatusFailed, "boom"))
	got, err := s.GetJob(ctx, "j3")
	require.NoError(t, err)
	assert.Equal(t, jobs.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	_, err = s.GetJob(ctx, "nope")
	assert.ErrorIs(t, err, jobs.ErrJobNotFound)
	assert.ErrorIs(t, s.UpdateJobStatus(ctx, "nope", jobs.JobStatusFailed, ""), jobs.ErrJobNotFound)
	assert.Error(t, s.SaveJob(ctx, &jobs.ProcessFileJob{}))
}
