package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/pipeline"
)

func TestProcessFileHandler(t *testing.T) {
	ctx := testContext()

	t.Run("valid file completes with transaction", func(t *testing.T) {
		fx := newFixture()
		f, err := fx.svc.IngestBytes(ctx, []byte(x12Order), "850.edi", domain.SourceAPI, "")
		require.NoError(t, err)

		handler := pipeline.NewProcessFileHandler(fx.svc, fx.repo)
		job := &jobs.ProcessFileJob{JobID: "j1", FileID: f.ID}
		require.NoError(t, handler(ctx, job))

		assert.NotEmpty(t, job.TransactionID)
		assert.Equal(t, string(domain.FileStatusProcessed), job.Outcome)
		stored, _ := fx.repo.GetFile(ctx, f.ID)
		assert.Equal(t, domain.FileStatusProcessed, stored.Status)
	})

	t.Run("invalid file completes without retry", func(t *testing.T) {
		fx := newFixture()
		f, err := fx.svc.IngestBytes(ctx, []byte("garbage"), "850.edi", domain.SourceAPI, "")
		require.NoError(t, err)

		handler := pipeline.NewProcessFileHandler(fx.svc, fx.repo)
		job := &jobs.ProcessFileJob{JobID: "j2", FileID: f.ID}
		require.NoError(t, handler(ctx, job))
		assert.Empty(t, job.TransactionID)
		assert.Contains(t, job.Outcome, "Missing ISA header")
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		fx := newFixture()
		f, err := fx.svc.IngestBytes(ctx, []byte(x12Order), "850.edi", domain.SourceAPI, "")
		require.NoError(t, err)
		fx.blobs.GetFunc = func(ctx context.Context, location string) ([]byte, error) {
			return nil, errors.New("timeout")
		}

		handler := pipeline.NewProcessFileHandler(fx.svc, fx.repo)
		err = handler(ctx, &jobs.ProcessFileJob{JobID: "j3", FileID: f.ID})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrStorage)
	})

	t.Run("unknown file", func(t *testing.T) {
		fx := newFixture()
		handler := pipeline.NewProcessFileHandler(fx.svc, fx.repo)
		err := handler(ctx, &jobs.ProcessFileJob{JobID: "j4", FileID: "missing"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
