package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/jobs"
	"github.com/dvloznov/edi-processor/internal/logger"
)

// FileGetter loads a file by id.
type FileGetter interface {
	GetFile(ctx context.Context, id string) (*domain.File, error)
}

// NewProcessFileHandler returns the job handler for ProcessFileJob. A file that
// fails the structural check completes the job; storage and parse failures are
// returned so the queue retries.
func NewProcessFileHandler(svc *Service, files FileGetter) jobs.JobHandler {
	return func(ctx context.Context, job jobs.Job) error {
		j, ok := job.(*jobs.ProcessFileJob)
		if !ok {
			return fmt.Errorf("unsupported job type %q", job.GetType())
		}

		log := logger.FromContext(ctx).With().Str("job_id", j.JobID).Str("file_id", j.FileID).Logger()
		ctx = logger.WithContext(ctx, log)

		f, err := files.GetFile(ctx, j.FileID)
		if err != nil {
			return fmt.Errorf("ProcessFileJob: loading file: %w", err)
		}

		tx, err := svc.Process(ctx, f)
		if err != nil {
			if IsStructuralFailure(err) {
				j.Outcome = f.ErrorMessage
				log.Info().Str("errors", f.ErrorMessage).Msg("File failed validation")
				return nil
			}
			return fmt.Errorf("ProcessFileJob: %w", err)
		}

		j.TransactionID = tx.ID
		j.Outcome = string(f.Status)
		return nil
	}
}
