package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/edi"
)

// PipelineStep represents a single step in the ingestion pipeline.
type PipelineStep interface {
	Execute(ctx context.Context, state *IngestState) error
}

// IngestState holds the shared state across the ingestion steps.
type IngestState struct {
	Content   io.ReadSeeker
	FileName  string
	Source    domain.Source
	AccountID string

	ContentHash     string
	SizeBytes       int64
	StorageLocation string
	Dialect         domain.Dialect
	TransactionType string

	File        *domain.File
	Transaction *domain.Transaction
}

// withRewound runs fn with r positioned at the start and rewinds r again afterwards,
// whatever fn returns.
func withRewound(r io.ReadSeeker, fn func(io.Reader) error) (err error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding content: %w", err)
	}
	defer func() {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil && err == nil {
			err = fmt.Errorf("rewinding content: %w", seekErr)
		}
	}()
	return fn(r)
}

// Step 1: HashContentStep computes the SHA-256 digest and size of the content.
type HashContentStep struct{}

func (s *HashContentStep) Execute(ctx context.Context, state *IngestState) error {
	return withRewound(state.Content, func(r io.Reader) error {
		h := sha256.New()
		n, err := io.Copy(h, r)
		if err != nil {
			return fmt.Errorf("HashContentStep: reading content: %w", err)
		}
		state.ContentHash = hex.EncodeToString(h.Sum(nil))
		state.SizeBytes = n
		return nil
	})
}

// Step 2: StoreBlobStep hands the content to the blob store.
type StoreBlobStep struct {
	Blobs BlobStore
}

func (s *StoreBlobStep) Execute(ctx context.Context, state *IngestState) error {
	return withRewound(state.Content, func(r io.Reader) error {
		loc, err := s.Blobs.Put(ctx, r, state.FileName)
		if err != nil {
			return fmt.Errorf("StoreBlobStep: uploading %s: %w: %w", state.FileName, domain.ErrStorage, err)
		}
		state.StorageLocation = loc
		return nil
	})
}

// Step 3: ClassifyStep guesses dialect and transaction type from the file name.
type ClassifyStep struct {
	Classifier *edi.Classifier
}

func (s *ClassifyStep) Execute(ctx context.Context, state *IngestState) error {
	state.Dialect, state.TransactionType = s.Classifier.Classify(state.FileName)
	return nil
}

// Step 4: CreateFileStep persists the File record with status Received.
type CreateFileStep struct {
	Files FileStore
	Now   func() time.Time
}

func (s *CreateFileStep) Execute(ctx context.Context, state *IngestState) error {
	f := &domain.File{
		ID:              uuid.NewString(),
		FileName:        state.FileName,
		Dialect:         state.Dialect,
		TransactionType: state.TransactionType,
		Source:          state.Source,
		ReceivedAt:      s.Now().UTC(),
		Status:          domain.FileStatusReceived,
		StorageLocation: state.StorageLocation,
		SizeBytes:       state.SizeBytes,
		ContentHash:     state.ContentHash,
		AccountID:       state.AccountID,
	}
	if err := s.Files.CreateFile(ctx, f); err != nil {
		return fmt.Errorf("CreateFileStep: inserting file: %w: %w", domain.ErrStorage, err)
	}
	state.File = f
	return nil
}

// Step 5: CreateTransactionStep auto-creates the single Transaction of the new file.
type CreateTransactionStep struct {
	Transactions TransactionStore
	Registry     *edi.Registry
	Now          func() time.Time
}

func (s *CreateTransactionStep) Execute(ctx context.Context, state *IngestState) error {
	tx, err := newTransactionForFile(state.File, s.Registry, s.Now().UTC())
	if err != nil {
		return fmt.Errorf("CreateTransactionStep: %w", err)
	}
	if err := s.Transactions.CreateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("CreateTransactionStep: inserting transaction: %w: %w", domain.ErrStorage, err)
	}
	state.Transaction = tx
	return nil
}

func newTransactionForFile(f *domain.File, reg *edi.Registry, now time.Time) (*domain.Transaction, error) {
	payload, err := buildReceiptPayload(f, reg, now)
	if err != nil {
		return nil, err
	}
	return &domain.Transaction{
		ID:              uuid.NewString(),
		FileID:          f.ID,
		TransactionType: f.TransactionType,
		PartnerID:       PlaceholderPartnerID,
		Status:          domain.TransactionStatusReceived,
		ProcessedAt:     now,
		Payload:         payload,
		AccountID:       f.AccountID,
	}, nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps in the pipeline sequentially.
func (p *Pipeline) Execute(ctx context.Context, state *IngestState) error {
	for i, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d failed: %w", i+1, err)
		}
	}
	return nil
}
