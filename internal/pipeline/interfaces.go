package pipeline

import (
	"context"
	"io"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

// BlobStore is the part of blob.Store the pipeline needs.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, suggestedName string) (string, error)
	Get(ctx context.Context, location string) ([]byte, error)
	Delete(ctx context.Context, location string) (bool, error)
}

// FileStore is the file record store used by the pipeline.
type FileStore interface {
	CreateFile(ctx context.Context, f *domain.File) error
	UpdateFile(ctx context.Context, f *domain.File) error
	GetFile(ctx context.Context, id string) (*domain.File, error)
}

// TransactionStore is the transaction record store used by the pipeline.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error)
}
