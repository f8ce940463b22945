package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

// Repository implements store.Repository over one BigQuery dataset.
// It holds a shared client so each operation reuses the same connection.
type Repository struct {
	client  *bigquery.Client
	dataset string
}

// NewRepository creates a client for project and targets dataset.
func NewRepository(ctx context.Context, project, dataset string) (*Repository, error) {
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("NewRepository: creating client: %w", err)
	}
	return NewRepositoryWithClient(client, dataset), nil
}

// NewRepositoryWithClient wraps an existing client.
func NewRepositoryWithClient(client *bigquery.Client, dataset string) *Repository {
	return &Repository{client: client, dataset: dataset}
}

// Close closes the BigQuery client connection.
func (r *Repository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

func (r *Repository) CreateFile(ctx context.Context, f *domain.File) error {
	return InsertFileWithClient(ctx, r.client, r.dataset, f)
}

func (r *Repository) UpdateFile(ctx context.Context, f *domain.File) error {
	return UpdateFileWithClient(ctx, r.client, r.dataset, f)
}

func (r *Repository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	return GetFileWithClient(ctx, r.client, r.dataset, id)
}

func (r *Repository) ListFiles(ctx context.Context, filter store.FileFilter) ([]*domain.File, error) {
	return ListFilesWithClient(ctx, r.client, r.dataset, filter)
}

func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return InsertTransactionWithClient(ctx, r.client, r.dataset, tx)
}

func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	return UpdateTransactionWithClient(ctx, r.client, r.dataset, tx)
}

func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return GetTransactionWithClient(ctx, r.client, r.dataset, id)
}

func (r *Repository) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	return ListTransactionsWithClient(ctx, r.client, r.dataset, filter)
}

var _ store.Repository = (*Repository)(nil)
