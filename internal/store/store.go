// Package store defines the record stores for files and transactions.
package store

import (
	"context"

	"github.com/dvloznov/edi-processor/internal/domain"
)

// FileRepository persists File records. GetFile returns domain.ErrNotFound for an unknown id.
type FileRepository interface {
	CreateFile(ctx context.Context, f *domain.File) error
	UpdateFile(ctx context.Context, f *domain.File) error
	GetFile(ctx context.Context, id string) (*domain.File, error)
	ListFiles(ctx context.Context, filter FileFilter) ([]*domain.File, error)
}

// TransactionRepository persists Transaction records.
type TransactionRepository interface {
	CreateTransaction(ctx context.Context, tx *domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx *domain.Transaction) error
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*domain.Transaction, error)
}

// Repository groups both record stores, as returned by each backend.
type Repository interface {
	FileRepository
	TransactionRepository
	Close() error
}

// FileFilter narrows ListFiles. Zero values match everything. Results are newest first.
type FileFilter struct {
	Status    domain.FileStatus
	AccountID string
	FileName  string
	Limit     int
	Offset    int
}

// TransactionFilter narrows ListTransactions. Results are newest first.
type TransactionFilter struct {
	FileID    string
	Status    domain.TransactionStatus
	AccountID string
	PartnerID string
	Limit     int
	Offset    int
}

// DefaultListLimit caps list queries that do not set a limit.
const DefaultListLimit = 100

// EffectiveLimit returns limit, or DefaultListLimit when it is not positive.
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
