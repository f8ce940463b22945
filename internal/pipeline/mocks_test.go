package pipeline_test

import (
	"context"
	"io"
	"time"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/infra/inmemory"
	"github.com/dvloznov/edi-processor/internal/store"
)

// MockBlobStore delegates to an in-memory store unless a Func override is set.
type MockBlobStore struct {
	*inmemory.BlobStore
	PutFunc func(ctx context.Context, r io.Reader, name string) (string, error)
	GetFunc func(ctx context.Context, location string) ([]byte, error)
}

func (m *MockBlobStore) Put(ctx context.Context, r io.Reader, name string) (string, error) {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, r, name)
	}
	return m.BlobStore.Put(ctx, r, name)
}

func (m *MockBlobStore) Get(ctx context.Context, location string) ([]byte, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, location)
	}
	return m.BlobStore.Get(ctx, location)
}

// MockRepository delegates to an in-memory repository unless a Func override is set.
type MockRepository struct {
	*inmemory.Repository
	CreateFileFunc        func(ctx context.Context, f *domain.File) error
	UpdateFileFunc        func(ctx context.Context, f *domain.File) error
	CreateTransactionFunc func(ctx context.Context, tx *domain.Transaction) error
	UpdateTransactionFunc func(ctx context.Context, tx *domain.Transaction) error
}

func (m *MockRepository) CreateFile(ctx context.Context, f *domain.File) error {
	if m.CreateFileFunc != nil {
		return m.CreateFileFunc(ctx, f)
	}
	return m.Repository.CreateFile(ctx, f)
}

func (m *MockRepository) UpdateFile(ctx context.Context, f *domain.File) error {
	if m.UpdateFileFunc != nil {
		return m.UpdateFileFunc(ctx, f)
	}
	return m.Repository.UpdateFile(ctx, f)
}

func (m *MockRepository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.CreateTransactionFunc != nil {
		return m.CreateTransactionFunc(ctx, tx)
	}
	return m.Repository.CreateTransaction(ctx, tx)
}

func (m *MockRepository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if m.UpdateTransactionFunc != nil {
		return m.UpdateTransactionFunc(ctx, tx)
	}
	return m.Repository.UpdateTransaction(ctx, tx)
}

func (m *MockRepository) transactionsFor(ctx context.Context, fileID string) []*domain.Transaction {
	txs, _ := m.ListTransactions(ctx, store.TransactionFilter{FileID: fileID})
	return txs
}

var fixedNow = time.Date(2024, 5, 17, 9, 30, 15, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

var storeFilterAll = store.FileFilter{}
