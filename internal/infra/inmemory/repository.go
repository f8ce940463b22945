package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

// Repository stores files and transactions in maps. Records are copied on the way
// in and out so callers never share memory with the store.
type Repository struct {
	mu           sync.RWMutex
	files        map[string]*domain.File
	transactions map[string]*domain.Transaction

	// insertion order, used as a tiebreak for equal timestamps
	fileSeq map[string]int
	txSeq   map[string]int
	seq     int
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		files:        make(map[string]*domain.File),
		transactions: make(map[string]*domain.Transaction),
		fileSeq:      make(map[string]int),
		txSeq:        make(map[string]int),
	}
}

func copyFile(f *domain.File) *domain.File {
	cp := *f
	if f.ProcessedAt != nil {
		t := *f.ProcessedAt
		cp.ProcessedAt = &t
	}
	return &cp
}

func copyTransaction(tx *domain.Transaction) *domain.Transaction {
	cp := *tx
	return &cp
}

// CreateFile implements store.FileRepository.
func (r *Repository) CreateFile(ctx context.Context, f *domain.File) error {
	if f.ID == "" {
		return fmt.Errorf("CreateFile: file ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.files[f.ID]; exists {
		return fmt.Errorf("CreateFile: file %s already exists", f.ID)
	}
	r.files[f.ID] = copyFile(f)
	r.seq++
	r.fileSeq[f.ID] = r.seq
	return nil
}

// UpdateFile implements store.FileRepository.
func (r *Repository) UpdateFile(ctx context.Context, f *domain.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.files[f.ID]; !exists {
		return fmt.Errorf("UpdateFile: file %s: %w", f.ID, domain.ErrNotFound)
	}
	r.files[f.ID] = copyFile(f)
	return nil
}

// GetFile implements store.FileRepository.
func (r *Repository) GetFile(ctx context.Context, id string) (*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, exists := r.files[id]
	if !exists {
		return nil, fmt.Errorf("GetFile: file %s: %w", id, domain.ErrNotFound)
	}
	return copyFile(f), nil
}

// ListFiles implements store.FileRepository.
func (r *Repository) ListFiles(ctx context.Context, filter store.FileFilter) ([]*domain.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.File
	for _, f := range r.files {
		if filter.Status != "" && f.Status != filter.Status {
			continue
		}
		if filter.AccountID != "" && f.AccountID != filter.AccountID {
			continue
		}
		if filter.FileName != "" && f.FileName != filter.FileName {
			continue
		}
		result = append(result, copyFile(f))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ReceivedAt.Equal(result[j].ReceivedAt) {
			return result[i].ReceivedAt.After(result[j].ReceivedAt)
		}
		return r.fileSeq[result[i].ID] > r.fileSeq[result[j].ID]
	})

	return page(result, filter.Offset, filter.Limit), nil
}

// CreateTransaction implements store.TransactionRepository.
func (r *Repository) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if tx.ID == "" {
		return fmt.Errorf("CreateTransaction: transaction ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transactions[tx.ID]; exists {
		return fmt.Errorf("CreateTransaction: transaction %s already exists", tx.ID)
	}
	r.transactions[tx.ID] = copyTransaction(tx)
	r.seq++
	r.txSeq[tx.ID] = r.seq
	return nil
}

// UpdateTransaction implements store.TransactionRepository.
func (r *Repository) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.transactions[tx.ID]; !exists {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	r.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

// GetTransaction implements store.TransactionRepository.
func (r *Repository) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, exists := r.transactions[id]
	if !exists {
		return nil, fmt.Errorf("GetTransaction: transaction %s: %w", id, domain.ErrNotFound)
	}
	return copyTransaction(tx), nil
}

// ListTransactions implements store.TransactionRepository.
func (r *Repository) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range r.transactions {
		if filter.FileID != "" && tx.FileID != filter.FileID {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if filter.AccountID != "" && tx.AccountID != filter.AccountID {
			continue
		}
		if filter.PartnerID != "" && tx.PartnerID != filter.PartnerID {
			continue
		}
		result = append(result, copyTransaction(tx))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].ProcessedAt.Equal(result[j].ProcessedAt) {
			return result[i].ProcessedAt.After(result[j].ProcessedAt)
		}
		return r.txSeq[result[i].ID] > r.txSeq[result[j].ID]
	})

	return page(result, filter.Offset, filter.Limit), nil
}

// Close implements store.Repository.
func (r *Repository) Close() error {
	return nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit := store.EffectiveLimit(limit); limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ store.Repository = (*Repository)(nil)
