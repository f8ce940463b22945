package inmemory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

func TestBlobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewBlobStore("test")

	loc, err := s.Put(ctx, strings.NewReader("ISA*00~"), "850.edi")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(loc, "mem://test/"))
	assert.True(t, strings.HasSuffix(loc, "/850.edi"))

	data, err := s.Get(ctx, loc)
	require.NoError(t, err)
	assert.Equal(t, "ISA*00~", string(data))

	url, err := s.SignedURL(ctx, loc, time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=")

	deleted, err := s.Delete(ctx, loc)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, loc)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Get(ctx, loc)
	assert.Error(t, err)

	_, err = s.Get(ctx, "mem://other/key")
	assert.Error(t, err)
}

func TestRepository_Files(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, status := range []domain.FileStatus{domain.FileStatusReceived, domain.FileStatusValidated, domain.FileStatusReceived} {
		require.NoError(t, r.CreateFile(ctx, &domain.File{
			ID:         string(rune('a' + i)),
			FileName:   "850.edi",
			Status:     status,
			ReceivedAt: base.Add(time.Duration(i) * time.Minute),
			AccountID:  "acct",
		}))
	}

	assert.Error(t, r.CreateFile(ctx, &domain.File{ID: "a"}))

	got, err := r.GetFile(ctx, "b")
	require.NoError(t, err)
	got.Status = domain.FileStatusError
	stored, _ := r.GetFile(ctx, "b")
	assert.Equal(t, domain.FileStatusValidated, stored.Status, "returned record must be a copy")

	require.NoError(t, r.UpdateFile(ctx, got))
	stored, _ = r.GetFile(ctx, "b")
	assert.Equal(t, domain.FileStatusError, stored.Status)

	received, err := r.ListFiles(ctx, store.FileFilter{Status: domain.FileStatusReceived})
	require.NoError(t, err)
	require.Len(t, received, 2)
	assert.Equal(t, "c", received[0].ID, "newest first")
	assert.Equal(t, "a", received[1].ID)

	paged, err := r.ListFiles(ctx, store.FileFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "b", paged[0].ID)

	_, err = r.GetFile(ctx, "zzz")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(r.UpdateFile(ctx, &domain.File{ID: "zzz"}), domain.ErrNotFound))
}

func TestRepository_Transactions(t *testing.T) {
	ctx := context.Background()
	r := NewRepository()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.CreateTransaction(ctx, &domain.Transaction{ID: "t1", FileID: "f1", PartnerID: "AUTO_GENERATED", Status: domain.TransactionStatusReceived, ProcessedAt: at}))
	require.NoError(t, r.CreateTransaction(ctx, &domain.Transaction{ID: "t2", FileID: "f2", PartnerID: "PARTNER001", Status: domain.TransactionStatusParsed, ProcessedAt: at}))

	byFile, err := r.ListTransactions(ctx, store.TransactionFilter{FileID: "f1"})
	require.NoError(t, err)
	require.Len(t, byFile, 1)
	assert.Equal(t, "t1", byFile[0].ID)

	byPartner, err := r.ListTransactions(ctx, store.TransactionFilter{PartnerID: "PARTNER001"})
	require.NoError(t, err)
	require.Len(t, byPartner, 1)
	assert.Equal(t, "t2", byPartner[0].ID)

	all, err := r.ListTransactions(ctx, store.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t2", all[0].ID, "equal timestamps fall back to insertion order, newest first")

	_, err = r.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
