package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "edi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

var base = time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)

func testFile(id string, offset time.Duration, status domain.FileStatus) *domain.File {
	return &domain.File{
		ID:              id,
		FileName:        id + ".edi",
		Dialect:         domain.DialectX12,
		TransactionType: "850",
		Source:          domain.SourceAPI,
		ReceivedAt:      base.Add(offset),
		Status:          status,
		StorageLocation: "mem://local/" + id,
		SizeBytes:       42,
		ContentHash:     "hash-" + id,
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edi.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	var versions int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
	assert.Equal(t, path, s.Path())
}

func TestFiles_CRUD(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	f := testFile("f-1", 0, domain.FileStatusReceived)
	require.NoError(t, s.CreateFile(ctx, f))
	assert.Error(t, s.CreateFile(ctx, f), "duplicate id")

	got, err := s.GetFile(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, f, got)
	assert.Nil(t, got.ProcessedAt)

	processed := base.Add(time.Minute)
	got.Status = domain.FileStatusProcessed
	got.ProcessedAt = &processed
	got.AccountID = "acct-1"
	require.NoError(t, s.UpdateFile(ctx, got))

	again, err := s.GetFile(ctx, "f-1")
	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusProcessed, again.Status)
	require.NotNil(t, again.ProcessedAt)
	assert.True(t, processed.Equal(*again.ProcessedAt))
	assert.Equal(t, "acct-1", again.AccountID)

	_, err = s.GetFile(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateFile(ctx, testFile("missing", 0, domain.FileStatusReceived)), domain.ErrNotFound)
}

func TestFiles_List(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)

	require.NoError(t, s.CreateFile(ctx, testFile("old", 0, domain.FileStatusReceived)))
	require.NoError(t, s.CreateFile(ctx, testFile("mid", time.Hour, domain.FileStatusError)))
	require.NoError(t, s.CreateFile(ctx, testFile("new", 2*time.Hour, domain.FileStatusReceived)))

	tests := []struct {
		name   string
		filter store.FileFilter
		want   []string
	}{
		{name: "all newest first", filter: store.FileFilter{}, want: []string{"new", "mid", "old"}},
		{name: "by status", filter: store.FileFilter{Status: domain.FileStatusReceived}, want: []string{"new", "old"}},
		{name: "by name", filter: store.FileFilter{FileName: "mid.edi"}, want: []string{"mid"}},
		{name: "paged", filter: store.FileFilter{Limit: 1, Offset: 1}, want: []string{"mid"}},
		{name: "no match", filter: store.FileFilter{AccountID: "nobody"}, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := s.ListFiles(ctx, tt.filter)
			require.NoError(t, err)
			var ids []string
			for _, f := range files {
				ids = append(ids, f.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestTransactions_CRUDAndList(t *testing.T) {
	ctx := context.Background()
	s := setupTestStore(t)
	require.NoError(t, s.CreateFile(ctx, testFile("f-1", 0, domain.FileStatusReceived)))

	first := &domain.Transaction{
		ID: "t-1", FileID: "f-1", TransactionType: "850", PartnerID: "AUTO_GENERATED",
		Status: domain.TransactionStatusReceived, ProcessedAt: base, Payload: `{"a":1}`,
	}
	second := &domain.Transaction{
		ID: "t-2", FileID: "f-1", TransactionType: "850", PartnerID: "PARTNER001",
		Status: domain.TransactionStatusParsed, ProcessedAt: base.Add(time.Second),
	}
	require.NoError(t, s.CreateTransaction(ctx, first))
	require.NoError(t, s.CreateTransaction(ctx, second))

	orphan := &domain.Transaction{ID: "t-3", FileID: "nope", ProcessedAt: base}
	assert.ErrorIs(t, s.CreateTransaction(ctx, orphan), domain.ErrStorage, "file must exist")

	got, err := s.GetTransaction(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got.Status = domain.TransactionStatusAcknowledged
	require.NoError(t, s.UpdateTransaction(ctx, got))

	list, err := s.ListTransactions(ctx, store.TransactionFilter{FileID: "f-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t-2", list[0].ID)
	assert.Equal(t, domain.TransactionStatusAcknowledged, list[1].Status)

	byPartner, err := s.ListTransactions(ctx, store.TransactionFilter{PartnerID: "PARTNER001"})
	require.NoError(t, err)
	require.Len(t, byPartner, 1)
	assert.Equal(t, "t-2", byPartner[0].ID)

	_, err = s.GetTransaction(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.UpdateTransaction(ctx, orphan), domain.ErrNotFound)
}
