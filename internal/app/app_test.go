package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/edi-processor/internal/config"
	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/infra/sqlite"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Log.Level = "disabled"
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	ctx := a.Context(context.Background())
	f, err := a.Service.IngestBytes(ctx, []byte("ISA*00~GS*PO~ST*850*0001~"), "850.edi", domain.SourceManual, "")
	require.NoError(t, err)

	got, err := a.Repo.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.StorageLocation, got.StorageLocation)
	assert.NotNil(t, a.ProcessHandler())
}

func TestOpenRepository_SQLite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Backend = config.StoreSQLite
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "edi.db")

	repo, err := OpenRepository(context.Background(), cfg)
	require.NoError(t, err)
	defer repo.Close()
	assert.IsType(t, &sqlite.Store{}, repo)
}

func TestOpen_UnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Blob.Backend = "azure"
	_, _, err := OpenBlobStore(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown blob backend")

	cfg.Store.Backend = "mongo"
	_, err = OpenRepository(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store backend")
}

func TestClose_Idempotent(t *testing.T) {
	a, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
