package postgres

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/dvloznov/edi-processor/internal/domain"
)

func TestFileModel_RoundTrip(t *testing.T) {
	processed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f := &domain.File{
		ID: "f-1", FileName: "orders.edifact", Dialect: domain.DialectEDIFACT, TransactionType: "ORDERS",
		Source: domain.SourceSFTP, ReceivedAt: processed.Add(-time.Minute), ProcessedAt: &processed,
		Status: domain.FileStatusProcessed, StorageLocation: "s3://b/k", SizeBytes: 9, ContentHash: "h",
		AccountID: "acct",
	}

	m := fileModel(f)
	assert.Equal(t, "EDIFACT", m.FileType)
	assert.Equal(t, "edi_files", m.TableName())
	assert.Equal(t, f, fileFromModel(m))
}

func TestTransactionModel_RoundTrip(t *testing.T) {
	tx := &domain.Transaction{
		ID: "t-1", FileID: "f-1", TransactionType: "997", PartnerID: "PARTNER001",
		Status: domain.TransactionStatusAcknowledged, ProcessedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload: "{}",
	}

	m := transactionModel(tx)
	assert.Equal(t, "{}", m.JSONData)
	assert.Equal(t, "transactions", m.TableName())
	assert.Equal(t, tx, transactionFromModel(m))
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		err  error
		is   []error
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, is: []error{domain.ErrNotFound}},
		{name: "unique violation", err: &pgconn.PgError{Code: PgErrUniqueViolation, Detail: "Key (id)=(f-1) already exists."}, is: []error{domain.ErrStorage, ErrDuplicate}},
		{name: "other pg error", err: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "08006"}), is: []error{domain.ErrStorage}},
		{name: "plain error", err: errors.New("boom"), is: []error{domain.ErrStorage}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translate("Op", tt.err)
			for _, target := range tt.is {
				assert.ErrorIs(t, got, target)
			}
			assert.Contains(t, got.Error(), "Op: ")
		})
	}
}
