package bigquery

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

func TestFileRow_RoundTrip(t *testing.T) {
	received := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	processed := received.Add(time.Minute)

	tests := []struct {
		name string
		file *domain.File
	}{
		{
			name: "fresh file",
			file: &domain.File{
				ID: "f-1", FileName: "850_order.edi", Dialect: domain.DialectX12, TransactionType: "850",
				Source: domain.SourceAPI, ReceivedAt: received, Status: domain.FileStatusReceived,
				StorageLocation: "gs://edi-raw/2024/03/01/x/850_order.edi", SizeBytes: 120, ContentHash: "abc",
			},
		},
		{
			name: "processed file with error and account",
			file: &domain.File{
				ID: "f-2", FileName: "orders.edifact", Dialect: domain.DialectEDIFACT, TransactionType: "ORDERS",
				Source: domain.SourceSFTP, ReceivedAt: received, ProcessedAt: &processed, Status: domain.FileStatusError,
				ErrorMessage: "Missing UNH segment", StorageLocation: "gs://b/k", AccountID: "acct-9",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := fileRowFromDomain(tt.file)
			assert.Equal(t, tt.file.ProcessedAt != nil, row.ProcessedTS.Valid)
			assert.Equal(t, tt.file.ErrorMessage != "", row.ErrorMessage.Valid)
			assert.Equal(t, tt.file.AccountID != "", row.AccountID.Valid)
			assert.Equal(t, tt.file, row.toDomain())
		})
	}
}

func TestTransactionRow_RoundTrip(t *testing.T) {
	tx := &domain.Transaction{
		ID: "t-1", FileID: "f-1", TransactionType: "850", PartnerID: "AUTO_GENERATED",
		Status: domain.TransactionStatusReceived, ProcessedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Payload: `{"fileName": "a.edi"}`,
	}

	row := transactionRowFromDomain(tx)
	assert.True(t, row.JSONData.Valid)
	assert.False(t, row.ErrorMessage.Valid)
	assert.False(t, row.AccountID.Valid)
	assert.Equal(t, tx, row.toDomain())
}

func paramNames(params []bigquery.QueryParameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

func TestListFilesSQL(t *testing.T) {
	sql, params := listFilesSQL("edi", store.FileFilter{})
	assert.NotContains(t, sql, "WHERE")
	assert.Contains(t, sql, "FROM `edi.edi_files`")
	assert.Contains(t, sql, "ORDER BY received_ts DESC")
	assert.Equal(t, []string{"limit", "offset"}, paramNames(params))
	assert.Equal(t, int64(store.DefaultListLimit), params[0].Value)

	sql, params = listFilesSQL("edi", store.FileFilter{Status: domain.FileStatusReceived, AccountID: "a", Limit: 5, Offset: 10})
	assert.Contains(t, sql, "WHERE status = @status AND account_id = @account_id")
	assert.NotContains(t, sql, "file_name = @file_name")
	assert.Equal(t, []string{"status", "account_id", "limit", "offset"}, paramNames(params))
	assert.Equal(t, int64(5), params[2].Value)
	assert.Equal(t, int64(10), params[3].Value)
}

func TestListTransactionsSQL(t *testing.T) {
	sql, params := listTransactionsSQL("edi", store.TransactionFilter{FileID: "f-1", PartnerID: "PARTNER001", Offset: -3})
	assert.True(t, strings.Contains(sql, "WHERE file_id = @file_id AND partner_id = @partner_id"))
	assert.Contains(t, sql, "ORDER BY processed_ts DESC")
	assert.Equal(t, []string{"file_id", "partner_id", "limit", "offset"}, paramNames(params))
	assert.Equal(t, int64(0), params[3].Value, "negative offsets are clamped")
}
