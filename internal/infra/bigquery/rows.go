// Package bigquery persists EDI file and transaction records in BigQuery.
package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/edi-processor/internal/domain"
)

const (
	filesTable        = "edi_files"
	transactionsTable = "transactions"
)

type FileRow struct {
	FileID          string `bigquery:"file_id"`          // REQUIRED
	FileName        string `bigquery:"file_name"`        // REQUIRED
	FileType        string `bigquery:"file_type"`        // REQUIRED
	TransactionType string `bigquery:"transaction_type"` // REQUIRED
	Source          string `bigquery:"source"`           // REQUIRED

	ReceivedTS  time.Time              `bigquery:"received_ts"`  // REQUIRED
	ProcessedTS bigquery.NullTimestamp `bigquery:"processed_ts"` // NULLABLE

	Status       string              `bigquery:"status"`        // REQUIRED
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE

	StorageLocation string              `bigquery:"storage_location"` // REQUIRED
	SizeBytes       int64               `bigquery:"size_bytes"`
	ContentHash     string              `bigquery:"content_hash"`
	AccountID       bigquery.NullString `bigquery:"account_id"` // NULLABLE
}

type TransactionRow struct {
	TransactionID   string `bigquery:"transaction_id"`   // REQUIRED
	FileID          string `bigquery:"file_id"`          // REQUIRED
	TransactionType string `bigquery:"transaction_type"` // REQUIRED
	PartnerID       string `bigquery:"partner_id"`       // REQUIRED

	Status       string              `bigquery:"status"`        // REQUIRED
	ErrorMessage bigquery.NullString `bigquery:"error_message"` // NULLABLE
	ProcessedTS  time.Time           `bigquery:"processed_ts"`  // REQUIRED

	JSONData  bigquery.NullString `bigquery:"json_data"`  // NULLABLE, JSON text
	AccountID bigquery.NullString `bigquery:"account_id"` // NULLABLE
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func nullTimestamp(t *time.Time) bigquery.NullTimestamp {
	if t == nil {
		return bigquery.NullTimestamp{}
	}
	return bigquery.NullTimestamp{Timestamp: t.UTC(), Valid: true}
}

func fileRowFromDomain(f *domain.File) *FileRow {
	return &FileRow{
		FileID:          f.ID,
		FileName:        f.FileName,
		FileType:        string(f.Dialect),
		TransactionType: f.TransactionType,
		Source:          string(f.Source),
		ReceivedTS:      f.ReceivedAt.UTC(),
		ProcessedTS:     nullTimestamp(f.ProcessedAt),
		Status:          string(f.Status),
		ErrorMessage:    nullString(f.ErrorMessage),
		StorageLocation: f.StorageLocation,
		SizeBytes:       f.SizeBytes,
		ContentHash:     f.ContentHash,
		AccountID:       nullString(f.AccountID),
	}
}

func (r *FileRow) toDomain() *domain.File {
	f := &domain.File{
		ID:              r.FileID,
		FileName:        r.FileName,
		Dialect:         domain.Dialect(r.FileType),
		TransactionType: r.TransactionType,
		Source:          domain.Source(r.Source),
		ReceivedAt:      r.ReceivedTS,
		Status:          domain.FileStatus(r.Status),
		ErrorMessage:    r.ErrorMessage.StringVal,
		StorageLocation: r.StorageLocation,
		SizeBytes:       r.SizeBytes,
		ContentHash:     r.ContentHash,
		AccountID:       r.AccountID.StringVal,
	}
	if r.ProcessedTS.Valid {
		t := r.ProcessedTS.Timestamp
		f.ProcessedAt = &t
	}
	return f
}

func transactionRowFromDomain(tx *domain.Transaction) *TransactionRow {
	return &TransactionRow{
		TransactionID:   tx.ID,
		FileID:          tx.FileID,
		TransactionType: tx.TransactionType,
		PartnerID:       tx.PartnerID,
		Status:          string(tx.Status),
		ErrorMessage:    nullString(tx.ErrorMessage),
		ProcessedTS:     tx.ProcessedAt.UTC(),
		JSONData:        nullString(tx.Payload),
		AccountID:       nullString(tx.AccountID),
	}
}

func (r *TransactionRow) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID:              r.TransactionID,
		FileID:          r.FileID,
		TransactionType: r.TransactionType,
		PartnerID:       r.PartnerID,
		Status:          domain.TransactionStatus(r.Status),
		ErrorMessage:    r.ErrorMessage.StringVal,
		ProcessedAt:     r.ProcessedTS,
		Payload:         r.JSONData.StringVal,
		AccountID:       r.AccountID.StringVal,
	}
}
