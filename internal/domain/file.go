package domain

import (
	"fmt"
	"strings"
	"time"
)

// Dialect identifies the EDI document family.
type Dialect string

const (
	DialectX12     Dialect = "X12"
	DialectEDIFACT Dialect = "EDIFACT"
)

// Source records how a file entered the system.
type Source string

const (
	SourceSFTP   Source = "SFTP"
	SourceAPI    Source = "API"
	SourceManual Source = "Manual"
)

// ParseSource accepts a source name in any letter case.
func ParseSource(s string) (Source, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SFTP":
		return SourceSFTP, nil
	case "API":
		return SourceAPI, nil
	case "MANUAL":
		return SourceManual, nil
	default:
		return "", fmt.Errorf("unknown source %q (want SFTP, API or Manual)", s)
	}
}

// FileStatus is the lifecycle state of an ingested file.
//
//	Received -> Validated | Error
//	Validated -> Processed | Error
//
// Archived is set by external archival and never by the pipeline.
type FileStatus string

const (
	FileStatusReceived  FileStatus = "Received"
	FileStatusValidated FileStatus = "Validated"
	FileStatusProcessed FileStatus = "Processed"
	FileStatusError     FileStatus = "Error"
	FileStatusArchived  FileStatus = "Archived"
)

// File is one ingested EDI document.
type File struct {
	ID              string     `json:"id"`
	FileName        string     `json:"file_name"`
	Dialect         Dialect    `json:"file_type"`
	TransactionType string     `json:"transaction_type"`
	Source          Source     `json:"source"`
	ReceivedAt      time.Time  `json:"received_at"`
	ProcessedAt     *time.Time `json:"processed_at,omitempty"`
	Status          FileStatus `json:"status"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	StorageLocation string     `json:"storage_location"`
	SizeBytes       int64      `json:"size_bytes"`

	// ContentHash is the hex SHA-256 of the stored bytes, computed once at ingestion.
	ContentHash string `json:"content_hash"`

	AccountID string `json:"account_id,omitempty"`
}

// MarkError moves the file to Error with the given message.
func (f *File) MarkError(msg string) {
	f.Status = FileStatusError
	f.ErrorMessage = msg
}
