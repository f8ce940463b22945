package domain

import (
	"time"
)

// TransactionStatus is the lifecycle state of a transaction derived from a file.
//
//	Received -> Parsed -> Sent | Acknowledged
//
// Error is reachable from Received or Parsed.
type TransactionStatus string

const (
	TransactionStatusReceived     TransactionStatus = "Received"
	TransactionStatusParsed       TransactionStatus = "Parsed"
	TransactionStatusSent         TransactionStatus = "Sent"
	TransactionStatusAcknowledged TransactionStatus = "Acknowledged"
	TransactionStatusError        TransactionStatus = "Error"
)

// Transaction is the normalized record produced from a File. The pipeline creates
// exactly one per file at ingestion and updates it afterwards.
type Transaction struct {
	ID              string            `json:"id"`
	FileID          string            `json:"file_id"`
	TransactionType string            `json:"transaction_type"`
	PartnerID       string            `json:"partner_id"`
	Status          TransactionStatus `json:"status"`
	ErrorMessage    string            `json:"error_message,omitempty"`
	ProcessedAt     time.Time         `json:"processed_at"`

	// Payload is the serialized JSON of the extracted fields.
	Payload string `json:"json_data"`

	AccountID string `json:"account_id,omitempty"`
}
