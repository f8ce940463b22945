// Package models holds the gorm models for the postgres record store.
package models

import "time"

// File is one received EDI document.
type File struct {
	ID              string     `gorm:"column:id;primaryKey;type:varchar(36)"`
	FileName        string     `gorm:"column:file_name;type:varchar(512);not null;index"`
	FileType        string     `gorm:"column:file_type;type:varchar(10);not null"`
	TransactionType string     `gorm:"column:transaction_type;type:varchar(20);not null"`
	Source          string     `gorm:"column:source;type:varchar(10);not null"`
	ReceivedAt      time.Time  `gorm:"column:received_at;not null;index"`
	ProcessedAt     *time.Time `gorm:"column:processed_at"`
	Status          string     `gorm:"column:status;type:varchar(20);not null;index"`
	ErrorMessage    string     `gorm:"column:error_message;type:text"`
	StorageLocation string     `gorm:"column:storage_location;type:text;not null"`
	SizeBytes       int64      `gorm:"column:size_bytes"`
	ContentHash     string     `gorm:"column:content_hash;type:varchar(64)"`
	AccountID       string     `gorm:"column:account_id;type:varchar(64);index"`

	Transactions []Transaction `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE"`
}

func (File) TableName() string { return "edi_files" }

// Transaction is one business transaction derived from a File.
type Transaction struct {
	ID              string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	FileID          string    `gorm:"column:file_id;type:varchar(36);not null;index"`
	TransactionType string    `gorm:"column:transaction_type;type:varchar(20);not null"`
	PartnerID       string    `gorm:"column:partner_id;type:varchar(64);not null;index"`
	Status          string    `gorm:"column:status;type:varchar(20);not null;index"`
	ErrorMessage    string    `gorm:"column:error_message;type:text"`
	ProcessedAt     time.Time `gorm:"column:processed_at;not null"`
	JSONData        string    `gorm:"column:json_data;type:text"`
	AccountID       string    `gorm:"column:account_id;type:varchar(64);index"`
}

func (Transaction) TableName() string { return "transactions" }
