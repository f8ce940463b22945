// Package postgres is a record store for files and transactions on PostgreSQL via gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/infra/postgres/models"
	"github.com/dvloznov/edi-processor/internal/store"
)

// PgErrUniqueViolation is the SQLSTATE for a duplicate key.
const PgErrUniqueViolation = "23505"

// ErrDuplicate reports an insert whose primary key already exists.
var ErrDuplicate = errors.New("record already exists")

// Store implements store.Repository on a gorm connection.
type Store struct {
	db *gorm.DB
}

// Open connects to dsn and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: connecting: %w", err)
	}
	s := NewWithDB(db)
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing gorm handle.
func NewWithDB(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the edi_files and transactions tables.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&models.File{}, &models.Transaction{}); err != nil {
		return fmt.Errorf("postgres.Migrate: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func translate(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == PgErrUniqueViolation {
		return fmt.Errorf("%s: %w: %w: %s", op, domain.ErrStorage, ErrDuplicate, pgErr.Detail)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

func fileModel(f *domain.File) *models.File {
	return &models.File{
		ID:              f.ID,
		FileName:        f.FileName,
		FileType:        string(f.Dialect),
		TransactionType: f.TransactionType,
		Source:          string(f.Source),
		ReceivedAt:      f.ReceivedAt.UTC(),
		ProcessedAt:     f.ProcessedAt,
		Status:          string(f.Status),
		ErrorMessage:    f.ErrorMessage,
		StorageLocation: f.StorageLocation,
		SizeBytes:       f.SizeBytes,
		ContentHash:     f.ContentHash,
		AccountID:       f.AccountID,
	}
}

func fileFromModel(m *models.File) *domain.File {
	return &domain.File{
		ID:              m.ID,
		FileName:        m.FileName,
		Dialect:         domain.Dialect(m.FileType),
		TransactionType: m.TransactionType,
		Source:          domain.Source(m.Source),
		ReceivedAt:      m.ReceivedAt,
		ProcessedAt:     m.ProcessedAt,
		Status:          domain.FileStatus(m.Status),
		ErrorMessage:    m.ErrorMessage,
		StorageLocation: m.StorageLocation,
		SizeBytes:       m.SizeBytes,
		ContentHash:     m.ContentHash,
		AccountID:       m.AccountID,
	}
}

func transactionModel(tx *domain.Transaction) *models.Transaction {
	return &models.Transaction{
		ID:              tx.ID,
		FileID:          tx.FileID,
		TransactionType: tx.TransactionType,
		PartnerID:       tx.PartnerID,
		Status:          string(tx.Status),
		ErrorMessage:    tx.ErrorMessage,
		ProcessedAt:     tx.ProcessedAt.UTC(),
		JSONData:        tx.Payload,
		AccountID:       tx.AccountID,
	}
}

func transactionFromModel(m *models.Transaction) *domain.Transaction {
	return &domain.Transaction{
		ID:              m.ID,
		FileID:          m.FileID,
		TransactionType: m.TransactionType,
		PartnerID:       m.PartnerID,
		Status:          domain.TransactionStatus(m.Status),
		ErrorMessage:    m.ErrorMessage,
		ProcessedAt:     m.ProcessedAt,
		Payload:         m.JSONData,
		AccountID:       m.AccountID,
	}
}

func (s *Store) CreateFile(ctx context.Context, f *domain.File) error {
	if err := s.db.WithContext(ctx).Create(fileModel(f)).Error; err != nil {
		return translate("CreateFile", err)
	}
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, f *domain.File) error {
	res := s.db.WithContext(ctx).Model(&models.File{ID: f.ID}).Select("*").Omit("id").Updates(fileModel(f))
	if res.Error != nil {
		return translate("UpdateFile", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateFile: file %s: %w", f.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetFile(ctx context.Context, id string) (*domain.File, error) {
	var m models.File
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate("GetFile", err)
	}
	return fileFromModel(&m), nil
}

func (s *Store) ListFiles(ctx context.Context, filter store.FileFilter) ([]*domain.File, error) {
	q := s.db.WithContext(ctx).Model(&models.File{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.FileName != "" {
		q = q.Where("file_name = ?", filter.FileName)
	}

	var rows []models.File
	err := q.Order("received_at DESC").Order("id DESC").
		Limit(store.EffectiveLimit(filter.Limit)).Offset(max(filter.Offset, 0)).
		Find(&rows).Error
	if err != nil {
		return nil, translate("ListFiles", err)
	}

	files := make([]*domain.File, 0, len(rows))
	for i := range rows {
		files = append(files, fileFromModel(&rows[i]))
	}
	return files, nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	if err := s.db.WithContext(ctx).Create(transactionModel(tx)).Error; err != nil {
		return translate("CreateTransaction", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	res := s.db.WithContext(ctx).Model(&models.Transaction{ID: tx.ID}).Select("*").Omit("id").Updates(transactionModel(tx))
	if res.Error != nil {
		return translate("UpdateTransaction", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	var m models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, translate("GetTransaction", err)
	}
	return transactionFromModel(&m), nil
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	q := s.db.WithContext(ctx).Model(&models.Transaction{})
	if filter.FileID != "" {
		q = q.Where("file_id = ?", filter.FileID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.AccountID != "" {
		q = q.Where("account_id = ?", filter.AccountID)
	}
	if filter.PartnerID != "" {
		q = q.Where("partner_id = ?", filter.PartnerID)
	}

	var rows []models.Transaction
	err := q.Order("processed_at DESC").Order("id DESC").
		Limit(store.EffectiveLimit(filter.Limit)).Offset(max(filter.Offset, 0)).
		Find(&rows).Error
	if err != nil {
		return nil, translate("ListTransactions", err)
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		txs = append(txs, transactionFromModel(&rows[i]))
	}
	return txs, nil
}

var _ store.Repository = (*Store)(nil)
