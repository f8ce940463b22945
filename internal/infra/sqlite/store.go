// Package sqlite is a single-node record store for files and transactions.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/infra/sqlite/migrations"
	"github.com/dvloznov/edi-processor/internal/store"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements store.Repository on a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite.Open: creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("sqlite.Open: opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.Open: running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorage, err)
}

// where joins "col = ?" clauses for the non-empty values.
func where(pairs ...string) (string, []any) {
	var clauses []string
	var args []any
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		clauses = append(clauses, pairs[i]+" = ?")
		args = append(args, pairs[i+1])
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// ==================== Files ====================

const fileColumns = `id, file_name, file_type, transaction_type, source, received_at, processed_at,
	status, error_message, storage_location, size_bytes, content_hash, account_id`

func fileArgs(f *domain.File) []any {
	var processed sql.NullString
	if f.ProcessedAt != nil {
		processed = sql.NullString{String: formatTime(*f.ProcessedAt), Valid: true}
	}
	return []any{
		f.FileName, string(f.Dialect), f.TransactionType, string(f.Source), formatTime(f.ReceivedAt), processed,
		string(f.Status), f.ErrorMessage, f.StorageLocation, f.SizeBytes, f.ContentHash, f.AccountID, f.ID,
	}
}

func (s *Store) CreateFile(ctx context.Context, f *domain.File) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edi_files (file_name, file_type, transaction_type, source, received_at, processed_at,
			status, error_message, storage_location, size_bytes, content_hash, account_id, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, fileArgs(f)...)
	if err != nil {
		return storageErr("CreateFile", err)
	}
	return nil
}

func (s *Store) UpdateFile(ctx context.Context, f *domain.File) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE edi_files SET file_name = ?, file_type = ?, transaction_type = ?, source = ?, received_at = ?,
			processed_at = ?, status = ?, error_message = ?, storage_location = ?, size_bytes = ?,
			content_hash = ?, account_id = ?
		WHERE id = ?
	`, fileArgs(f)...)
	if err != nil {
		return storageErr("UpdateFile", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("UpdateFile: file %s: %w", f.ID, domain.ErrNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*domain.File, error) {
	var (
		f                  domain.File
		dialect, source    string
		status, receivedAt string
		processedAt        sql.NullString
	)
	if err := row.Scan(&f.ID, &f.FileName, &dialect, &f.TransactionType, &source, &receivedAt, &processedAt,
		&status, &f.ErrorMessage, &f.StorageLocation, &f.SizeBytes, &f.ContentHash, &f.AccountID); err != nil {
		return nil, err
	}
	f.Dialect = domain.Dialect(dialect)
	f.Source = domain.Source(source)
	f.Status = domain.FileStatus(status)

	t, err := parseTime(receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing received_at: %w", err)
	}
	f.ReceivedAt = t
	if processedAt.Valid {
		t, err := parseTime(processedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parsing processed_at: %w", err)
		}
		f.ProcessedAt = &t
	}
	return &f, nil
}

func (s *Store) GetFile(ctx context.Context, id string) (*domain.File, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fileColumns+" FROM edi_files WHERE id = ?", id)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetFile: file %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("GetFile", err)
	}
	return f, nil
}

func (s *Store) ListFiles(ctx context.Context, filter store.FileFilter) ([]*domain.File, error) {
	clause, args := where(
		"status", string(filter.Status),
		"account_id", filter.AccountID,
		"file_name", filter.FileName,
	)
	args = append(args, store.EffectiveLimit(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+fileColumns+" FROM edi_files"+clause+" ORDER BY received_at DESC, rowid DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, storageErr("ListFiles", err)
	}
	defer rows.Close()

	var files []*domain.File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, storageErr("ListFiles", err)
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListFiles", err)
	}
	return files, nil
}

// ==================== Transactions ====================

const transactionColumns = `id, file_id, transaction_type, partner_id, status, error_message, processed_at,
	json_data, account_id`

func transactionArgs(tx *domain.Transaction) []any {
	return []any{
		tx.FileID, tx.TransactionType, tx.PartnerID, string(tx.Status), tx.ErrorMessage,
		formatTime(tx.ProcessedAt), tx.Payload, tx.AccountID, tx.ID,
	}
}

func (s *Store) CreateTransaction(ctx context.Context, tx *domain.Transaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (file_id, transaction_type, partner_id, status, error_message, processed_at,
			json_data, account_id, id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, transactionArgs(tx)...)
	if err != nil {
		return storageErr("CreateTransaction", err)
	}
	return nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx *domain.Transaction) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET file_id = ?, transaction_type = ?, partner_id = ?, status = ?, error_message = ?,
			processed_at = ?, json_data = ?, account_id = ?
		WHERE id = ?
	`, transactionArgs(tx)...)
	if err != nil {
		return storageErr("UpdateTransaction", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	return nil
}

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var (
		tx                  domain.Transaction
		status, processedAt string
	)
	if err := row.Scan(&tx.ID, &tx.FileID, &tx.TransactionType, &tx.PartnerID, &status, &tx.ErrorMessage,
		&processedAt, &tx.Payload, &tx.AccountID); err != nil {
		return nil, err
	}
	tx.Status = domain.TransactionStatus(status)
	t, err := parseTime(processedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing processed_at: %w", err)
	}
	tx.ProcessedAt = t
	return &tx, nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE id = ?", id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetTransaction: transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storageErr("GetTransaction", err)
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	clause, args := where(
		"file_id", filter.FileID,
		"status", string(filter.Status),
		"account_id", filter.AccountID,
		"partner_id", filter.PartnerID,
	)
	args = append(args, store.EffectiveLimit(filter.Limit), max(filter.Offset, 0))

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions"+clause+" ORDER BY processed_at DESC, rowid DESC LIMIT ? OFFSET ?", args...)
	if err != nil {
		return nil, storageErr("ListTransactions", err)
	}
	defer rows.Close()

	var txs []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, storageErr("ListTransactions", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("ListTransactions", err)
	}
	return txs, nil
}

var _ store.Repository = (*Store)(nil)
