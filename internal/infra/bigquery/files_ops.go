package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

const fileColumns = `
			file_id,
			file_name,
			file_type,
			transaction_type,
			source,
			received_ts,
			processed_ts,
			status,
			error_message,
			storage_location,
			size_bytes,
			content_hash,
			account_id`

func fileParams(row *FileRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "file_id", Value: row.FileID},
		{Name: "file_name", Value: row.FileName},
		{Name: "file_type", Value: row.FileType},
		{Name: "transaction_type", Value: row.TransactionType},
		{Name: "source", Value: row.Source},
		{Name: "received_ts", Value: row.ReceivedTS},
		{Name: "processed_ts", Value: row.ProcessedTS},
		{Name: "status", Value: row.Status},
		{Name: "error_message", Value: row.ErrorMessage},
		{Name: "storage_location", Value: row.StorageLocation},
		{Name: "size_bytes", Value: row.SizeBytes},
		{Name: "content_hash", Value: row.ContentHash},
		{Name: "account_id", Value: row.AccountID},
	}
}

// InsertFileWithClient inserts one row into edi_files.
func InsertFileWithClient(ctx context.Context, client *bigquery.Client, dataset string, f *domain.File) error {
	sql := fmt.Sprintf(`
		INSERT %s (%s
		)
		VALUES (
			@file_id,
			@file_name,
			@file_type,
			@transaction_type,
			@source,
			@received_ts,
			@processed_ts,
			@status,
			@error_message,
			@storage_location,
			@size_bytes,
			@content_hash,
			@account_id
		)
	`, tableRef(dataset, filesTable), fileColumns)

	if _, err := runDML(ctx, client, "InsertFile", sql, fileParams(fileRowFromDomain(f))); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

// UpdateFileWithClient overwrites the mutable columns of an edi_files row.
func UpdateFileWithClient(ctx context.Context, client *bigquery.Client, dataset string, f *domain.File) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET file_name = @file_name,
		    file_type = @file_type,
		    transaction_type = @transaction_type,
		    source = @source,
		    received_ts = @received_ts,
		    processed_ts = @processed_ts,
		    status = @status,
		    error_message = @error_message,
		    storage_location = @storage_location,
		    size_bytes = @size_bytes,
		    content_hash = @content_hash,
		    account_id = @account_id
		WHERE file_id = @file_id
	`, tableRef(dataset, filesTable))

	affected, err := runDML(ctx, client, "UpdateFile", sql, fileParams(fileRowFromDomain(f)))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateFile: file %s: %w", f.ID, domain.ErrNotFound)
	}
	return nil
}

// GetFileWithClient reads one edi_files row by id.
func GetFileWithClient(ctx context.Context, client *bigquery.Client, dataset, id string) (*domain.File, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE file_id = @file_id
		LIMIT 1
	`, fileColumns, tableRef(dataset, filesTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "file_id", Value: id}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetFile: reading query: %w: %w", domain.ErrStorage, err)
	}

	var row FileRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetFile: file %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetFile: iterating: %w: %w", domain.ErrStorage, err)
	}
	return row.toDomain(), nil
}

func listFilesSQL(dataset string, filter store.FileFilter) (string, []bigquery.QueryParameter) {
	var c conditions
	c.eq("status", string(filter.Status))
	c.eq("account_id", filter.AccountID)
	c.eq("file_name", filter.FileName)
	where := c.where()
	page := c.page(filter.Limit, filter.Offset)

	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY received_ts DESC
		%s
	`, fileColumns, tableRef(dataset, filesTable), where, page)
	return sql, c.params
}

// ListFilesWithClient reads edi_files rows matching filter, newest first.
func ListFilesWithClient(ctx context.Context, client *bigquery.Client, dataset string, filter store.FileFilter) ([]*domain.File, error) {
	sql, params := listFilesSQL(dataset, filter)
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListFiles: reading query: %w: %w", domain.ErrStorage, err)
	}

	var files []*domain.File
	for {
		var row FileRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListFiles: iterating: %w: %w", domain.ErrStorage, err)
		}
		files = append(files, row.toDomain())
	}
	return files, nil
}
