package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/store"
)

const transactionColumns = `
			transaction_id,
			file_id,
			transaction_type,
			partner_id,
			status,
			error_message,
			processed_ts,
			json_data,
			account_id`

func transactionParams(row *TransactionRow) []bigquery.QueryParameter {
	return []bigquery.QueryParameter{
		{Name: "transaction_id", Value: row.TransactionID},
		{Name: "file_id", Value: row.FileID},
		{Name: "transaction_type", Value: row.TransactionType},
		{Name: "partner_id", Value: row.PartnerID},
		{Name: "status", Value: row.Status},
		{Name: "error_message", Value: row.ErrorMessage},
		{Name: "processed_ts", Value: row.ProcessedTS},
		{Name: "json_data", Value: row.JSONData},
		{Name: "account_id", Value: row.AccountID},
	}
}

// InsertTransactionWithClient inserts one row into transactions.
// Rows go through DML rather than the streaming API so later UPDATEs can reach them.
func InsertTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset string, tx *domain.Transaction) error {
	sql := fmt.Sprintf(`
		INSERT %s (%s
		)
		VALUES (
			@transaction_id,
			@file_id,
			@transaction_type,
			@partner_id,
			@status,
			@error_message,
			@processed_ts,
			@json_data,
			@account_id
		)
	`, tableRef(dataset, transactionsTable), transactionColumns)

	if _, err := runDML(ctx, client, "InsertTransaction", sql, transactionParams(transactionRowFromDomain(tx))); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	return nil
}

// UpdateTransactionWithClient overwrites the mutable columns of a transactions row.
func UpdateTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset string, tx *domain.Transaction) error {
	sql := fmt.Sprintf(`
		UPDATE %s
		SET file_id = @file_id,
		    transaction_type = @transaction_type,
		    partner_id = @partner_id,
		    status = @status,
		    error_message = @error_message,
		    processed_ts = @processed_ts,
		    json_data = @json_data,
		    account_id = @account_id
		WHERE transaction_id = @transaction_id
	`, tableRef(dataset, transactionsTable))

	affected, err := runDML(ctx, client, "UpdateTransaction", sql, transactionParams(transactionRowFromDomain(tx)))
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}
	if affected == 0 {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	return nil
}

// GetTransactionWithClient reads one transactions row by id.
func GetTransactionWithClient(ctx context.Context, client *bigquery.Client, dataset, id string) (*domain.Transaction, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE transaction_id = @transaction_id
		LIMIT 1
	`, transactionColumns, tableRef(dataset, transactionsTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "transaction_id", Value: id}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: reading query: %w: %w", domain.ErrStorage, err)
	}

	var row TransactionRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetTransaction: transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetTransaction: iterating: %w: %w", domain.ErrStorage, err)
	}
	return row.toDomain(), nil
}

func listTransactionsSQL(dataset string, filter store.TransactionFilter) (string, []bigquery.QueryParameter) {
	var c conditions
	c.eq("file_id", filter.FileID)
	c.eq("status", string(filter.Status))
	c.eq("account_id", filter.AccountID)
	c.eq("partner_id", filter.PartnerID)
	where := c.where()
	page := c.page(filter.Limit, filter.Offset)

	sql := fmt.Sprintf(`
		SELECT %s
		FROM %s
		%s
		ORDER BY processed_ts DESC
		%s
	`, transactionColumns, tableRef(dataset, transactionsTable), where, page)
	return sql, c.params
}

// ListTransactionsWithClient reads transactions rows matching filter, newest first.
func ListTransactionsWithClient(ctx context.Context, client *bigquery.Client, dataset string, filter store.TransactionFilter) ([]*domain.Transaction, error) {
	sql, params := listTransactionsSQL(dataset, filter)
	q := client.Query(sql)
	q.Parameters = params

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: reading query: %w: %w", domain.ErrStorage, err)
	}

	var txs []*domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactions: iterating: %w: %w", domain.ErrStorage, err)
		}
		txs = append(txs, row.toDomain())
	}
	return txs, nil
}
