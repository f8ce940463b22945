package bigquery

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/edi-processor/internal/store"
)

// conditions accumulates WHERE clauses and their named parameters.
type conditions struct {
	clauses []string
	params  []bigquery.QueryParameter
}

// eq adds "column = @column" when value is non-empty.
func (c *conditions) eq(column, value string) {
	if value == "" {
		return
	}
	c.clauses = append(c.clauses, fmt.Sprintf("%s = @%s", column, column))
	c.params = append(c.params, bigquery.QueryParameter{Name: column, Value: value})
}

func (c *conditions) where() string {
	if len(c.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(c.clauses, " AND ")
}

// page appends LIMIT/OFFSET parameters and returns the clause.
func (c *conditions) page(limit, offset int) string {
	c.params = append(c.params,
		bigquery.QueryParameter{Name: "limit", Value: int64(store.EffectiveLimit(limit))},
		bigquery.QueryParameter{Name: "offset", Value: int64(max(offset, 0))},
	)
	return "LIMIT @limit OFFSET @offset"
}

func tableRef(dataset, table string) string {
	return fmt.Sprintf("`%s.%s`", dataset, table)
}

// runDML runs a parameterized DML statement and returns the affected row count.
func runDML(ctx context.Context, client *bigquery.Client, op, sql string, params []bigquery.QueryParameter) (int64, error) {
	q := client.Query(sql)
	q.Parameters = params

	job, err := q.Run(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: running query: %w", op, err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: waiting for job: %w", op, err)
	}
	if err := status.Err(); err != nil {
		return 0, fmt.Errorf("%s: job error: %w", op, err)
	}

	if status.Statistics != nil {
		if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok {
			return qs.NumDMLAffectedRows, nil
		}
	}
	return 0, nil
}
