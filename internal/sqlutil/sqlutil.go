// Package sqlutil contains helpers shared by the SQL-backed engines.
package sqlutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/output"
	"github.com/pkg/errors"
)

// QuoteIdent quotes an identifier such as a table or column name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a string literal.
func QuoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// Strings reads a single string column from the rows. NULL is read as the empty string.
func Strings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "scan value")
		}
		values = append(values, v.String)
	}
	return values, rows.Err()
}

// CopyRows writes every row of the result set to out as a lrdd.Row keyed by the key,
// in batches of batchSize. NULL fields are written as empty strings.
func CopyRows(ctx context.Context, rows *sql.Rows, key string, batchSize int, out output.Output) (n int, err error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, errors.Wrap(err, "read result columns")
	}
	if batchSize < 1 {
		batchSize = 1
	}
	fields := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range fields {
		dest[i] = &fields[i]
	}

	batch := make([]*lrdd.Row, 0, batchSize)
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return n, errors.Wrap(err, "scan row")
		}
		values := make([]string, len(fields))
		for i, f := range fields {
			values[i] = f.String
		}
		batch = append(batch, lrdd.KeyValue(key, values...))
		if len(batch) == batchSize {
			if err := out.Write(batch...); err != nil {
				return n, err
			}
			n += len(batch)
			batch = batch[:0]
			if err := ctx.Err(); err != nil {
				return n, err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return n, err
	}
	if len(batch) > 0 {
		if err := out.Write(batch...); err != nil {
			return n, err
		}
		n += len(batch)
	}
	return n, nil
}
