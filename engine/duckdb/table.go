package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/sqlutil"
	"github.com/ab180/tsvchunk/output"
	"github.com/pkg/errors"
)

type table struct {
	db      *sql.DB
	name    string
	columns []string
	opts    engine.Options

	// counts caches group sizes computed by Distinct, by column.
	counts   map[string]map[string]int
	countsMu sync.Mutex
}

func newTable(db *sql.DB, name string, columns []string, opts engine.Options) *table {
	return &table{
		db:      db,
		name:    name,
		columns: columns,
		opts:    opts,
		counts:  make(map[string]map[string]int),
	}
}

func (t *table) Columns() []string {
	return t.columns
}

func (t *table) numRows(ctx context.Context) (n int, err error) {
	err = t.db.QueryRowContext(ctx, "SELECT count(*) FROM "+sqlutil.QuoteIdent(t.name)).Scan(&n)
	return n, errors.Wrap(err, "count rows")
}

// key is the expression of a column value, treating NULL as the empty string.
func (t *table) key(column string) string {
	return fmt.Sprintf("coalesce(%s, '')", sqlutil.QuoteIdent(column))
}

// Distinct returns values in the order of their first appearance in the source.
func (t *table) Distinct(ctx context.Context, column string) ([]string, error) {
	if _, err := engine.ColumnIndex(t.columns, column); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT %s AS k, count(*) AS n, min(rowid) AS first FROM %s GROUP BY k ORDER BY first",
		t.key(column), sqlutil.QuoteIdent(t.name))
	rows, err := t.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrapf(err, "query distinct values of %s", column)
	}
	defer rows.Close()

	var values []string
	counts := make(map[string]int)
	for rows.Next() {
		var (
			v        string
			n, first int64
		)
		if err := rows.Scan(&v, &n, &first); err != nil {
			return nil, errors.Wrap(err, "scan distinct value")
		}
		values = append(values, v)
		counts[v] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	t.countsMu.Lock()
	t.counts[column] = counts
	t.countsMu.Unlock()
	return values, nil
}

func (t *table) Count(ctx context.Context, column, value string) (n int, err error) {
	if _, err := engine.ColumnIndex(t.columns, column); err != nil {
		return 0, err
	}
	t.countsMu.Lock()
	counts, ok := t.counts[column]
	t.countsMu.Unlock()
	if ok {
		return counts[value], nil
	}

	q := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = ?", sqlutil.QuoteIdent(t.name), t.key(column))
	err = t.db.QueryRowContext(ctx, q, value).Scan(&n)
	return n, errors.Wrapf(err, "count %s = %q", column, value)
}

func (t *table) Scan(ctx context.Context, column string, values []string, out output.Output) error {
	if _, err := engine.ColumnIndex(t.columns, column); err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY rowid", sqlutil.QuoteIdent(t.name), t.key(column))
	for _, v := range values {
		rows, err := t.db.QueryContext(ctx, q, v)
		if err != nil {
			return errors.Wrapf(err, "query group %q", v)
		}
		if _, err := sqlutil.CopyRows(ctx, rows, v, t.opts.BatchSize, out); err != nil {
			return errors.Wrapf(err, "write group %q", v)
		}
	}
	return nil
}
