package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/sqlutil"
	"github.com/ab180/tsvchunk/output"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type table struct {
	db      *sql.DB
	name    string
	columns []string
	opts    engine.Options

	indexed   map[int]bool
	indexedMu sync.Mutex
}

func newTable(db *sql.DB, name string, columns []string, opts engine.Options) *table {
	return &table{
		db:      db,
		name:    name,
		columns: columns,
		opts:    opts,
		indexed: make(map[int]bool),
	}
}

func (t *table) Columns() []string {
	return t.columns
}

// column returns the quoted name of the table column holding the source column,
// creating an index on it on the first use.
func (t *table) column(ctx context.Context, column string) (string, error) {
	i, err := engine.ColumnIndex(t.columns, column)
	if err != nil {
		return "", err
	}
	col := sqlutil.QuoteIdent(columnName(i))

	t.indexedMu.Lock()
	defer t.indexedMu.Unlock()
	if t.indexed[i] {
		return col, nil
	}
	idx := sqlutil.QuoteIdent(fmt.Sprintf("%s_%s_idx", t.name, columnName(i)))
	if _, err := t.db.ExecContext(ctx, fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx, sqlutil.QuoteIdent(t.name), col)); err != nil {
		return "", errors.Wrapf(err, "index column %s", column)
	}
	log.Debug().Str("column", column).Msg("created index")
	t.indexed[i] = true
	return col, nil
}

// Distinct returns values in the order of their first appearance in the source.
func (t *table) Distinct(ctx context.Context, column string) ([]string, error) {
	col, err := t.column(ctx, column)
	if err != nil {
		return nil, err
	}
	rows, err := t.db.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s GROUP BY %s ORDER BY min(rowid)",
		col, sqlutil.QuoteIdent(t.name), col))
	if err != nil {
		return nil, errors.Wrapf(err, "query distinct values of %s", column)
	}
	return sqlutil.Strings(rows)
}

func (t *table) Count(ctx context.Context, column, value string) (n int, err error) {
	col, err := t.column(ctx, column)
	if err != nil {
		return 0, err
	}
	err = t.db.QueryRowContext(ctx, fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = ?",
		sqlutil.QuoteIdent(t.name), col), value).Scan(&n)
	return n, errors.Wrapf(err, "count %s = %q", column, value)
}

func (t *table) Scan(ctx context.Context, column string, values []string, out output.Output) error {
	col, err := t.column(ctx, column)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY rowid", sqlutil.QuoteIdent(t.name), col)
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
