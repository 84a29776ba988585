// Package sqlite implements an engine backed by an embedded SQLite database.
// Rows are loaded through the TSV reader, so the engine accepts exactly the
// files the local engine does.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/input"
	"github.com/ab180/tsvchunk/internal/sqlutil"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
	_ "modernc.org/sqlite"
)

const Name = "sqlite"

func init() {
	engine.Register(Name, New)
}

type Engine struct {
	opts   engine.Options
	dbDir  string
	db     *sql.DB
	tables atomic.Int64
	closed atomic.Bool
}

// New opens a SQLite database in a temporary directory, which is removed on Close.
func New(ctx context.Context, opts engine.Options) (engine.Engine, error) {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = engine.DefaultOptions().BatchSize
	}
	dbDir, err := os.MkdirTemp(opts.TempDir, "tsvchunk-sqlite-*")
	if err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}
	db, err := sql.Open("sqlite", filepath.Join(dbDir, "chunk.db"))
	if err != nil {
		_ = os.RemoveAll(dbDir)
		return nil, errors.Wrap(err, "open sqlite")
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = OFF",
		"PRAGMA synchronous = OFF",
		"PRAGMA temp_store = FILE",
		fmt.Sprintf("PRAGMA threads = %d", opts.Parallelism),
	}
	if opts.MemoryLimitMB > 0 {
		pragmas = append(pragmas, fmt.Sprintf("PRAGMA cache_size = -%d", opts.MemoryLimitMB*1024))
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			_ = os.RemoveAll(dbDir)
			return nil, errors.Wrapf(err, "exec %q", p)
		}
	}
	return &Engine{
		opts:  opts,
		dbDir: dbDir,
		db:    db,
	}, nil
}

// Load inserts rows of the source into a table with a TEXT column per source column.
func (e *Engine) Load(ctx context.Context, src engine.Source) (engine.Table, error) {
	if e.closed.Load() {
		return nil, engine.ErrClosed
	}
	startedAt := time.Now()

	feeder := input.NewTSVFile(src.Path, src.Header)
	feeder.BatchSize = e.opts.BatchSize
	columns, err := feeder.Columns()
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return engine.EmptyTable(nil), nil
	}

	name := fmt.Sprintf("src_%d", e.tables.Inc())
	defs := make([]string, len(columns))
	for i := range columns {
		defs[i] = sqlutil.QuoteIdent(columnName(i)) + " TEXT NOT NULL"
	}
	if _, err := e.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)",
		sqlutil.QuoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return nil, errors.Wrap(err, "create table")
	}

	ins, err := newInserter(ctx, e.db, name, len(columns))
	if err != nil {
		return nil, err
	}
	if err := feeder.FeedInput(ctx, ins); err != nil {
		_ = ins.rollback()
		return nil, err
	}
	if err := ins.Close(); err != nil {
		return nil, err
	}

	log.Info().
		Str("path", src.Path).
		Int("rows", ins.rows).
		Dur("elapsed", time.Since(startedAt)).
		Msg("loaded table")
	return newTable(e.db, name, columns, e.opts), nil
}

// Close closes the database and removes its files.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return errors.Wrap(engine.ErrClosed, "close twice")
	}
	var errs *multierror.Error
	if err := e.db.Close(); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, "close database"))
	}
	if err := os.RemoveAll(e.dbDir); err != nil {
		errs = multierror.Append(errs, errors.Wrap(err, "remove database directory"))
	}
	return errs.ErrorOrNil()
}

func columnName(i int) string {
	return fmt.Sprintf("c%d", i)
}

// inserter is an output inserting rows into a table within a single transaction.
type inserter struct {
	ctx  context.Context
	tx   *sql.Tx
	stmt *sql.Stmt
	args []interface{}
	rows int
}

func newInserter(ctx context.Context, db *sql.DB, table string, width int) (*inserter, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction")
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", width), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", sqlutil.QuoteIdent(table), placeholders))
	if err != nil {
		_ = tx.Rollback()
		return nil, errors.Wrap(err, "prepare insert")
	}
	return &inserter{
		ctx:  ctx,
		tx:   tx,
		stmt: stmt,
		args: make([]interface{}, width),
	}, nil
}

func (ins *inserter) Write(rows ...*lrdd.Row) error {
	for _, row := range rows {
		for i := range ins.args {
			ins.args[i] = row.Field(i)
		}
		if _, err := ins.stmt.ExecContext(ins.ctx, ins.args...); err != nil {
			return errors.Wrap(err, "insert row")
		}
		ins.rows++
	}
	return nil
}

// Close commits the inserted rows.
func (ins *inserter) Close() error {
	if err := ins.stmt.Close(); err != nil {
		_ = ins.tx.Rollback()
		return errors.Wrap(err, "close statement")
	}
	return errors.Wrap(ins.tx.Commit(), "commit")
}

func (ins *inserter) rollback() error {
	_ = ins.stmt.Close()
	return ins.tx.Rollback()
}
