// Package duckdb implements an engine backed by an embedded DuckDB database.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
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
	"github.com/marcboeker/go-duckdb/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/therne/errorist"
	"go.uber.org/atomic"
)

const Name = "duckdb"

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

// New opens a DuckDB database in a temporary directory, which is removed on Close.
func New(_ context.Context, opts engine.Options) (engine.Engine, error) {
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = engine.DefaultOptions().BatchSize
	}
	dbDir, err := os.MkdirTemp(opts.TempDir, "tsvchunk-duckdb-*")
	if err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}
	e := &Engine{
		opts:  opts,
		dbDir: dbDir,
	}
	connector, err := duckdb.NewConnector(filepath.Join(dbDir, "chunk.ddb"), e.initConn)
	if err != nil {
		_ = os.RemoveAll(dbDir)
		return nil, errors.Wrap(err, "create duckdb connector")
	}
	e.db = sql.OpenDB(connector)
	e.db.SetMaxOpenConns(opts.Parallelism)
	e.db.SetMaxIdleConns(opts.Parallelism)
	return e, nil
}

func (e *Engine) initConn(execer driver.ExecerContext) error {
	ctx := context.Background()
	stmts := []string{
		"SET autoinstall_known_extensions = false",
		"SET autoload_known_extensions = false",
		fmt.Sprintf("SET threads = %d", e.opts.Parallelism),
		fmt.Sprintf("SET temp_directory = %s", sqlutil.QuoteLiteral(filepath.Join(e.dbDir, "spill"))),
	}
	if e.opts.MemoryLimitMB > 0 {
		stmts = append(stmts, fmt.Sprintf("SET memory_limit = '%dMB'", e.opts.MemoryLimitMB))
	}
	for _, stmt := range stmts {
		if _, err := execer.ExecContext(ctx, stmt, nil); err != nil {
			return errors.Wrapf(err, "exec %q", stmt)
		}
	}
	return nil
}

// Load copies the source into a table. Every column is read as VARCHAR, and
// quote and escape characters are not recognized.
func (e *Engine) Load(ctx context.Context, src engine.Source) (engine.Table, error) {
	if e.closed.Load() {
		return nil, engine.ErrClosed
	}
	startedAt := time.Now()

	feeder := input.NewTSVFile(src.Path, src.Header)
	feeder.BatchSize = e.opts.BatchSize
	probed, err := feeder.Columns()
	if err != nil {
		return nil, err
	}
	if len(probed) == 0 {
		return engine.EmptyTable(nil), nil
	}

	name := fmt.Sprintf("src_%d", e.tables.Inc())
	if lo.Contains(readCSVCompressions, input.CompressionOf(src.Path)) {
		err = e.readCSV(ctx, name, src, probed)
	} else {
		err = e.appendRows(ctx, name, feeder, probed)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", src.Path)
	}

	rows, err := e.db.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_name = ? ORDER BY ordinal_position", name)
	if err != nil {
		return nil, errors.Wrap(err, "describe table")
	}
	columns, err := sqlutil.Strings(rows)
	if err != nil {
		return nil, errors.Wrap(err, "describe table")
	}

	t := newTable(e.db, name, columns, e.opts)
	numRows, err := t.numRows(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", src.Path).
		Int("rows", numRows).
		Int("threads", e.opts.Parallelism).
		Dur("elapsed", time.Since(startedAt)).
		Msg("loaded table")
	return t, nil
}

// readCSVCompressions are decompressed by read_csv without extensions.
var readCSVCompressions = []input.Compression{input.Uncompressed, input.Gzip}

func (e *Engine) readCSV(ctx context.Context, name string, src engine.Source, columns []string) error {
	readOpts := fmt.Sprintf("delim = '\\t', quote = '', escape = '', header = %t, all_varchar = true", src.Header)
	if !src.Header {
		readOpts += ", names = " + namesList(columns)
	}
	stmt := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM read_csv(%s, %s)",
		sqlutil.QuoteIdent(name), sqlutil.QuoteLiteral(src.Path), readOpts)
	_, err := e.db.ExecContext(ctx, stmt)
	return err
}

// appendRows decodes the source with the TSV feeder and appends the rows to a new table.
func (e *Engine) appendRows(ctx context.Context, name string, feeder *input.TSVFile, columns []string) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = sqlutil.QuoteIdent(c) + " VARCHAR"
	}
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "acquire connection")
	}
	defer conn.Close()

	stmt := fmt.Sprintf("CREATE TABLE %s (%s)", sqlutil.QuoteIdent(name), strings.Join(defs, ", "))
	if _, err := conn.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "create table")
	}
	return conn.Raw(func(driverConn any) (err error) {
		dc, ok := driverConn.(driver.Conn)
		if !ok {
			return errors.Errorf("unexpected driver connection %T", driverConn)
		}
		a, err := duckdb.NewAppenderFromConn(dc, "", name)
		if err != nil {
			return errors.Wrap(err, "create appender")
		}
		defer errorist.CloseWithErrCapture(a, &err, errorist.Wrapf("close appender"))

		return feeder.FeedInput(ctx, &appender{a: a})
	})
}

// appender is an output appending rows through a DuckDB appender.
type appender struct {
	a *duckdb.Appender
}

func (ap *appender) Write(rows ...*lrdd.Row) error {
	for _, row := range rows {
		values := make([]driver.Value, len(row.Fields))
		for i, f := range row.Fields {
			values[i] = f
		}
		if err := ap.a.AppendRow(values...); err != nil {
			return errors.Wrapf(err, "append row %d", row.Offset)
		}
	}
	return nil
}

func (ap *appender) Close() error { return nil }

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

func namesList(columns []string) string {
	list := "["
	for i, c := range columns {
		if i > 0 {
			list += ", "
		}
		list += sqlutil.QuoteLiteral(c)
	}
	return list + "]"
}
