// Package engine defines the processing backends the chunk planner runs on.
// An engine loads a delimited table once and answers distinct, count and
// scan queries against it.
package engine

import (
	"context"
	"strings"

	"github.com/ab180/tsvchunk/output"
	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var (
	// ErrColumnNotFound is returned when a query refers to a column which the table does not have.
	ErrColumnNotFound = errors.New("column not found")

	// ErrClosed is returned on use of a closed engine.
	ErrClosed = errors.New("engine closed")
)

// Source describes a delimited file to load.
type Source struct {
	Path string

	// Header indicates that the first line of the file holds column names.
	// Otherwise columns are named _c0, _c1, ...
	Header bool
}

type Options struct {
	// Parallelism is an advisory degree of parallelism. It never affects results.
	Parallelism int `default:"1"`

	// QueueLength is the number of row batches buffered between stages.
	QueueLength int `default:"64"`

	// BatchSize is the number of rows moved between stages at once.
	BatchSize int `default:"1000"`

	// MemoryLimitMB limits memory usage of engines supporting it. Zero means no limit.
	MemoryLimitMB int64

	// TempDir is where engines spill intermediate data. Defaults to the system temp dir.
	TempDir string
}

func DefaultOptions() (o Options) {
	if err := defaults.Set(&o); err != nil {
		panic(err)
	}
	return
}

// Engine is a processing session. An engine must be closed after use.
type Engine interface {
	Load(ctx context.Context, src Source) (Table, error)
	Close() error
}

// Table is a loaded, immutable table.
type Table interface {
	// Columns returns column names in the order of the source.
	Columns() []string

	// Distinct returns distinct values of the column. The order is up to the engine.
	// Empty fields count as the empty string value.
	Distinct(ctx context.Context, column string) ([]string, error)

	// Count returns the number of rows whose column equals the value.
	Count(ctx context.Context, column, value string) (int, error)

	// Scan writes rows whose column equals one of the values into out, keyed by the value.
	// Rows are written value by value, in the order of values.
	Scan(ctx context.Context, column string, values []string, out output.Output) error
}

// ColumnIndex returns the position of the column, or ErrColumnNotFound.
func ColumnIndex(columns []string, column string) (int, error) {
	idx := lo.IndexOf(columns, column)
	if idx < 0 {
		return -1, errors.Wrapf(ErrColumnNotFound, "%q (available: %s)", column, strings.Join(columns, ", "))
	}
	return idx, nil
}

type emptyTable struct {
	columns []string
}

// EmptyTable returns a table with no rows.
func EmptyTable(columns []string) Table {
	return &emptyTable{columns: columns}
}

func (e *emptyTable) Columns() []string {
	return e.columns
}

func (e *emptyTable) Distinct(_ context.Context, column string) ([]string, error) {
	_, err := ColumnIndex(e.columns, column)
	return nil, err
}

func (e *emptyTable) Count(_ context.Context, column, _ string) (int, error) {
	_, err := ColumnIndex(e.columns, column)
	return 0, err
}

func (e *emptyTable) Scan(_ context.Context, column string, _ []string, _ output.Output) error {
	_, err := ColumnIndex(e.columns, column)
	return err
}
