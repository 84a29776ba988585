// Package tsvchunk splits a large tab-delimited file into smaller files, keeping
// rows sharing an identifier value in the same file and capping the number of
// rows per file.
package tsvchunk

import (
	"context"
	"sort"
	"time"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/util"
	"github.com/ab180/tsvchunk/metric"
	"github.com/ab180/tsvchunk/output"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sink writes a chunk into the index-th output file. scan emits rows of the groups of the keys.
type Sink interface {
	Flush(ctx context.Context, index int, keys []string, scan func(output.Output) error) (output.FileInfo, error)
}

// Planner places groups of rows into chunks in listing order. A chunk is flushed
// before a group which would make it exceed MaxRows. A group is never split,
// so a group larger than MaxRows is written alone.
type Planner struct {
	table    engine.Table
	sink     Sink
	idColumn string
	maxRows  int
	opts     PlannerOptions
}

func NewPlanner(table engine.Table, sink Sink, idColumn string, maxRows int, opts ...PlannerOption) *Planner {
	return &Planner{
		table:    table,
		sink:     sink,
		idColumn: idColumn,
		maxRows:  maxRows,
		opts:     buildPlannerOptions(opts),
	}
}

func (p *Planner) Run(ctx context.Context) (*Result, error) {
	startedAt := time.Now()
	if p.maxRows <= 0 {
		return nil, errors.Wrapf(ErrInvalidConfig, "max rows must be positive, got %d", p.maxRows)
	}
	result := &Result{
		RunID:    util.GenerateID("R"),
		IDColumn: p.idColumn,
		MaxRows:  p.maxRows,
	}
	columns := p.table.Columns()
	if len(columns) == 0 {
		// a zero-byte input has no header to check the column against
		log.Warn().Str("run_id", result.RunID).Msg("input is empty, no file written")
		result.Metrics = p.opts.Metrics.Collect()
		result.Elapsed = time.Since(startedAt)
		return result, nil
	}
	if _, err := engine.ColumnIndex(columns, p.idColumn); err != nil {
		return nil, errors.WithMessage(err, "identifier column")
	}
	values, err := p.distinct(ctx)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("run_id", result.RunID).
		Str("id_column", p.idColumn).
		Int("groups", len(values)).
		Int("max_rows", p.maxRows).
		Msg("planning chunks")

	chunk := new(Chunk)
	for _, v := range values {
		n, err := p.table.Count(ctx, p.idColumn, v)
		if err != nil {
			return result, errors.Wrapf(err, "count group %q", v)
		}
		p.record(metric.Groups, 1)
		p.record(metric.InputRows, n)

		if !chunk.Fits(n, p.maxRows) {
			if err := p.flush(ctx, chunk, result); err != nil {
				return result, err
			}
			chunk.Reset()
		}
		chunk.Add(v, n)
	}
	if !chunk.Empty() {
		if err := p.flush(ctx, chunk, result); err != nil {
			return result, err
		}
	}

	result.Metrics = p.opts.Metrics.Collect()
	result.Elapsed = time.Since(startedAt)
	log.Info().
		Str("run_id", result.RunID).
		Int("files", len(result.Files)).
		Int("rows", result.TotalRows()).
		Dur("elapsed", result.Elapsed).
		Msg("chunks written")
	return result, nil
}

// distinct lists identifier values and rejects duplicates.
func (p *Planner) distinct(ctx context.Context) ([]string, error) {
	var lister DistinctLister = p.table
	if p.opts.Lister != nil {
		lister = p.opts.Lister
	}
	values, err := lister.Distinct(ctx, p.idColumn)
	if err != nil {
		return nil, errors.Wrapf(err, "list distinct values of %s", p.idColumn)
	}

	seen := mapset.NewThreadUnsafeSetWithSize[string](len(values))
	for _, v := range values {
		if !seen.Add(v) {
			return nil, errors.Wrapf(ErrDuplicateIdentifier, "%q", v)
		}
	}

	switch p.opts.Order {
	case OrderEngine:
	case OrderSorted:
		sorted := make([]string, len(values))
		copy(sorted, values)
		sort.Strings(sorted)
		values = sorted
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown order %q", p.opts.Order)
	}
	return values, nil
}

func (p *Planner) flush(ctx context.Context, chunk *Chunk, result *Result) error {
	startedAt := time.Now()
	index := len(result.Files) + 1

	info, err := p.sink.Flush(ctx, index, chunk.Keys, func(out output.Output) error {
		return p.table.Scan(ctx, p.idColumn, chunk.Keys, out)
	})
	if err != nil {
		return errors.WithMessagef(err, "flush chunk %d", index)
	}
	if info.Rows != chunk.Rows {
		return errors.Wrapf(ErrRowCountMismatch, "chunk %d: counted %d rows, wrote %d", index, chunk.Rows, info.Rows)
	}

	f := FlushedFile{
		Index:     index,
		Path:      info.Path,
		Rows:      info.Rows,
		Keys:      chunk.Keys,
		Oversized: chunk.Oversized(p.maxRows),
	}
	result.Files = append(result.Files, f)

	p.record(metric.Files, 1)
	p.record(metric.Rows, f.Rows)
	if f.Oversized {
		p.record(metric.OversizedChunks, 1)
		log.Warn().
			Str("run_id", result.RunID).
			Str("key", f.Keys[0]).
			Int("rows", f.Rows).
			Int("max_rows", p.maxRows).
			Msg("group exceeds max rows, written alone")
	}
	if c := p.opts.Collectors; c != nil {
		c.FlushDuration.Observe(time.Since(startedAt).Seconds())
	}
	log.Debug().
		Str("run_id", result.RunID).
		Int("index", index).
		Int("groups", len(f.Keys)).
		Int("rows", f.Rows).
		Msg("flushed chunk")
	return nil
}

func (p *Planner) record(name string, delta int) {
	p.opts.Metrics.AddMetric(name, int64(delta))

	c := p.opts.Collectors
	if c == nil {
		return
	}
	switch name {
	case metric.InputRows:
		c.InputRows.Add(float64(delta))
	case metric.Groups:
		c.Groups.Add(float64(delta))
	case metric.Rows:
		c.Rows.Add(float64(delta))
	case metric.Files:
		c.Files.Add(float64(delta))
	case metric.OversizedChunks:
		c.OversizedChunks.Add(float64(delta))
	}
}
