// Package local implements an in-process engine. Rows are dealt round-robin
// into partitions held in memory, and per-column group indices are built
// over the partitions in parallel. Indices follow the source order of rows
// regardless of the number of partitions.
package local

import (
	"context"
	"time"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/input"
	"github.com/ab180/tsvchunk/internal/errgroup"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/output"
	"github.com/ab180/tsvchunk/partitions"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/therne/errorist"
	"go.uber.org/atomic"
)

const Name = "local"

func init() {
	engine.Register(Name, New)
}

type Engine struct {
	opts   engine.Options
	closed atomic.Bool
}

func New(_ context.Context, opts engine.Options) (engine.Engine, error) {
	if opts.QueueLength < 1 || opts.BatchSize < 1 {
		defaultOpts := engine.DefaultOptions()
		if opts.QueueLength < 1 {
			opts.QueueLength = defaultOpts.QueueLength
		}
		if opts.BatchSize < 1 {
			opts.BatchSize = defaultOpts.BatchSize
		}
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	return &Engine{opts: opts}, nil
}

// Load reads the whole source into memory.
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

	parts := partitions.PlanForNumberOf(e.opts.Parallelism)
	readers := make([]*input.Reader, len(parts))
	loaded := make([]*partition, len(parts))

	wg, wctx := errgroup.WithContext(ctx)
	pipes := make([]output.Output, len(parts))
	for i := range parts {
		readers[i] = input.NewReader(e.opts.QueueLength)
		pipes[i] = newLocalPipe(wctx, readers[i])
	}
	for _, p := range parts {
		p := p
		wg.Go(func() error {
			loaded[p.Index] = collect(p, readers[p.Index])
			return nil
		})
	}
	wg.Go(func() (err error) {
		w := output.NewWriter(partitions.NewShuffledPartitioner(), pipes)
		defer errorist.CloseWithErrCapture(w, &err, errorist.Wrapf("close"))

		return feeder.FeedInput(wctx, w)
	})
	if err := wg.Wait(); err != nil {
		return nil, err
	}

	t := newTable(columns, loaded, e.opts)
	log.Info().
		Str("path", src.Path).
		Int("rows", t.numRows()).
		Int("partitions", len(parts)).
		Dur("elapsed", time.Since(startedAt)).
		Msg("loaded table")
	return t, nil
}

func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return errors.Wrap(engine.ErrClosed, "close twice")
	}
	return nil
}

type partition struct {
	partitions.Partition
	rows []*lrdd.Row
}

func collect(p partitions.Partition, r *input.Reader) *partition {
	loaded := &partition{Partition: p}
	for batch := range r.C {
		loaded.rows = append(loaded.rows, *batch...)
		lrdd.PutRows(batch)
	}
	return loaded
}
