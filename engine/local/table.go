package local

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/errgroup"
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/output"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

type table struct {
	columns    []string
	partitions []*partition
	opts       engine.Options

	indices   map[string]*groupIndex
	indicesMu sync.Mutex
}

// groupIndex holds rows grouped by the values of a column.
type groupIndex struct {
	// order lists values in the order of first appearance in the source.
	order  []string
	groups map[string][]*lrdd.Row
}

func newTable(columns []string, parts []*partition, opts engine.Options) *table {
	return &table{
		columns:    columns,
		partitions: parts,
		opts:       opts,
		indices:    make(map[string]*groupIndex),
	}
}

func (t *table) Columns() []string {
	return t.columns
}

func (t *table) numRows() int {
	return lo.SumBy(t.partitions, func(p *partition) int { return len(p.rows) })
}

func (t *table) Distinct(ctx context.Context, column string) ([]string, error) {
	idx, err := t.index(ctx, column)
	if err != nil {
		return nil, err
	}
	values := make([]string, len(idx.order))
	copy(values, idx.order)
	return values, nil
}

func (t *table) Count(ctx context.Context, column, value string) (int, error) {
	idx, err := t.index(ctx, column)
	if err != nil {
		return 0, err
	}
	return len(idx.groups[value]), nil
}

func (t *table) Scan(ctx context.Context, column string, values []string, out output.Output) error {
	idx, err := t.index(ctx, column)
	if err != nil {
		return err
	}
	batch := make([]*lrdd.Row, 0, t.opts.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := out.Write(batch...); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}
	for _, v := range values {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, row := range idx.groups[v] {
			batch = append(batch, row.WithKey(v))
			if len(batch) >= t.opts.BatchSize {
				if err := flush(); err != nil {
					return errors.Wrapf(err, "write group %q", v)
				}
			}
		}
	}
	return flush()
}

// index returns the group index of the column, building it on the first use.
func (t *table) index(ctx context.Context, column string) (*groupIndex, error) {
	col, err := engine.ColumnIndex(t.columns, column)
	if err != nil {
		return nil, err
	}
	t.indicesMu.Lock()
	defer t.indicesMu.Unlock()

	if idx, ok := t.indices[column]; ok {
		return idx, nil
	}
	idx, err := t.buildIndex(ctx, col)
	if err != nil {
		return nil, errors.Wrapf(err, "index column %s", column)
	}
	t.indices[column] = idx
	return idx, nil
}

func (t *table) buildIndex(ctx context.Context, col int) (*groupIndex, error) {
	local := make([]*groupIndex, len(t.partitions))

	wg, wctx := errgroup.WithContext(ctx)
	wg.SetLimit(t.opts.Parallelism)
	for i, p := range t.partitions {
		i, p := i, p
		wg.Go(func() error {
			idx := &groupIndex{groups: make(map[string][]*lrdd.Row)}
			for n, row := range p.rows {
				if n%t.opts.BatchSize == 0 {
					if err := wctx.Err(); err != nil {
						return err
					}
				}
				v := row.Field(col)
				if _, ok := idx.groups[v]; !ok {
					idx.order = append(idx.order, v)
				}
				idx.groups[v] = append(idx.groups[v], row)
			}
			local[i] = idx
			return nil
		})
	}
	if err := wg.Wait(); err != nil {
		return nil, err
	}
	if len(local) == 1 {
		return local[0], nil
	}

	// rows of a partition are in source order, so the first row of a group
	// in each partition is its earliest one there.
	merged := &groupIndex{groups: make(map[string][]*lrdd.Row)}
	firstOffset := make(map[string]int64)
	for _, idx := range local {
		for _, v := range idx.order {
			rows := idx.groups[v]
			if first, ok := firstOffset[v]; !ok {
				merged.order = append(merged.order, v)
				firstOffset[v] = rows[0].Offset
			} else if rows[0].Offset < first {
				firstOffset[v] = rows[0].Offset
			}
			merged.groups[v] = append(merged.groups[v], rows...)
		}
	}
	slices.SortFunc(merged.order, func(a, b string) int {
		return cmp.Compare(firstOffset[a], firstOffset[b])
	})
	for _, rows := range merged.groups {
		slices.SortFunc(rows, func(a, b *lrdd.Row) int {
			return cmp.Compare(a.Offset, b.Offset)
		})
	}
	log.Debug().
		Str("column", t.columns[col]).
		Int("groups", len(merged.order)).
		Msg("built group index")
	return merged, nil
}
