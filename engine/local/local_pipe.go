package local

import (
	"context"

	"github.com/ab180/tsvchunk/input"
	"github.com/ab180/tsvchunk/lrdd"
)

// localPipe is an output connected to a partition reader in the same process.
type localPipe struct {
	ctx    context.Context
	reader *input.Reader
}

func newLocalPipe(ctx context.Context, r *input.Reader) *localPipe {
	r.Add()
	return &localPipe{
		ctx:    ctx,
		reader: r,
	}
}

func (l *localPipe) Write(rows ...*lrdd.Row) error {
	return l.reader.Write(l.ctx, rows)
}

func (l *localPipe) Close() error {
	l.reader.Done()
	return nil
}
