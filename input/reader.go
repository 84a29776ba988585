package input

import (
	"context"

	"github.com/ab180/tsvchunk/lrdd"
	"go.uber.org/atomic"
)

// Reader is a queue of row batches which multiple writers can feed into.
// C is closed after every added writer is done.
type Reader struct {
	C chan *[]*lrdd.Row

	activeCnt atomic.Int64
	closed    atomic.Bool
}

func NewReader(queueLen int) *Reader {
	return &Reader{
		C: make(chan *[]*lrdd.Row, queueLen),
	}
}

// Add registers a writer to the reader.
func (p *Reader) Add() {
	p.activeCnt.Inc()
}

// Write copies rows into a pooled batch and enqueues it. Consumers must release
// the batch with lrdd.PutRows after use.
func (p *Reader) Write(ctx context.Context, rows []*lrdd.Row) error {
	batch := lrdd.GetRows(len(rows))
	*batch = append(*batch, rows...)

	select {
	case p.C <- batch:
		return nil
	case <-ctx.Done():
		lrdd.PutRows(batch)
		return ctx.Err()
	}
}

// Done unregisters a writer. The reader is closed when the last writer is done.
func (p *Reader) Done() {
	newActiveCnt := p.activeCnt.Dec()
	if newActiveCnt == 0 {
		p.Close()
	}
}

func (p *Reader) Close() {
	if swapped := p.closed.CompareAndSwap(false, true); !swapped {
		// p.closed was true
		return
	}
	// with CAS, only a goroutine can enter here
	close(p.C)
}
