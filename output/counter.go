package output

import (
	"github.com/ab180/tsvchunk/lrdd"
	"go.uber.org/atomic"
)

// Counter counts rows written to it. It is safe for concurrent use.
type Counter struct {
	rows atomic.Int64
}

func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Write(rows ...*lrdd.Row) error {
	c.rows.Add(int64(len(rows)))
	return nil
}

func (c *Counter) Close() error { return nil }

// Rows returns the number of rows written so far.
func (c *Counter) Rows() int {
	return int(c.rows.Load())
}
