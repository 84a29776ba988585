package output

import (
	"sync"

	"github.com/ab180/tsvchunk/lrdd"
	"github.com/pkg/errors"
)

// BufferedOutput wraps Output with buffering.
type BufferedOutput struct {
	buf    []*lrdd.Row
	offset int
	lock   sync.Mutex
	output Output
}

func NewBufferedOutput(output Output, size int) *BufferedOutput {
	if size == 0 {
		panic("buffer size cannot be 0.")
	}
	return &BufferedOutput{
		output: output,
		buf:    make([]*lrdd.Row, size),
	}
}

func (b *BufferedOutput) Write(d ...*lrdd.Row) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	for len(d) > 0 {
		writeLen := min(len(d), len(b.buf)-b.offset)
		b.offset += copy(b.buf[b.offset:], d[:writeLen])
		if b.offset == len(b.buf) {
			if err := b.flush(); err != nil {
				return err
			}
		}
		d = d[writeLen:]
	}
	return nil
}

func (b *BufferedOutput) flush() error {
	if b.offset == 0 {
		return nil
	}
	if err := b.output.Write(b.buf[:b.offset]...); err != nil {
		return err
	}
	for i := 0; i < b.offset; i++ {
		b.buf[i] = nil
	}
	b.offset = 0
	return nil
}

func (b *BufferedOutput) Flush() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.flush()
}

func (b *BufferedOutput) Close() error {
	if err := b.Flush(); err != nil {
		return errors.Wrap(err, "flush")
	}
	return b.output.Close()
}
