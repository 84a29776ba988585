package output

import (
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/ab180/tsvchunk/partitions"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Writer routes rows to one of its outputs determined by the partitioner.
type Writer struct {
	partitioner partitions.Partitioner
	outputs     []Output
	batches     [][]*lrdd.Row
}

func NewWriter(p partitions.Partitioner, outputs []Output) *Writer {
	return &Writer{
		partitioner: p,
		outputs:     outputs,
		batches:     make([][]*lrdd.Row, len(outputs)),
	}
}

func (w *Writer) Write(rows ...*lrdd.Row) error {
	for _, row := range rows {
		idx, err := w.partitioner.DeterminePartition(row, len(w.outputs))
		if err != nil {
			return errors.Wrapf(err, "determine partition of key %q", row.Key)
		}
		w.batches[idx] = append(w.batches[idx], row)
	}
	for i, batch := range w.batches {
		if len(batch) == 0 {
			continue
		}
		if err := w.outputs[i].Write(batch...); err != nil {
			return errors.Wrapf(err, "write to partition %d", i)
		}
		for j := range batch {
			batch[j] = nil
		}
		w.batches[i] = batch[:0]
	}
	return nil
}

// NumOutputs returns the number of partitioned outputs.
func (w *Writer) NumOutputs() int {
	return len(w.outputs)
}

// Close closes all outputs even if some of them fail.
func (w *Writer) Close() error {
	var errs *multierror.Error
	for i, o := range w.outputs {
		if err := o.Close(); err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "close partition %d", i))
		}
	}
	return errs.ErrorOrNil()
}
