package output

import (
	"github.com/ab180/tsvchunk/lrdd"
	"github.com/hashicorp/go-multierror"
)

// ComposedOutput writes every row to all of its outputs.
type ComposedOutput struct {
	outputs []Output
}

func NewComposed(outputs ...Output) Output {
	return &ComposedOutput{outputs}
}

func (c ComposedOutput) Write(rows ...*lrdd.Row) error {
	for _, o := range c.outputs {
		if err := o.Write(rows...); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all outputs even if some of them fail.
func (c ComposedOutput) Close() error {
	var errs *multierror.Error
	for _, o := range c.outputs {
		if err := o.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
