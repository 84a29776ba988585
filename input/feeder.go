package input

import (
	"context"

	"github.com/ab180/tsvchunk/output"
)

// Feeder provides rows of a table to the output.
type Feeder interface {
	// Columns returns column names of the rows fed.
	Columns() ([]string, error)

	FeedInput(ctx context.Context, out output.Output) error
}
