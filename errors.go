package tsvchunk

import (
	"github.com/ab180/tsvchunk/engine"
	"github.com/ab180/tsvchunk/internal/fsutil"
	"github.com/pkg/errors"
)

var (
	// ErrColumnNotFound is returned when the identifier column is not a column of the input.
	ErrColumnNotFound = engine.ErrColumnNotFound

	// ErrInvalidConfig is returned on a malformed or missing setting.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrDuplicateIdentifier is returned when a distinct lister yields a value twice.
	ErrDuplicateIdentifier = errors.New("duplicate identifier value")

	// ErrRowCountMismatch is returned when a flushed file holds a different
	// number of rows than its groups were counted to have.
	ErrRowCountMismatch = errors.New("row count mismatch")
)

// IOError describes a failed filesystem operation on a path.
type IOError = fsutil.IOError
