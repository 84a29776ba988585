// Package errgroup wraps golang.org/x/sync/errgroup to recover panics of
// the goroutines as errors.
package errgroup

import (
	"context"

	"github.com/ab180/tsvchunk/internal/logutils"
	"golang.org/x/sync/errgroup"
)

// Group is a collection of goroutines working on subtasks of a common task.
// Use WithContext to create one.
type Group struct {
	g *errgroup.Group
}

func WithContext(ctx context.Context) (*Group, context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	return &Group{g: g}, gctx
}

// Go runs fn in a new goroutine. A panic in fn is returned as *logutils.PanicError.
func (g *Group) Go(fn func() error) {
	g.g.Go(func() (err error) {
		defer func() {
			if pe := logutils.WrapRecover(recover()); pe != nil {
				err = pe
			}
		}()
		return fn()
	})
}

// SetLimit limits the number of active goroutines in this group to at most n.
func (g *Group) SetLimit(n int) {
	g.g.SetLimit(n)
}

// Wait blocks until all goroutines have returned, then returns the first non-nil error.
func (g *Group) Wait() error {
	return g.g.Wait()
}
