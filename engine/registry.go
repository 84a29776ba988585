package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/ab180/tsvchunk/internal/util"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// ErrUnknownEngine is returned by Open when no engine is registered with the name.
var ErrUnknownEngine = errors.New("unknown engine")

// Factory creates a new engine session.
type Factory func(ctx context.Context, opts Options) (Engine, error)

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register makes an engine available by the name. It panics if the name is already registered.
func Register(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()

	if _, ok := factories[name]; ok {
		panic(fmt.Sprintf("engine %s already registered", name))
	}
	factories[name] = f
}

// Names returns the sorted names of registered engines.
func Names() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := lo.Keys(factories)
	sort.Strings(names)
	return names
}

// Open starts a new session of the engine registered with the name.
func Open(ctx context.Context, name string, opts Options) (Engine, error) {
	factoriesMu.RLock()
	f, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownEngine, "%q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	e, err := f(ctx, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s engine", name)
	}
	log.Debug().
		Str("engine", name).
		Str("type", util.NameOfType(e)).
		Int("parallelism", opts.Parallelism).
		Msg("engine session opened")
	return e, nil
}

// WithSession opens an engine session, runs fn with it and closes the session
// on every exit path. An error from closing is merged with the error of fn.
func WithSession(ctx context.Context, name string, opts Options, fn func(Engine) error) (err error) {
	e, err := Open(ctx, name, opts)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := e.Close()
		if closeErr == nil {
			return
		}
		closeErr = errors.Wrapf(closeErr, "close %s engine", name)
		if err == nil {
			err = closeErr
			return
		}
		err = multierror.Append(err, closeErr)
	}()
	return fn(e)
}
