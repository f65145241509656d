package generator

import (
	"context"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// Elaborator runs generators against a cache.
type Elaborator struct {
	cache *Cache
}

// Option configures an Elaborator.
type Option func(*Elaborator)

// WithCache makes the elaborator use c, which may be shared.
func WithCache(c *Cache) Option {
	return func(e *Elaborator) { e.cache = c }
}

// NewElaborator creates an elaborator with its own cache unless WithCache is
// given.
func NewElaborator(opts ...Option) *Elaborator {
	e := &Elaborator{}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = NewCache()
	}
	return e
}

var defaultElaborator = NewElaborator()

// Default returns the process-wide elaborator.
func Default() *Elaborator { return defaultElaborator }

// Generate runs g on the default elaborator.
func Generate(ctx context.Context, g *Generator, args any) (*hdl.Module, error) {
	return defaultElaborator.Generate(ctx, g, args)
}

// Cache returns the elaborator's cache.
func (e *Elaborator) Cache() *Cache { return e.cache }

// Generate returns the module of g for args, building it on a cache miss.
// Argument errors are returned before g runs. Errors from g are returned as
// they are and leave nothing in the cache.
func (e *Elaborator) Generate(ctx context.Context, g *Generator, args any) (*hdl.Module, error) {
	p, err := g.Params(args)
	if err != nil {
		return nil, err
	}
	key := g.key(p)
	logger := ctxlog.FromContext(ctx).With("generator", g.name, "key", fmt.Sprintf("%016x", p.Hash()))

	if m, ok := e.cache.load(key); ok {
		e.cache.hits.Add(1)
		logger.Debug("Generate: Cache hit.")
		return m, nil
	}
	if chain, ok := reentered(ctx, key); ok {
		return nil, &hdlerr.CyclicReferenceError{
			Scope: fmt.Sprintf("generator %q", g.name),
			Cycle: append(chain, g.name),
		}
	}

	holder, held := running(ctx)
	if path, ok := e.cache.flights.await(holder, held, key, g.name); ok {
		chain, _ := reentered(ctx, path[len(path)-1].key)
		for _, f := range path {
			chain = append(chain, f.name)
		}
		return nil, &hdlerr.CyclicReferenceError{Scope: fmt.Sprintf("generator %q", g.name), Cycle: chain}
	}
	defer e.cache.flights.release(holder, key)

	v, err, _ := e.cache.group.Do(key, func() (any, error) {
		e.cache.flights.begin(key, g.name)
		defer e.cache.flights.end(key)
		if m, ok := e.cache.load(key); ok {
			e.cache.hits.Add(1)
			return m, nil
		}
		e.cache.misses.Add(1)
		logger.Debug("Generate: Cache miss, running generator.")

		m, err := g.fn(context.WithValue(enter(ctx, key, g.name), elaboratorKey{}, e), p)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("generator %q", g.name), Reason: "returned no module"}
		}
		if !m.Finalized() {
			if m.Name() == "" {
				if err := m.SetName(g.moduleName(p)); err != nil {
					return nil, err
				}
			}
			if err := m.BindGenerator(g.name, p); err != nil {
				return nil, err
			}
			if err := m.Finalize(); err != nil {
				return nil, err
			}
		}
		e.cache.store(key, m)
		logger.Debug("Generate: Module cached.", "module", m.Name())
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hdl.Module), nil
}

type elaboratorKey struct{}

// FromContext returns the elaborator running the generator that received
// ctx, so nested generators share its cache. Outside of any generator it
// returns the default elaborator.
func FromContext(ctx context.Context) *Elaborator {
	if ctx != nil {
		if e, ok := ctx.Value(elaboratorKey{}).(*Elaborator); ok {
			return e
		}
	}
	return defaultElaborator
}

// frame is one generator call on the stack carried by a context.
type frame struct {
	key  string
	name string
}

type stackKey struct{}

func enter(ctx context.Context, key, name string) context.Context {
	prev, _ := ctx.Value(stackKey{}).([]frame)
	next := make([]frame, len(prev), len(prev)+1)
	copy(next, prev)
	return context.WithValue(ctx, stackKey{}, append(next, frame{key: key, name: name}))
}

// reentered reports whether key is already being generated further up
// ctx's call stack, returning the generator names from that call on.
func reentered(ctx context.Context, key string) ([]string, bool) {
	stack, _ := ctx.Value(stackKey{}).([]frame)
	for i, f := range stack {
		if f.key == key {
			names := make([]string, 0, len(stack)-i+1)
			for _, g := range stack[i:] {
				names = append(names, g.name)
			}
			return names, true
		}
	}
	return nil, false
}

// running returns the innermost key on ctx's call stack and every key on it.
func running(ctx context.Context) (string, map[string]bool) {
	stack, _ := ctx.Value(stackKey{}).([]frame)
	if len(stack) == 0 {
		return "", nil
	}
	held := make(map[string]bool, len(stack))
	for _, f := range stack {
		held[f.key] = true
	}
	return stack[len(stack)-1].key, held
}
