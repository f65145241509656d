package generator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

var widthParams = params.MustDefine("WidthParams",
	params.Optional("width", cty.Number, "bus width", 1),
)

// buffer returns a generator of width-parameterized pass-through modules and
// a counter of its invocations.
func buffer() (*Generator, *atomic.Int32) {
	var calls atomic.Int32
	g := New("buffer", widthParams, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		calls.Add(1)
		m := hdl.NewModule("")
		w := p.Int("width")
		if _, err := m.AddPort("i", w, hdl.Input); err != nil {
			return nil, err
		}
		if _, err := m.AddPort("o", w, hdl.Output); err != nil {
			return nil, err
		}
		return m, nil
	})
	return g, &calls
}

func TestGenerateCaches(t *testing.T) {
	ctx := context.Background()
	e := NewElaborator()
	g, calls := buffer()

	first, err := e.Generate(ctx, g, map[string]any{"width": 4})
	require.NoError(t, err)
	p, err := params.Construct(widthParams, map[string]any{"width": 4})
	require.NoError(t, err)
	second, err := e.Generate(ctx, g, p)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, first.Finalized())
	assert.Equal(t, "buffer", first.Generator())
	assert.True(t, first.Params().Equal(p))
	assert.Contains(t, first.Name(), "buffer_")

	other, err := e.Generate(ctx, g, map[string]any{"width": 8})
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.NotEqual(t, first.Name(), other.Name())
	assert.Equal(t, int32(2), calls.Load())

	stats := e.Cache().Stats()
	assert.Equal(t, Stats{Hits: 1, Misses: 2, Entries: 2}, stats)
}

func TestIsolatedElaborators(t *testing.T) {
	g, calls := buffer()
	a, err := NewElaborator().Generate(context.Background(), g, nil)
	require.NoError(t, err)
	b, err := NewElaborator().Generate(context.Background(), g, nil)
	require.NoError(t, err)
	assert.NotSame(t, a, b)
	assert.Equal(t, int32(2), calls.Load())

	shared := NewCache()
	c, err := NewElaborator(WithCache(shared)).Generate(context.Background(), g, nil)
	require.NoError(t, err)
	d, err := NewElaborator(WithCache(shared)).Generate(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Same(t, c, d)
	assert.NotNil(t, Default())
}

func TestArgumentErrorsSkipTheFunction(t *testing.T) {
	e := NewElaborator()
	g, calls := buffer()

	_, err := e.Generate(context.Background(), g, map[string]any{"width": "wide"})
	var tm *hdlerr.TypeMismatchError
	require.True(t, errors.As(err, &tm))

	_, err = e.Generate(context.Background(), g, map[string]any{"depth": 2})
	var unk *hdlerr.UnknownParamError
	require.True(t, errors.As(err, &unk))

	_, err = e.Generate(context.Background(), g, 42)
	require.True(t, errors.As(err, &tm))

	foreign, err := params.Construct(params.None, nil)
	require.NoError(t, err)
	_, err = e.Generate(context.Background(), g, foreign)
	require.True(t, errors.As(err, &tm))

	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, e.Cache().Len())
}

func TestFailuresLeaveNoEntry(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	fail := true
	g := New("flaky", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		calls.Add(1)
		if fail {
			return nil, boom
		}
		return hdl.NewModule("Flaky"), nil
	})
	e := NewElaborator()

	_, err := e.Generate(context.Background(), g, nil)
	assert.Same(t, boom, err, "errors are not wrapped")
	assert.Equal(t, 0, e.Cache().Len())

	fail = false
	m, err := e.Generate(context.Background(), g, nil)
	require.NoError(t, err)
	assert.Equal(t, "Flaky", m.Name())
	assert.Equal(t, int32(2), calls.Load())

	t.Run("finalization errors", func(t *testing.T) {
		leaf := hdl.NewModule("Leaf")
		_, err := leaf.AddPort("i", 1, hdl.Input)
		require.NoError(t, err)
		g := New("open", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
			m := hdl.NewModule("")
			_, err := m.AddInstance("u", leaf, nil)
			return m, err
		})
		_, err = e.Generate(context.Background(), g, nil)
		var up *hdlerr.UnconnectedPortError
		assert.True(t, errors.As(err, &up))
	})
}

func TestConcurrentCallsRunOnce(t *testing.T) {
	e := NewElaborator()
	g, calls := buffer()

	const workers = 32
	results := make([]*hdl.Module, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := e.Generate(context.Background(), g, map[string]any{"width": 2})
			assert.NoError(t, err)
			results[i] = m
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, m := range results {
		assert.Same(t, results[0], m)
	}
}

func TestPrivateModules(t *testing.T) {
	e := NewElaborator()
	var private *hdl.Module
	var unused *hdl.Module
	chain := New("chain", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		private = hdl.NewModule("Stage")
		_, _ = private.AddPort("i", 1, hdl.Input)
		_, _ = private.AddPort("o", 1, hdl.Output)
		unused = hdl.NewModule("Scratch")

		m := hdl.NewModule("Chain")
		a, _ := m.AddPort("a", 1, hdl.Input)
		y, _ := m.AddPort("y", 1, hdl.Output)
		s0 := m.MustInstance("s0", private, nil)
		if err := s0.Connect("i", a); err != nil {
			return nil, err
		}
		if err := s0.Connect("o", y); err != nil {
			return nil, err
		}
		return m, nil
	})

	m, err := e.Generate(context.Background(), chain, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, e.Cache().Len())
	assert.Equal(t, []*hdl.Module{m}, e.Cache().Modules())

	reach := hdl.Reachable(m)
	assert.Contains(t, reach, private)
	assert.NotContains(t, reach, unused)
	assert.True(t, private.Finalized())
}

func TestNestedAndRecursiveGenerators(t *testing.T) {
	e := NewElaborator()
	inner, innerCalls := buffer()
	outer := New("outer", widthParams, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		assert.Same(t, e, FromContext(ctx))
		child, err := FromContext(ctx).Generate(ctx, inner, p.ToMapping())
		if err != nil {
			return nil, err
		}
		m := hdl.NewModule("Outer")
		a, _ := m.AddPort("a", p.Int("width"), hdl.Input)
		u := m.MustInstance("u", child, nil)
		return m, u.Connect("i", a)
	})

	m, err := e.Generate(context.Background(), outer, map[string]any{"width": 3})
	require.NoError(t, err)
	u, ok := m.Instance("u")
	require.True(t, ok)
	assert.Equal(t, 3, u.Params().Int("width"), "instances inherit the generator binding")
	assert.Equal(t, int32(1), innerCalls.Load())

	var self *Generator
	self = New("self", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		return e.Generate(ctx, self, nil)
	})
	_, err = e.Generate(context.Background(), self, nil)
	var cyc *hdlerr.CyclicReferenceError
	require.True(t, errors.As(err, &cyc))
	assert.Equal(t, []string{"self", "self"}, cyc.Cycle)
	assert.Equal(t, 2, e.Cache().Len(), "only outer and inner are cached")
	assert.Same(t, Default(), FromContext(context.Background()))
}

func TestCrossGoroutineCycle(t *testing.T) {
	e := NewElaborator()
	var started sync.WaitGroup
	started.Add(2)

	// ping and pong each need the other, and each starts on its own goroutine.
	var ping, pong *Generator
	ping = New("ping", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		started.Done()
		started.Wait()
		return e.Generate(ctx, pong, nil)
	})
	pong = New("pong", nil, func(ctx context.Context, p *params.Params) (*hdl.Module, error) {
		started.Done()
		started.Wait()
		return e.Generate(ctx, ping, nil)
	})

	errs := make(chan error, 2)
	for _, g := range []*Generator{ping, pong} {
		go func() {
			_, err := e.Generate(context.Background(), g, nil)
			errs <- err
		}()
	}

	for range 2 {
		select {
		case err := <-errs:
			var cyc *hdlerr.CyclicReferenceError
			require.True(t, errors.As(err, &cyc), "got %v", err)
			assert.Len(t, cyc.Cycle, 3)
			assert.Equal(t, cyc.Cycle[0], cyc.Cycle[2])
		case <-time.After(5 * time.Second):
			t.Fatal("generators waiting on each other deadlocked")
		}
	}
	assert.Zero(t, e.Cache().Len())
}
