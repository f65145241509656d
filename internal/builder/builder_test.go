package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leafModule(t *testing.T) *hdl.Module {
	t.Helper()
	m := hdl.NewModule("Leaf")
	_, err := m.AddPort("i", 4, hdl.Input)
	require.NoError(t, err)
	_, err = m.AddPort("o", 4, hdl.Output)
	require.NoError(t, err)
	_, err = m.AddPort("en", 1, hdl.Input)
	require.NoError(t, err)
	return m
}

// fingerprint renders a module's members and wiring independently of
// declaration order.
func fingerprint(m *hdl.Module) []string {
	var out []string
	for _, mem := range m.Members() {
		out = append(out, fmt.Sprintf("%s %s", mem.Kind(), mem.Name()))
	}
	for _, c := range m.Connections() {
		for _, target := range c.Targets {
			out = append(out, fmt.Sprintf("%s.%s -> %s", c.Instance.Name(), c.Port, target.Path()))
		}
	}
	sort.Strings(out)
	return out
}

type step func(b *Builder)

func TestForwardReferences(t *testing.T) {
	leaf := leafModule(t)
	b := New("Top")
	b.Instance("u2", leaf, nil, Conns{"i": Ref("mid"), "o": Ref("y"), "en": Bit("a", 0)})
	b.Instance("u1", leaf, nil, Conns{"i": Ref("a"), "o": Ref("mid"), "en": Bit("a", -1)})
	b.Signal("mid", 4)
	b.Port("a", 4, hdl.Input)
	b.Port("y", 4, hdl.Output)

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Finalize())

	u2, ok := m.Instance("u2")
	require.True(t, ok)
	assert.Equal(t, "mid", u2.Targets("i")[0].Path().String())
	assert.Equal(t, "a[0]", u2.Targets("en")[0].Path().String())
	u1, _ := m.Instance("u1")
	assert.Equal(t, "a[3]", u1.Targets("en")[0].Path().String())
}

func TestOrderIndependence(t *testing.T) {
	leaf := leafModule(t)
	steps := []step{
		func(b *Builder) { b.Signal("mid", 4) },
		func(b *Builder) { b.Port("a", 4, hdl.Input) },
		func(b *Builder) { b.Port("y", 4, hdl.Output) },
		func(b *Builder) { b.Instance("u1", leaf, nil, Conns{"i": Ref("a"), "o": Ref("mid")}) },
		func(b *Builder) { b.Instance("u2", leaf, nil, Conns{"i": PortOf("u1", "o")}) },
		func(b *Builder) { b.Connect("u2", "o", Ref("y")) },
		func(b *Builder) { b.ConnectAll("u1", Conns{"en": Bit("a", 1)}) },
		func(b *Builder) { b.Connect("u2", "en", Range("mid", 2, 3)) },
	}

	var want []string
	permute(len(steps), func(order []int) {
		b := New("Top")
		for _, i := range order {
			steps[i](b)
		}
		m, err := b.Build(context.Background())
		require.NoError(t, err, "order %v", order)
		got := fingerprint(m)
		if want == nil {
			want = got
			return
		}
		require.Equal(t, want, got, "order %v", order)
	})
	assert.Contains(t, want, "u2.i -> u1.o")
	assert.Contains(t, want, "u2.en -> mid[2:3]")
}

// permute calls fn with every permutation of 0..n-1 (Heap's algorithm).
func permute(n int, fn func([]int)) {
	a := make([]int, n)
	for i := range a {
		a[i] = i
	}
	var gen func(k int)
	gen = func(k int) {
		if k == 1 {
			fn(a)
			return
		}
		for i := 0; i < k-1; i++ {
			gen(k - 1)
			if k%2 == 0 {
				a[i], a[k-1] = a[k-1], a[i]
			} else {
				a[0], a[k-1] = a[k-1], a[0]
			}
		}
		gen(k - 1)
	}
	gen(n)
}

func TestCyclicInstances(t *testing.T) {
	leaf := leafModule(t)
	b := New("M")
	b.Instance("A", leaf, nil, Conns{"i": PortOf("B", "o")})
	b.Instance("B", leaf, nil, Conns{"i": PortOf("A", "o")})
	b.Signal("unrelated", 1)

	_, err := b.Build(context.Background())
	var cyc *hdlerr.CyclicReferenceError
	require.True(t, errors.As(err, &cyc), "got %v", err)
	assert.ElementsMatch(t, []string{"A", "B"}, cyc.Cycle[:2])
	assert.Equal(t, cyc.Cycle[0], cyc.Cycle[len(cyc.Cycle)-1])
}

func TestStaticChecks(t *testing.T) {
	t.Run("duplicate across kinds", func(t *testing.T) {
		b := New("M").Signal("x", 1).Port("x", 1, hdl.Input)
		_, err := b.Build(context.Background())
		var dup *hdlerr.DuplicateMemberError
		require.True(t, errors.As(err, &dup))
		assert.Equal(t, "signal", dup.Existing)
		assert.Equal(t, "port", dup.Incoming)
	})

	t.Run("undefined reference", func(t *testing.T) {
		b := New("M").Instance("u", leafModule(t), nil, Conns{"i": Ref("ghost")})
		_, err := b.Build(context.Background())
		var undef *hdlerr.UndefinedReferenceError
		require.True(t, errors.As(err, &undef))
		assert.Equal(t, "ghost", undef.Name)
		assert.Equal(t, "u", undef.Declaration)
	})
}

func TestConnectionErrorsKeepTheirType(t *testing.T) {
	b := New("M")
	b.Instance("u", leafModule(t), nil, Conns{"i": Ref("narrow")})
	b.Signal("narrow", 2)
	_, err := b.Build(context.Background())
	var wm *hdlerr.WidthMismatchError
	require.True(t, errors.As(err, &wm))
	assert.Equal(t, 4, wm.PortWidth)
}

func TestDeclare(t *testing.T) {
	bus := hdl.MustInterfaceType("Bus", hdl.InterfaceField{Name: "data", Width: 4})
	calls := 0
	b := New("M")
	// A signal as wide as the interface field, declared before the interface.
	b.Declare("copy", func(sc *Scope) (hdl.Member, error) {
		calls++
		i, err := sc.Interface("bus")
		if err != nil {
			return nil, err
		}
		data, _ := i.Field("data")
		return hdl.NewSignal("copy", data.Width())
	})
	b.Interface("bus", bus, false)
	b.ConnectAll("u", Conns{"i": Field("bus", "data"), "o": Ref("copy")})
	b.Instance("u", leafModule(t), nil, nil)

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "suspended once, then resolved")
	s, ok := m.Signal("copy")
	require.True(t, ok)
	assert.Equal(t, 4, s.Width())

	t.Run("self reference", func(t *testing.T) {
		b := New("M").Declare("x", func(sc *Scope) (hdl.Member, error) {
			if _, err := sc.Member("x"); err != nil {
				return nil, err
			}
			return hdl.NewSignal("x", 1)
		})
		_, err := b.Build(context.Background())
		var cyc *hdlerr.CyclicReferenceError
		require.True(t, errors.As(err, &cyc))
		assert.Equal(t, []string{"x", "x"}, cyc.Cycle)
	})

	t.Run("undeclared lookup", func(t *testing.T) {
		b := New("M").Declare("x", func(sc *Scope) (hdl.Member, error) {
			_, err := sc.Signal("nobody")
			return nil, err
		})
		_, err := b.Build(context.Background())
		var undef *hdlerr.UndefinedReferenceError
		assert.True(t, errors.As(err, &undef))
	})
}

func TestProceduralBuildNeedsOnePass(t *testing.T) {
	b := New("M", WithDescription("no forward references"))
	b.Port("a", 4, hdl.Input).Signal("s", 4)
	b.Instance("u", leafModule(t), nil, Conns{"i": Ref("a"), "o": Ref("s"), "en": Bit("a", 0)})
	m, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "no forward references", m.Description())
	assert.Len(t, m.Members(), 3)
	assert.Equal(t, 3, b.Len())
}

func TestPortReferenceIntoInput(t *testing.T) {
	leaf := leafModule(t)
	b := New("Top")
	// u1 drives u2's input before u2 is declared; u2.i gets no other connection.
	b.Instance("u1", leaf, nil, Conns{"i": Ref("a"), "o": PortOf("u2", "i"), "en": Bit("a", 0)})
	b.Instance("u2", leaf, nil, Conns{"o": Ref("y"), "en": Bit("a", 1)})
	b.Port("a", 4, hdl.Input)
	b.Port("y", 4, hdl.Output)

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.Finalize())

	u2, ok := m.Instance("u2")
	require.True(t, ok)
	assert.Equal(t, "u1.o", u2.Targets("i")[0].Path().String())
	assert.Contains(t, fingerprint(m), "u2.i -> u1.o")

	t.Run("second driver", func(t *testing.T) {
		b.Instance("u3", leaf, nil, Conns{"i": Ref("a"), "o": PortOf("u2", "i"), "en": Bit("a", 2)})
		_, err := b.Build(context.Background())
		var de *hdlerr.DirectionError
		require.True(t, errors.As(err, &de), "got %v", err)
		assert.Contains(t, []string{"u1", "u3"}, de.Instance)
		assert.Equal(t, "o", de.Port)
	})
}
