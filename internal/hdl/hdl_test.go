package hdl

import (
	"errors"
	"testing"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

// leaf builds a module with an input i and an output o.
func leaf(t *testing.T, width int) *Module {
	t.Helper()
	m := NewModule("Leaf")
	_, err := m.AddPort("i", width, Input)
	require.NoError(t, err)
	_, err = m.AddPort("o", width, Output)
	require.NoError(t, err)
	return m
}

func TestDuplicateMembers(t *testing.T) {
	kinds := map[string]func(m *Module, name string) error{
		"signal": func(m *Module, name string) error { _, err := m.AddSignal(name, 1); return err },
		"port":   func(m *Module, name string) error { _, err := m.AddPort(name, 1, Input); return err },
		"interface": func(m *Module, name string) error {
			_, err := m.AddInterface(name, MustInterfaceType("T", InterfaceField{Name: "d", Width: 1}))
			return err
		},
		"instance": func(m *Module, name string) error {
			_, err := m.AddInstance(name, NewModule("Other"), nil)
			return err
		},
	}
	for first, addFirst := range kinds {
		for second, addSecond := range kinds {
			t.Run(first+" then "+second, func(t *testing.T) {
				m := NewModule("M")
				require.NoError(t, addFirst(m, "x"))
				err := addSecond(m, "x")
				var dup *hdlerr.DuplicateMemberError
				require.True(t, errors.As(err, &dup), "got %v", err)
				assert.Equal(t, "x", dup.Name)
				assert.Equal(t, first, dup.Existing)
				assert.Equal(t, second, dup.Incoming)
			})
		}
	}
}

func TestDefinitionErrors(t *testing.T) {
	m := NewModule("M")
	var defErr *hdlerr.DefinitionError

	_, err := m.AddSignal("bad name", 1)
	assert.True(t, errors.As(err, &defErr))
	_, err = m.AddSignal("zero", 0)
	assert.True(t, errors.As(err, &defErr))
	_, err = m.AddPort("p", 1, DirectionNone)
	assert.True(t, errors.As(err, &defErr))
	_, err = m.AddInstance("self", m, nil)
	assert.True(t, errors.As(err, &defErr))
	_, err = m.AddInstance("none", nil, nil)
	assert.True(t, errors.As(err, &defErr))

	s, err := NewSignal("shared", 1)
	require.NoError(t, err)
	_, err = m.Add(s)
	require.NoError(t, err)
	_, err = NewModule("N").Add(s)
	assert.True(t, errors.As(err, &defErr), "a member belongs to one module")
	got, ok := m.Get("shared")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestWidthCheck(t *testing.T) {
	tests := []struct {
		name      string
		portWidth int
		sigWidth  int
		wantErr   bool
	}{
		{name: "4 to 8 fails", portWidth: 8, sigWidth: 4, wantErr: true},
		{name: "4 to 4 succeeds", portWidth: 4, sigWidth: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModule("Top")
			sig, err := m.AddSignal("s", tt.sigWidth)
			require.NoError(t, err)
			inst := m.MustInstance("u1", leaf(t, tt.portWidth), nil)
			err = inst.Connect("i", sig)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var wm *hdlerr.WidthMismatchError
			require.True(t, errors.As(err, &wm))
			assert.Equal(t, 8, wm.PortWidth)
			assert.Equal(t, 4, wm.TargetWidth)
		})
	}
}

func TestReconnection(t *testing.T) {
	m := NewModule("Top")
	a, _ := m.AddSignal("a", 4)
	b, _ := m.AddSignal("b", 4)
	inst := m.MustInstance("u1", leaf(t, 4), nil)

	require.NoError(t, inst.Connect("i", a))
	require.NoError(t, inst.Connect("i", a), "identical re-connection is a no-op")
	assert.Len(t, inst.Targets("i"), 1)

	err := inst.Connect("i", b)
	var re *hdlerr.ReconnectionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "a", re.Existing)
	assert.Equal(t, "b", re.Incoming)

	// Equal slices are the same endpoint.
	bit0, _ := a.Bit(0)
	other := m.MustInstance("u2", leaf(t, 1), nil)
	require.NoError(t, other.Connect("i", bit0))
	again, _ := a.Bit(-4)
	assert.NoError(t, other.Connect("i", again))
}

func TestDriveRules(t *testing.T) {
	t.Run("outputs fan out", func(t *testing.T) {
		m := NewModule("Top")
		a, _ := m.AddSignal("a", 4)
		b, _ := m.AddSignal("b", 4)
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		require.NoError(t, u1.Connect("o", a))
		require.NoError(t, u1.Connect("o", b))
		require.NoError(t, u1.Connect("o", a))
		assert.Len(t, u1.Targets("o"), 2)
	})

	t.Run("two outputs on one net", func(t *testing.T) {
		m := NewModule("Top")
		mid, _ := m.AddSignal("mid", 4)
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		u2 := m.MustInstance("u2", leaf(t, 4), nil)
		require.NoError(t, u1.Connect("o", mid))
		err := u2.Connect("o", mid)
		var de *hdlerr.DirectionError
		require.True(t, errors.As(err, &de))
		assert.Contains(t, de.Reason, "u1.o")
	})

	t.Run("overlapping slices conflict per bit", func(t *testing.T) {
		m := NewModule("Top")
		mid, _ := m.AddSignal("mid", 4)
		u1 := m.MustInstance("u1", leaf(t, 2), nil)
		u2 := m.MustInstance("u2", leaf(t, 2), nil)
		u3 := m.MustInstance("u3", leaf(t, 2), nil)
		lo, _ := mid.Range(0, 2)
		hi, _ := mid.Range(2, 4)
		center, _ := mid.Range(1, 3)
		require.NoError(t, u1.Connect("o", lo))
		require.NoError(t, u2.Connect("o", hi))
		var de *hdlerr.DirectionError
		assert.True(t, errors.As(u3.Connect("o", center), &de))
	})

	t.Run("module input is a driver", func(t *testing.T) {
		m := NewModule("Top")
		a, _ := m.AddPort("a", 4, Input)
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		var de *hdlerr.DirectionError
		assert.True(t, errors.As(u1.Connect("o", a), &de))
		assert.NoError(t, u1.Connect("i", a))
	})

	t.Run("output to output through a port reference", func(t *testing.T) {
		m := NewModule("Top")
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		u2 := m.MustInstance("u2", leaf(t, 4), nil)
		var de *hdlerr.DirectionError
		assert.True(t, errors.As(u2.Connect("o", u1.Port("o")), &de))
		assert.NoError(t, u2.Connect("i", u1.Port("o")))
	})
}

func TestInoutPolicy(t *testing.T) {
	pad := NewModule("Pad")
	_, err := pad.AddPort("io", 1, Inout)
	require.NoError(t, err)

	t.Run("shared", func(t *testing.T) {
		m := NewModule("Top")
		a, _ := m.AddSignal("a", 1)
		b, _ := m.AddSignal("b", 1)
		u := m.MustInstance("u", pad, nil)
		require.NoError(t, u.Connect("io", a))
		require.NoError(t, u.Connect("io", b))
		assert.Len(t, u.Targets("io"), 2)
	})

	t.Run("exclusive", func(t *testing.T) {
		m := NewModule("Top", WithPolicy(Policy{Inout: InoutExclusive}))
		a, _ := m.AddSignal("a", 1)
		b, _ := m.AddSignal("b", 1)
		u := m.MustInstance("u", pad, nil)
		require.NoError(t, u.Connect("io", a))
		var re *hdlerr.ReconnectionError
		assert.True(t, errors.As(u.Connect("io", b), &re))
	})
}

func TestConnectValidation(t *testing.T) {
	m := NewModule("Top")
	a, _ := m.AddSignal("a", 4)
	u := m.MustInstance("u", leaf(t, 4), nil)

	var unk *hdlerr.UnknownPortError
	assert.True(t, errors.As(u.Connect("nope", a), &unk))

	var tm *hdlerr.TypeMismatchError
	assert.True(t, errors.As(u.Connect("i", nil), &tm))
	var nilSig *Signal
	assert.True(t, errors.As(u.Connect("i", nilSig), &tm))

	foreign, _ := NewModule("Elsewhere").AddSignal("f", 4)
	assert.True(t, errors.As(u.Connect("i", foreign), &tm))
	assert.True(t, errors.As(u.Connect("i", u.Port("o")), &tm), "own port")

	u2 := m.MustInstance("u2", leaf(t, 4), nil)
	assert.True(t, errors.As(u.Connect("i", u2.Port("zz")), &unk))

	detached, err := NewInstance("d", leaf(t, 4), nil)
	require.NoError(t, err)
	var defErr *hdlerr.DefinitionError
	assert.True(t, errors.As(detached.Connect("i", a), &defErr))
}

func TestConnectAllIsAtomic(t *testing.T) {
	m := NewModule("Top")
	a, _ := m.AddSignal("a", 4)
	mid, _ := m.AddSignal("mid", 4)
	wide, _ := m.AddSignal("wide", 8)
	u := m.MustInstance("u", leaf(t, 4), nil)

	// Ports apply in sorted order: i connects, then o fails.
	_, err := u.ConnectAll(Conns{"i": a, "o": wide})
	var wm *hdlerr.WidthMismatchError
	require.True(t, errors.As(err, &wm))
	assert.False(t, u.Connected("i"))
	assert.False(t, u.Connected("o"))

	got, err := u.ConnectAll(Conns{"i": a, "o": mid})
	require.NoError(t, err)
	assert.Same(t, u, got)

	// A failed batch must not leave drivers behind either.
	v := m.MustInstance("v", leaf(t, 4), nil)
	_, err = v.ConnectAll(Conns{"o": a, "zz": a})
	var unk *hdlerr.UnknownPortError
	require.True(t, errors.As(err, &unk))
	w := m.MustInstance("w", leaf(t, 4), nil)
	assert.NoError(t, w.Connect("o", a))
}

func TestInterfaces(t *testing.T) {
	bus := MustInterfaceType("Bus", InterfaceField{Name: "data", Width: 8}, InterfaceField{Name: "valid", Width: 1})
	same := MustInterfaceType("OtherBus", InterfaceField{Name: "data", Width: 8}, InterfaceField{Name: "valid", Width: 1})
	narrow := MustInterfaceType("Narrow", InterfaceField{Name: "data", Width: 4}, InterfaceField{Name: "valid", Width: 1})

	assert.True(t, bus.Equivalent(same))
	assert.False(t, bus.Equivalent(narrow))

	child := NewModule("Child")
	_, err := child.AddInterfacePort("bus", bus)
	require.NoError(t, err)

	m := NewModule("Top")
	local, err := m.AddInterface("b", same)
	require.NoError(t, err)
	bad, err := m.AddInterface("n", narrow)
	require.NoError(t, err)
	plain, _ := m.AddSignal("s", 9)

	u := m.MustInstance("u", child, nil)
	var tm *hdlerr.TypeMismatchError
	assert.True(t, errors.As(u.Connect("bus", bad), &tm))
	assert.True(t, errors.As(u.Connect("bus", plain), &tm))
	require.NoError(t, u.Connect("bus", local))

	data, ok := local.Field("data")
	require.True(t, ok)
	assert.Equal(t, "b.data", data.String())
	bit, err := data.Bit(7)
	require.NoError(t, err)
	assert.Equal(t, "b.data[7]", bit.String())

	assert.NoError(t, m.Finalize())
}

func TestSlices(t *testing.T) {
	m := NewModule("M")
	s, _ := m.AddSignal("mid", 8)

	tests := []struct {
		name       string
		start      int
		stop       int
		step       int
		wantBits   []int
		wantString string
		wantErr    bool
	}{
		{name: "range", start: 0, stop: 4, step: 1, wantBits: []int{0, 1, 2, 3}, wantString: "mid[0:4]"},
		{name: "negative start", start: -2, stop: Open, step: 1, wantBits: []int{6, 7}, wantString: "mid[6:8]"},
		{name: "stepped", start: 0, stop: 8, step: 3, wantBits: []int{0, 3, 6}, wantString: "mid[0:9:3]"},
		{name: "reversed", start: Open, stop: Open, step: -2, wantBits: []int{7, 5, 3, 1}, wantString: "mid[7:-1:-2]"},
		{name: "reversed bounded", start: 3, stop: 0, step: -1, wantBits: []int{3, 2, 1}, wantString: "mid[3:0:-1]"},
		{name: "zero step", start: 0, stop: 4, step: 0, wantErr: true},
		{name: "past the end", start: 0, stop: 9, step: 1, wantErr: true},
		{name: "empty", start: 4, stop: 4, step: 1, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sl, err := s.Slice(tt.start, tt.stop, tt.step)
			if tt.wantErr {
				var re *hdlerr.RangeError
				assert.True(t, errors.As(err, &re), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBits, sl.Bits())
			assert.Equal(t, len(tt.wantBits), sl.Width())
			assert.Equal(t, tt.wantString, sl.String())
		})
	}

	b, err := s.Bit(-1)
	require.NoError(t, err)
	assert.Equal(t, "mid[7]", b.String())
	_, err = s.Bit(8)
	var re *hdlerr.RangeError
	assert.True(t, errors.As(err, &re))
}

func TestFinalize(t *testing.T) {
	t.Run("unconnected input", func(t *testing.T) {
		m := NewModule("Top")
		mid, _ := m.AddSignal("mid", 4)
		u := m.MustInstance("u1", leaf(t, 4), nil)
		require.NoError(t, u.Connect("o", mid))

		err := m.Finalize()
		var up *hdlerr.UnconnectedPortError
		require.True(t, errors.As(err, &up))
		assert.Equal(t, "u1", up.Instance)
		assert.Equal(t, []string{"i"}, up.Ports)
		assert.False(t, m.Finalized())
	})

	t.Run("outputs required by policy", func(t *testing.T) {
		m := NewModule("Top", WithPolicy(Policy{RequireOutputs: true}))
		a, _ := m.AddPort("a", 4, Input)
		u := m.MustInstance("u1", leaf(t, 4), nil)
		require.NoError(t, u.Connect("i", a))
		var up *hdlerr.UnconnectedPortError
		require.True(t, errors.As(m.Finalize(), &up))
		assert.Equal(t, []string{"o"}, up.Ports)
	})

	t.Run("sealed module is immutable", func(t *testing.T) {
		child := leaf(t, 1)
		m := NewModule("Top")
		a, _ := m.AddPort("a", 1, Input)
		u := m.MustInstance("u1", child, nil)
		require.NoError(t, u.Connect("i", a))
		require.NoError(t, m.Finalize())
		require.NoError(t, m.Finalize(), "idempotent")
		assert.True(t, child.Finalized(), "children are finalized first")

		var fe *hdlerr.FinalizedError
		_, err := m.AddSignal("late", 1)
		assert.True(t, errors.As(err, &fe))
		assert.True(t, errors.As(u.Connect("o", a), &fe))
		_, err = child.AddPort("extra", 1, Input)
		assert.True(t, errors.As(err, &fe))
	})

	t.Run("recursive instantiation", func(t *testing.T) {
		a := NewModule("A")
		b := NewModule("B")
		a.MustInstance("b", b, nil)
		b.MustInstance("a", a, nil)
		var defErr *hdlerr.DefinitionError
		err := a.Finalize()
		require.True(t, errors.As(err, &defErr))
		assert.Contains(t, defErr.Reason, "A -> B -> A")
	})
}

func TestExternalModules(t *testing.T) {
	class := params.MustDefine("MosParams",
		params.Optional("w", cty.Number, "width", 1),
		params.Optional("l", cty.Number, "length", 1),
	)
	nmos := MustExternalModule(ExternalSpec{
		Name:   "Nmos",
		Domain: "generic",
		Class:  class,
		Ports: []PortSpec{
			{Name: "d", Width: 1, Direction: Inout},
			{Name: "g", Width: 1, Direction: Inout},
			{Name: "s", Width: 1, Direction: Inout},
			{Name: "b", Width: 1, Direction: Inout},
		},
	})

	m := NewModule("Top")
	inst := m.MustInstance("n0", nmos, nil)
	require.NotNil(t, inst.Params())
	assert.Equal(t, 1, inst.Params().Int("w"))

	p, err := params.Construct(class, map[string]any{"w": 2})
	require.NoError(t, err)
	inst2 := m.MustInstance("n1", nmos, p)
	assert.Same(t, p, inst2.Params())

	foreign, err := params.Construct(params.MustDefine("Other"), nil)
	require.NoError(t, err)
	_, err = m.AddInstance("n2", nmos, foreign)
	var tm *hdlerr.TypeMismatchError
	assert.True(t, errors.As(err, &tm))

	_, err = NewExternalModule(ExternalSpec{Name: "Bad", Ports: []PortSpec{{Name: "x", Width: 1}}})
	var defErr *hdlerr.DefinitionError
	assert.True(t, errors.As(err, &defErr))
}

func TestConnectionsAndReachable(t *testing.T) {
	inner := leaf(t, 4)
	mid := NewModule("Mid")
	ma, _ := mid.AddPort("a", 4, Input)
	my, _ := mid.AddPort("y", 4, Output)
	l := mid.MustInstance("l", inner, nil)
	_, err := l.ConnectAll(Conns{"i": ma, "o": my})
	require.NoError(t, err)

	top := NewModule("Top")
	ta, _ := top.AddPort("a", 4, Input)
	u1 := top.MustInstance("u1", mid, nil)
	u2 := top.MustInstance("u2", mid, nil)
	require.NoError(t, u1.Connect("a", ta))
	require.NoError(t, u2.Connect("a", u1.Port("y")))

	conns := top.Connections()
	require.Len(t, conns, 3)
	assert.Equal(t, "u1", conns[0].Instance.Name())
	assert.Equal(t, "a", conns[0].Port)
	assert.Equal(t, "y", conns[1].Port)
	assert.Equal(t, "u2.a", conns[1].Targets[0].Path().String(), "both sides of a port reference are recorded")
	assert.Equal(t, "u2", conns[2].Instance.Name())
	assert.Equal(t, "u1.y", conns[2].Targets[0].Path().String())

	fan := top.Fanout(ta)
	require.Len(t, fan, 1)
	assert.Equal(t, "u1.a", fan[0].String())

	require.NoError(t, top.Finalize())
	got := Reachable(top)
	require.Len(t, got, 3)
	assert.Same(t, inner, got[0])
	assert.Same(t, mid, got[1])
	assert.Same(t, top, got[2])
}

func TestPortReferences(t *testing.T) {
	t.Run("output into an input port finalizes", func(t *testing.T) {
		m := NewModule("Top")
		a, _ := m.AddPort("a", 4, Input)
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		u2 := m.MustInstance("u2", leaf(t, 4), nil)
		require.NoError(t, u1.Connect("i", a))
		require.NoError(t, u1.Connect("o", u2.Port("i")))

		assert.True(t, u2.Connected("i"))
		assert.Equal(t, "u1.o", u2.Targets("i")[0].Path().String())
		require.NoError(t, u2.Connect("i", u1.Port("o")), "the reverse connection is already recorded")
		assert.Len(t, u2.Targets("i"), 1)
		assert.Len(t, u1.Targets("o"), 1)
		require.NoError(t, m.Finalize())
	})

	testCases := []struct {
		name    string
		connect func(u1, u2, u3 *Instance) error
		wantErr any
	}{
		{
			name: "second output onto a referenced input",
			connect: func(u1, u2, u3 *Instance) error {
				if err := u2.Connect("i", u1.Port("o")); err != nil {
					return err
				}
				return u3.Connect("o", u2.Port("i"))
			},
			wantErr: new(*hdlerr.DirectionError),
		},
		{
			name: "second output through the input side",
			connect: func(u1, u2, u3 *Instance) error {
				if err := u1.Connect("o", u2.Port("i")); err != nil {
					return err
				}
				return u3.Connect("o", u2.Port("i"))
			},
			wantErr: new(*hdlerr.DirectionError),
		},
		{
			name: "referenced input is write-once",
			connect: func(u1, u2, u3 *Instance) error {
				if err := u2.Connect("i", u1.Port("o")); err != nil {
					return err
				}
				return u3.Connect("i", u2.Port("i"))
			},
			wantErr: new(*hdlerr.ReconnectionError),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewModule("Top")
			u1 := m.MustInstance("u1", leaf(t, 4), nil)
			u2 := m.MustInstance("u2", leaf(t, 4), nil)
			u3 := m.MustInstance("u3", leaf(t, 4), nil)

			err := tc.connect(u1, u2, u3)
			require.Error(t, err)
			assert.ErrorAs(t, err, tc.wantErr)
			assert.Len(t, u2.Targets("i"), 1, "a rejected connection changes neither side")
			assert.Empty(t, u3.ConnectedPorts())
		})
	}

	t.Run("batch rollback restores the referenced instance", func(t *testing.T) {
		m := NewModule("Top")
		a, _ := m.AddSignal("a", 2)
		u1 := m.MustInstance("u1", leaf(t, 4), nil)
		u2 := m.MustInstance("u2", leaf(t, 4), nil)
		u3 := m.MustInstance("u3", leaf(t, 4), nil)

		// "i" applies first, then "o" fails on width.
		_, err := u2.ConnectAll(Conns{"i": u1.Port("o"), "o": a})
		var wm *hdlerr.WidthMismatchError
		require.ErrorAs(t, err, &wm)
		assert.Empty(t, u1.ConnectedPorts())
		assert.Empty(t, u2.ConnectedPorts())
		require.NoError(t, u3.Connect("o", u2.Port("i")), "no driver was left behind")
	})
}
