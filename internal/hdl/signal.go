package hdl

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/namepath"
)

// Signal is a named wire of a given width. A Signal with PortVisibility is a
// port of its module.
type Signal struct {
	name  string
	width int
	vis   Visibility
	dir   Direction
	desc  string
	owner *Module
	iface *Interface // set for the field signals of an interface
}

// NewSignal creates a detached internal signal; add it with Module.Add.
func NewSignal(name string, width int) (*Signal, error) {
	if err := validateName("signal", name); err != nil {
		return nil, err
	}
	if err := validateWidth(fmt.Sprintf("signal %q", name), width); err != nil {
		return nil, err
	}
	return &Signal{name: name, width: width, vis: Internal}, nil
}

// NewPort creates a detached port.
func NewPort(name string, width int, dir Direction) (*Signal, error) {
	s, err := NewSignal(name, width)
	if err != nil {
		return nil, err
	}
	if dir == DirectionNone {
		return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("port %q", name), Reason: "a port needs a direction"}
	}
	s.vis = PortVisibility
	s.dir = dir
	return s, nil
}

func (s *Signal) Name() string { return s.name }

func (s *Signal) Kind() MemberKind {
	if s.vis == PortVisibility {
		return KindPort
	}
	return KindSignal
}

func (s *Signal) Module() *Module { return s.owner }

func (s *Signal) Width() int { return s.width }

func (s *Signal) Direction() Direction { return s.dir }

func (s *Signal) Visibility() Visibility { return s.vis }

// IsPort reports whether the signal is a port of its module.
func (s *Signal) IsPort() bool { return s.vis == PortVisibility }

// Interface returns the interface the signal belongs to, if any.
func (s *Signal) Interface() *Interface { return s.iface }

// Description returns the optional documentation string.
func (s *Signal) Description() string { return s.desc }

// SetDescription documents the signal. It fails once the module is
// finalized.
func (s *Signal) SetDescription(desc string) error {
	if s.owner != nil && s.owner.finalized {
		return &hdlerr.FinalizedError{Module: s.owner.name, Op: "describe signal " + s.name}
	}
	s.desc = desc
	return nil
}

func (s *Signal) Path() namepath.Path {
	if s.iface != nil {
		return namepath.New(s.iface.name, s.name)
	}
	return namepath.New(s.name)
}

func (s *Signal) String() string { return s.Path().String() }

// Bit selects a single bit. Negative indices count from the top.
func (s *Signal) Bit(i int) (*Slice, error) {
	idx := i
	if idx < 0 {
		idx += s.width
	}
	if idx < 0 || idx >= s.width {
		return nil, &hdlerr.RangeError{Signal: s.String(), Width: s.width, Reason: fmt.Sprintf("index %d out of range", i)}
	}
	return &Slice{signal: s, bits: []int{idx}, single: true}, nil
}

// Range selects bits start (inclusive) to stop (exclusive).
func (s *Signal) Range(start, stop int) (*Slice, error) {
	return s.Slice(start, stop, 1)
}

// Slice selects bits Python style: negative indices count from the top,
// start is inclusive, stop exclusive, and a negative step walks downwards.
// Open may be passed for start or stop to select up to the end.
func (s *Signal) Slice(start, stop, step int) (*Slice, error) {
	bits, err := sliceBits(s.width, start, stop, step)
	if err != nil {
		return nil, &hdlerr.RangeError{Signal: s.String(), Width: s.width, Reason: err.Error()}
	}
	return &Slice{signal: s, bits: bits, step: step}, nil
}

func (s *Signal) member()      {}
func (s *Signal) connectable() {}
