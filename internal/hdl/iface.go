package hdl

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/namepath"
)

// InterfaceField is one entry of an InterfaceType.
type InterfaceField struct {
	Name  string
	Width int
	// Role is the direction of the field as seen from the module exposing
	// the interface as a port. It is informational.
	Role Direction
}

// InterfaceType is a named, ordered bundle definition.
type InterfaceType struct {
	name   string
	fields []InterfaceField
	index  map[string]int
}

// NewInterfaceType validates and creates an interface type.
func NewInterfaceType(name string, fields ...InterfaceField) (*InterfaceType, error) {
	if err := validateName("interface type", name); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("interface type %q", name), Reason: "no fields"}
	}
	t := &InterfaceType{name: name, index: make(map[string]int, len(fields))}
	for _, f := range fields {
		what := fmt.Sprintf("interface type %q field", name)
		if err := validateName(what, f.Name); err != nil {
			return nil, err
		}
		if err := validateWidth(what+" "+f.Name, f.Width); err != nil {
			return nil, err
		}
		if _, dup := t.index[f.Name]; dup {
			return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("interface type %q", name), Reason: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		t.index[f.Name] = len(t.fields)
		t.fields = append(t.fields, f)
	}
	return t, nil
}

// MustInterfaceType is NewInterfaceType for package-level declarations.
func MustInterfaceType(name string, fields ...InterfaceField) *InterfaceType {
	t, err := NewInterfaceType(name, fields...)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *InterfaceType) Name() string { return t.name }

// Fields returns the fields in declaration order.
func (t *InterfaceType) Fields() []InterfaceField {
	out := make([]InterfaceField, len(t.fields))
	copy(out, t.fields)
	return out
}

// Width is the total bit count of the bundle.
func (t *InterfaceType) Width() int {
	w := 0
	for _, f := range t.fields {
		w += f.Width
	}
	return w
}

// Equivalent reports structural equivalence: the same field names and
// widths in the same order. Type names and roles are not compared.
func (t *InterfaceType) Equivalent(other *InterfaceType) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil || len(t.fields) != len(other.fields) {
		return false
	}
	for i := range t.fields {
		if t.fields[i].Name != other.fields[i].Name || t.fields[i].Width != other.fields[i].Width {
			return false
		}
	}
	return true
}

// Interface is an instance of an InterfaceType inside a module. It owns one
// signal per field.
type Interface struct {
	name    string
	typ     *InterfaceType
	port    bool
	owner   *Module
	signals []*Signal
}

// NewInterface creates a detached interface member. With asPort it is
// exposed as an interface port of its module.
func NewInterface(name string, typ *InterfaceType, asPort bool) (*Interface, error) {
	if err := validateName("interface", name); err != nil {
		return nil, err
	}
	if typ == nil {
		return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("interface %q", name), Reason: "missing interface type"}
	}
	i := &Interface{name: name, typ: typ, port: asPort}
	for _, f := range typ.fields {
		i.signals = append(i.signals, &Signal{name: f.Name, width: f.Width, vis: Internal, dir: DirectionNone, iface: i})
	}
	return i, nil
}

func (i *Interface) Name() string { return i.name }

func (i *Interface) Kind() MemberKind { return KindInterface }

func (i *Interface) Module() *Module { return i.owner }

// Type returns the interface type.
func (i *Interface) Type() *InterfaceType { return i.typ }

// IsPort reports whether the interface is exposed as a port.
func (i *Interface) IsPort() bool { return i.port }

// Field returns the signal of a field.
func (i *Interface) Field(name string) (*Signal, bool) {
	idx, ok := i.typ.index[name]
	if !ok {
		return nil, false
	}
	return i.signals[idx], true
}

// Signals returns the field signals in field order.
func (i *Interface) Signals() []*Signal {
	out := make([]*Signal, len(i.signals))
	copy(out, i.signals)
	return out
}

func (i *Interface) Width() int { return i.typ.Width() }

func (i *Interface) Path() namepath.Path { return namepath.New(i.name) }

func (i *Interface) String() string { return i.name }

func (i *Interface) setOwner(m *Module) {
	i.owner = m
	for _, s := range i.signals {
		s.owner = m
	}
}

func (i *Interface) member()      {}
func (i *Interface) connectable() {}
