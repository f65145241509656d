package builder

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// Reference is a symbolic connectable, resolved against the module under
// construction once the members it names exist.
type Reference interface {
	// Names lists the members the reference reads.
	Names() []string
	String() string
	resolve(sc *Scope) (hdl.Connectable, error)
}

// Conns maps port names to references for call-style connection.
type Conns map[string]Reference

// Ref refers to a signal, port or interface by name.
func Ref(name string) Reference { return nameRef{name: name} }

// Bit refers to one bit of a signal. Negative indices count from the top.
func Bit(name string, i int) Reference { return bitRef{name: name, index: i} }

// Range refers to bits lo (inclusive) to hi (exclusive) of a signal.
func Range(name string, lo, hi int) Reference { return sliceRef{name: name, start: lo, stop: hi, step: 1} }

// Slice refers to a stepped selection of a signal, as hdl.Signal.Slice.
func Slice(name string, start, stop, step int) Reference {
	return sliceRef{name: name, start: start, stop: stop, step: step}
}

// PortOf refers to a port of another instance.
func PortOf(instance, port string) Reference { return portRef{instance: instance, port: port} }

// Field refers to the signal of an interface field.
func Field(iface, field string) Reference { return fieldRef{iface: iface, field: field} }

// Value wraps an already materialized connectable.
func Value(c hdl.Connectable) Reference { return valueRef{c: c} }

type nameRef struct{ name string }

func (r nameRef) Names() []string { return []string{r.name} }
func (r nameRef) String() string { return r.name }

func (r nameRef) resolve(sc *Scope) (hdl.Connectable, error) {
	mem, err := sc.Member(r.name)
	if err != nil {
		return nil, err
	}
	switch v := mem.(type) {
	case *hdl.Signal:
		return v, nil
	case *hdl.Interface:
		return v, nil
	}
	return nil, &hdlerr.TypeMismatchError{
		Field:  sc.decl,
		Want:   "signal, port or interface",
		Got:    fmt.Sprintf("%s %s", mem.Kind(), r.name),
		Reason: "use PortOf to refer to an instance port",
	}
}

type bitRef struct {
	name  string
	index int
}

func (r bitRef) Names() []string { return []string{r.name} }
func (r bitRef) String() string { return fmt.Sprintf("%s[%d]", r.name, r.index) }

func (r bitRef) resolve(sc *Scope) (hdl.Connectable, error) {
	s, err := sc.Signal(r.name)
	if err != nil {
		return nil, err
	}
	return s.Bit(r.index)
}

type sliceRef struct {
	name              string
	start, stop, step int
}

func (r sliceRef) Names() []string { return []string{r.name} }

func (r sliceRef) String() string {
	if r.step == 1 {
		return fmt.Sprintf("%s[%d:%d]", r.name, r.start, r.stop)
	}
	return fmt.Sprintf("%s[%d:%d:%d]", r.name, r.start, r.stop, r.step)
}

func (r sliceRef) resolve(sc *Scope) (hdl.Connectable, error) {
	s, err := sc.Signal(r.name)
	if err != nil {
		return nil, err
	}
	return s.Slice(r.start, r.stop, r.step)
}

type portRef struct{ instance, port string }

func (r portRef) Names() []string { return []string{r.instance} }
func (r portRef) String() string { return r.instance + "." + r.port }

func (r portRef) resolve(sc *Scope) (hdl.Connectable, error) {
	inst, err := sc.Instance(r.instance)
	if err != nil {
		return nil, err
	}
	return inst.Port(r.port), nil
}

type fieldRef struct{ iface, field string }

func (r fieldRef) Names() []string { return []string{r.iface} }
func (r fieldRef) String() string { return r.iface + "." + r.field }

func (r fieldRef) resolve(sc *Scope) (hdl.Connectable, error) {
	i, err := sc.Interface(r.iface)
	if err != nil {
		return nil, err
	}
	s, ok := i.Field(r.field)
	if !ok {
		return nil, &hdlerr.TypeMismatchError{
			Field:  sc.decl,
			Got:    r.String(),
			Reason: fmt.Sprintf("interface type %q has no field %q", i.Type().Name(), r.field),
		}
	}
	return s, nil
}

type valueRef struct{ c hdl.Connectable }

func (r valueRef) Names() []string { return nil }

func (r valueRef) String() string {
	if r.c == nil {
		return "<nil>"
	}
	return r.c.Path().String()
}

func (r valueRef) resolve(*Scope) (hdl.Connectable, error) { return r.c, nil }
