package hdl

import (
	"fmt"
	"sort"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/namepath"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// Instance places a Target inside a module. It references its target rather
// than owning it.
type Instance struct {
	name   string
	target Target
	params *params.Params
	owner  *Module
	conns  map[string][]Connectable
}

// NewInstance creates a detached instance; add it with Module.Add. The
// params are validated against the target: an ExternalModule requires a
// record of its class (nil means the class defaults), and a generated Module
// carries its own binding, which p must equal if given.
func NewInstance(name string, target Target, p *params.Params) (*Instance, error) {
	if err := validateName("instance", name); err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &hdlerr.DefinitionError{What: fmt.Sprintf("instance %q", name), Reason: "missing target"}
	}
	bound, err := bindParams(name, target, p)
	if err != nil {
		return nil, err
	}
	return &Instance{
		name:   name,
		target: target,
		params: bound,
		conns:  make(map[string][]Connectable),
	}, nil
}

func bindParams(name string, target Target, p *params.Params) (*params.Params, error) {
	switch t := target.(type) {
	case *ExternalModule:
		class := t.class
		if class == nil {
			class = params.None
		}
		if p == nil {
			return params.Defaults(class)
		}
		if p.Class() != class {
			return nil, &hdlerr.TypeMismatchError{
				Field: name + ".params",
				Want:  "paramclass " + class.Name(),
				Got:   "paramclass " + p.Class().Name(),
			}
		}
		return p, nil
	case *Module:
		if p == nil {
			return t.params, nil
		}
		if t.params != nil && !t.params.Equal(p) {
			return nil, &hdlerr.TypeMismatchError{
				Field:  name + ".params",
				Want:   t.params.Format(),
				Got:    p.Format(),
				Reason: "params differ from the binding of the generated module",
			}
		}
		return p, nil
	}
	return p, nil
}

func (i *Instance) Name() string { return i.name }

func (i *Instance) Kind() MemberKind { return KindInstance }

func (i *Instance) Module() *Module { return i.owner }

// Target returns the instantiated module or external module.
func (i *Instance) Target() Target { return i.target }

// Params returns the parameter binding, or nil.
func (i *Instance) Params() *params.Params { return i.params }

// Port refers to a port of this instance, for connecting it to other
// instances. The port is looked up when the reference is connected.
func (i *Instance) Port(name string) *PortRef {
	return &PortRef{inst: i, port: name}
}

// Targets returns what a port is connected to.
func (i *Instance) Targets(port string) []Connectable {
	out := make([]Connectable, len(i.conns[port]))
	copy(out, i.conns[port])
	return out
}

// Connected reports whether a port has at least one connection.
func (i *Instance) Connected(port string) bool {
	return len(i.conns[port]) > 0
}

// ConnectedPorts returns the connected port names, sorted.
func (i *Instance) ConnectedPorts() []string {
	names := make([]string, 0, len(i.conns))
	for name, cs := range i.conns {
		if len(cs) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Connect wires one port (assignment style).
func (i *Instance) Connect(port string, target Connectable) error {
	return Connect(i, port, target)
}

// ConnectAll wires a batch of ports (call style) and returns the instance.
// The batch is atomic.
func (i *Instance) ConnectAll(conns Conns) (*Instance, error) {
	if err := ConnectAll(i, conns); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Instance) String() string { return i.name }

func (i *Instance) member() {}

// PortRef is a reference to a port of an instance.
type PortRef struct {
	inst *Instance
	port string
}

// Instance returns the referenced instance.
func (r *PortRef) Instance() *Instance { return r.inst }

// PortName returns the referenced port name.
func (r *PortRef) PortName() string { return r.port }

// Spec looks up the referenced port on the instance's target.
func (r *PortRef) Spec() (PortSpec, bool) {
	return r.inst.target.LookupPort(r.port)
}

// Width is the width of the referenced port, or 0 if it does not exist.
func (r *PortRef) Width() int {
	spec, ok := r.Spec()
	if !ok {
		return 0
	}
	if spec.IsInterface() {
		return spec.Interface.Width()
	}
	return spec.Width
}

func (r *PortRef) Path() namepath.Path { return namepath.New(r.inst.name, r.port) }

func (r *PortRef) String() string { return r.Path().String() }

func (r *PortRef) connectable() {}
