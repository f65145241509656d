package hdl

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// Module is a structural hardware description: ordered members and the
// wiring between them.
type Module struct {
	name      string
	desc      string
	policy    Policy
	params    *params.Params
	generator string

	members []Member
	index   map[string]Member
	wiring  *wiring

	finalized bool
}

// Option configures a Module.
type Option func(*Module)

// WithPolicy sets the wiring policy.
func WithPolicy(p Policy) Option {
	return func(m *Module) { m.policy = p }
}

// WithDescription documents the module.
func WithDescription(desc string) Option {
	return func(m *Module) { m.desc = desc }
}

// NewModule creates an empty module. The name may be left empty when the
// module is returned from a generator, which names it.
func NewModule(name string, opts ...Option) *Module {
	m := &Module{
		name:   name,
		policy: DefaultPolicy,
		index:  make(map[string]Member),
		wiring: newWiring(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Module) Name() string { return m.name }

// SetName renames an unfinalized module.
func (m *Module) SetName(name string) error {
	if err := m.mutable("rename"); err != nil {
		return err
	}
	m.name = name
	return nil
}

func (m *Module) Description() string { return m.desc }

func (m *Module) Policy() Policy { return m.policy }

// Params returns the parameter binding of a generated module, or nil.
func (m *Module) Params() *params.Params { return m.params }

// Generator returns the name of the generator that produced the module.
func (m *Module) Generator() string { return m.generator }

// BindGenerator records the generator and parameters a module was built
// from. Instances of the module inherit the binding.
func (m *Module) BindGenerator(generator string, p *params.Params) error {
	if err := m.mutable("bind generator"); err != nil {
		return err
	}
	m.generator = generator
	m.params = p
	return nil
}

// Finalized reports whether the module is sealed.
func (m *Module) Finalized() bool {
	finalizeMu.Lock()
	defer finalizeMu.Unlock()
	return m.finalized
}

func (m *Module) mutable(op string) error {
	if m.finalized {
		return &hdlerr.FinalizedError{Module: m.name, Op: op}
	}
	return nil
}

// AddSignal adds an internal signal.
func (m *Module) AddSignal(name string, width int) (*Signal, error) {
	s, err := NewSignal(name, width)
	if err != nil {
		return nil, err
	}
	if _, err := m.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddPort adds a port.
func (m *Module) AddPort(name string, width int, dir Direction) (*Signal, error) {
	s, err := NewPort(name, width, dir)
	if err != nil {
		return nil, err
	}
	if _, err := m.Add(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddInterface adds an internal interface of the given type.
func (m *Module) AddInterface(name string, typ *InterfaceType) (*Interface, error) {
	return m.addInterface(name, typ, false)
}

// AddInterfacePort adds an interface exposed as a port.
func (m *Module) AddInterfacePort(name string, typ *InterfaceType) (*Interface, error) {
	return m.addInterface(name, typ, true)
}

func (m *Module) addInterface(name string, typ *InterfaceType, asPort bool) (*Interface, error) {
	i, err := NewInterface(name, typ, asPort)
	if err != nil {
		return nil, err
	}
	if _, err := m.Add(i); err != nil {
		return nil, err
	}
	return i, nil
}

// AddInstance adds an instance of target. p may be nil.
func (m *Module) AddInstance(name string, target Target, p *params.Params) (*Instance, error) {
	inst, err := NewInstance(name, target, p)
	if err != nil {
		return nil, err
	}
	if _, err := m.Add(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// MustInstance is AddInstance for tests and library code; it panics on
// error.
func (m *Module) MustInstance(name string, target Target, p *params.Params) *Instance {
	inst, err := m.AddInstance(name, target, p)
	if err != nil {
		panic(err)
	}
	return inst
}

// Add attaches a detached member. A member belongs to at most one module.
func (m *Module) Add(mem Member) (Member, error) {
	if err := m.mutable("add " + mem.Kind().String() + " " + mem.Name()); err != nil {
		return nil, err
	}
	if owner := mem.Module(); owner != nil {
		return nil, &hdlerr.DefinitionError{
			What:   fmt.Sprintf("%s %q", mem.Kind(), mem.Name()),
			Reason: fmt.Sprintf("already belongs to module %q", owner.name),
		}
	}
	if existing, ok := m.index[mem.Name()]; ok {
		return nil, &hdlerr.DuplicateMemberError{
			Module:   m.name,
			Name:     mem.Name(),
			Existing: existing.Kind().String(),
			Incoming: mem.Kind().String(),
		}
	}

	switch v := mem.(type) {
	case *Signal:
		v.owner = m
		if v.dir == Input {
			m.wiring.seedInput(v)
		}
	case *Interface:
		v.setOwner(m)
	case *Instance:
		if v.target == Target(m) {
			return nil, &hdlerr.DefinitionError{
				What:   fmt.Sprintf("instance %q", v.name),
				Reason: fmt.Sprintf("module %q cannot instantiate itself", m.name),
			}
		}
		v.owner = m
	}
	m.members = append(m.members, mem)
	m.index[mem.Name()] = mem
	return mem, nil
}

// Get looks up a member by name.
func (m *Module) Get(name string) (Member, bool) {
	mem, ok := m.index[name]
	return mem, ok
}

// Members returns all members in insertion order.
func (m *Module) Members() []Member {
	out := make([]Member, len(m.members))
	copy(out, m.members)
	return out
}

// Signal returns a signal or port by name.
func (m *Module) Signal(name string) (*Signal, bool) {
	s, ok := m.index[name].(*Signal)
	return s, ok
}

// Instance returns an instance by name.
func (m *Module) Instance(name string) (*Instance, bool) {
	i, ok := m.index[name].(*Instance)
	return i, ok
}

// Interface returns an interface by name.
func (m *Module) Interface(name string) (*Interface, bool) {
	i, ok := m.index[name].(*Interface)
	return i, ok
}

// Signals returns internal signals, excluding ports.
func (m *Module) Signals() []*Signal {
	var out []*Signal
	for _, mem := range m.members {
		if s, ok := mem.(*Signal); ok && !s.IsPort() {
			out = append(out, s)
		}
	}
	return out
}

// Ports returns the signal ports in declaration order.
func (m *Module) Ports() []*Signal {
	var out []*Signal
	for _, mem := range m.members {
		if s, ok := mem.(*Signal); ok && s.IsPort() {
			out = append(out, s)
		}
	}
	return out
}

// Interfaces returns the interface members, ports included.
func (m *Module) Interfaces() []*Interface {
	var out []*Interface
	for _, mem := range m.members {
		if i, ok := mem.(*Interface); ok {
			out = append(out, i)
		}
	}
	return out
}

// Instances returns the instances in declaration order.
func (m *Module) Instances() []*Instance {
	var out []*Instance
	for _, mem := range m.members {
		if i, ok := mem.(*Instance); ok {
			out = append(out, i)
		}
	}
	return out
}

// PortSpecs lists signal and interface ports in declaration order.
func (m *Module) PortSpecs() []PortSpec {
	var out []PortSpec
	for _, mem := range m.members {
		if spec, ok := portSpecOf(mem); ok {
			out = append(out, spec)
		}
	}
	return out
}

// LookupPort finds a port by name.
func (m *Module) LookupPort(name string) (PortSpec, bool) {
	return portSpecOf(m.index[name])
}

func portSpecOf(mem Member) (PortSpec, bool) {
	switch v := mem.(type) {
	case *Signal:
		if v.IsPort() {
			return PortSpec{Name: v.name, Width: v.width, Direction: v.dir}, true
		}
	case *Interface:
		if v.port {
			return PortSpec{Name: v.name, Interface: v.typ}, true
		}
	}
	return PortSpec{}, false
}

// Connections returns the wiring table: one row per connected instance
// port, instances in declaration order and ports sorted by name.
func (m *Module) Connections() []Connection {
	var out []Connection
	for _, inst := range m.Instances() {
		for _, port := range inst.ConnectedPorts() {
			out = append(out, Connection{Instance: inst, Port: port, Targets: inst.Targets(port)})
		}
	}
	return out
}

// Fanout returns the instance ports connected to c: the reverse direction of
// the wiring table. Slices overlapping a signal count as connections of
// that signal.
func (m *Module) Fanout(c Connectable) []*PortRef {
	var out []*PortRef
	for _, conn := range m.Connections() {
		for _, t := range conn.Targets {
			if overlaps(t, c) {
				out = append(out, conn.Instance.Port(conn.Port))
				break
			}
		}
	}
	return out
}

func (m *Module) String() string { return m.name }

func (m *Module) target() {}
