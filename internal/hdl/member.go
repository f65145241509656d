package hdl

import "github.com/specialistvlad/hdlforge/internal/namepath"

// Member is one named entry of a Module: a *Signal (internal signal or
// port), an *Interface or an *Instance. The set is closed.
type Member interface {
	Name() string
	Kind() MemberKind
	// Module returns the owning module, or nil for a detached member.
	Module() *Module
	member()
}

// Connectable is anything an instance port can be connected to: a *Signal, a
// *Slice of one, another instance's *PortRef, or an *Interface.
type Connectable interface {
	Width() int
	// Path is the name path of the connectable relative to its module.
	Path() namepath.Path
	connectable()
}

// Target is what an Instance instantiates: a *Module or an *ExternalModule.
type Target interface {
	Name() string
	PortSpecs() []PortSpec
	LookupPort(name string) (PortSpec, bool)
	target()
}

// PortSpec describes a port of a Target as seen from an instance.
type PortSpec struct {
	Name      string
	Width     int
	Direction Direction
	// Interface is set for interface ports; Width and Direction are then
	// unused.
	Interface *InterfaceType
}

// IsInterface reports whether the port is an interface port.
func (p PortSpec) IsInterface() bool { return p.Interface != nil }

// Conns maps port names to connectables for call-style connection.
type Conns map[string]Connectable

// Connection is one row of a module's wiring table. Inputs and interface
// ports have exactly one target; outputs and shared inouts may fan out.
type Connection struct {
	Instance *Instance
	Port     string
	Targets  []Connectable
}
