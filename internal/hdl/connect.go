package hdl

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// Connect wires port of inst to target (assignment style).
//
// The port must exist on the instance's target and the connectable must
// belong to the instance's module and match the port's width (or, for
// interface ports, be a structurally equivalent interface). Inputs and
// interface ports are write-once; connecting the same target again is a
// no-op. Outputs may fan out, but each bit of a net takes a single driver.
// A PortRef target is recorded on both instances.
func Connect(inst *Instance, port string, target Connectable) error {
	m, err := ownerOf(inst, port)
	if err != nil {
		return err
	}
	return m.connect(inst, port, target)
}

// ConnectAll wires a batch of ports (call style). Ports are applied in
// sorted order; if any connection fails the instance and its module are
// left exactly as they were.
func ConnectAll(inst *Instance, conns Conns) error {
	m, err := ownerOf(inst, "")
	if err != nil {
		return err
	}

	// Port references also write to the referenced instances.
	saved := map[*Instance]map[string][]Connectable{inst: cloneConns(inst.conns)}
	for _, c := range conns {
		if ref, ok := c.(*PortRef); ok && ref != nil && ref.inst != nil {
			if _, seen := saved[ref.inst]; !seen {
				saved[ref.inst] = cloneConns(ref.inst.conns)
			}
		}
	}
	savedWiring := m.wiring.clone()

	ports := slices.Sorted(maps.Keys(conns))
	for _, port := range ports {
		if err := m.connect(inst, port, conns[port]); err != nil {
			for i, cs := range saved {
				i.conns = cs
			}
			m.wiring = savedWiring
			return err
		}
	}
	return nil
}

func cloneConns(conns map[string][]Connectable) map[string][]Connectable {
	out := make(map[string][]Connectable, len(conns))
	for port, cs := range conns {
		out[port] = slices.Clone(cs)
	}
	return out
}

func ownerOf(inst *Instance, port string) (*Module, error) {
	if inst == nil {
		return nil, &hdlerr.DefinitionError{What: "connection", Reason: "nil instance"}
	}
	m := inst.owner
	if m == nil {
		return nil, &hdlerr.DefinitionError{
			What:   fmt.Sprintf("instance %q", inst.name),
			Reason: "must be added to a module before it is connected",
		}
	}
	op := "connect " + inst.name
	if port != "" {
		op += "." + port
	}
	if err := m.mutable(op); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) connect(inst *Instance, port string, target Connectable) error {
	spec, ok := inst.target.LookupPort(port)
	if !ok {
		return &hdlerr.UnknownPortError{Instance: inst.name, Target: inst.target.Name(), Port: port}
	}
	field := inst.name + "." + port
	if isNil(target) {
		return &hdlerr.TypeMismatchError{Field: field, Want: wantKind(spec), Got: "nil"}
	}
	if err := m.checkOwned(inst, field, target); err != nil {
		return err
	}

	if spec.IsInterface() {
		if err := checkInterface(field, spec, target); err != nil {
			return err
		}
	} else {
		if err := checkPlain(inst, port, spec, target); err != nil {
			return err
		}
	}

	existing := inst.conns[port]
	if containsConn(existing, target) {
		return nil
	}
	if m.writeOnce(spec) && len(existing) > 0 {
		return &hdlerr.ReconnectionError{
			Instance: inst.name,
			Port:     port,
			Existing: existing[0].Path().String(),
			Incoming: target.Path().String(),
		}
	}

	driver, driven := driveOf(inst, port, spec, target)
	if driver != "" {
		if err := m.wiring.check(driver, driven); err != nil {
			return &hdlerr.DirectionError{Instance: inst.name, Port: port, Target: target.Path().String(), Reason: err.Error()}
		}
	}

	// A port reference joins two instance ports; both sides record the
	// connection and both obey their write-once rule.
	ref, mirrored := target.(*PortRef)
	back := inst.Port(port)
	if mirrored {
		peerSpec, _ := ref.Spec()
		peer := ref.inst.conns[ref.port]
		if !containsConn(peer, back) && m.writeOnce(peerSpec) && len(peer) > 0 {
			return &hdlerr.ReconnectionError{
				Instance: ref.inst.name,
				Port:     ref.port,
				Existing: peer[0].Path().String(),
				Incoming: back.Path().String(),
			}
		}
	}

	if driver != "" {
		m.wiring.record(driver, driven)
	}
	inst.conns[port] = append(existing, target)
	if mirrored && !containsConn(ref.inst.conns[ref.port], back) {
		ref.inst.conns[ref.port] = append(ref.inst.conns[ref.port], back)
	}
	return nil
}

// driveOf names the driver and the driven endpoint when port of inst joins
// target. Between two instance ports the non-output side is the driven net,
// whichever side the connection is made from.
func driveOf(inst *Instance, port string, spec PortSpec, target Connectable) (string, Connectable) {
	if spec.IsInterface() {
		return "", nil
	}
	if spec.Direction == Output {
		return inst.name + "." + port, target
	}
	if ref, ok := target.(*PortRef); ok {
		if ts, found := ref.Spec(); found && !ts.IsInterface() && ts.Direction == Output {
			return ref.String(), inst.Port(port)
		}
	}
	return "", nil
}

func containsConn(cs []Connectable, c Connectable) bool {
	for _, e := range cs {
		if sameConnectable(e, c) {
			return true
		}
	}
	return false
}

func (m *Module) writeOnce(spec PortSpec) bool {
	if spec.IsInterface() {
		return true
	}
	switch spec.Direction {
	case Input:
		return true
	case Inout:
		return m.policy.Inout == InoutExclusive
	}
	return false
}

// checkOwned rejects connectables of other modules.
func (m *Module) checkOwned(inst *Instance, field string, target Connectable) error {
	var owner *Module
	switch v := target.(type) {
	case *Signal:
		owner = v.owner
	case *Slice:
		owner = v.signal.owner
	case *Interface:
		owner = v.owner
	case *PortRef:
		if v.inst == inst {
			return &hdlerr.TypeMismatchError{Field: field, Got: v.String(), Reason: "an instance cannot connect to its own port"}
		}
		owner = v.inst.owner
	default:
		return &hdlerr.TypeMismatchError{Field: field, Want: "signal, slice, port reference or interface", Got: fmt.Sprintf("%T", target)}
	}
	if owner != m {
		where := "no module"
		if owner != nil {
			where = fmt.Sprintf("module %q", owner.name)
		}
		return &hdlerr.TypeMismatchError{
			Field:  field,
			Got:    target.Path().String(),
			Reason: fmt.Sprintf("target belongs to %s, not %q", where, m.name),
		}
	}
	return nil
}

func checkInterface(field string, spec PortSpec, target Connectable) error {
	var typ *InterfaceType
	switch v := target.(type) {
	case *Interface:
		typ = v.typ
	case *PortRef:
		ts, ok := v.Spec()
		if !ok {
			return &hdlerr.UnknownPortError{Instance: v.inst.name, Target: v.inst.target.Name(), Port: v.port}
		}
		typ = ts.Interface
	}
	if typ == nil {
		return &hdlerr.TypeMismatchError{Field: field, Want: wantKind(spec), Got: target.Path().String()}
	}
	if !spec.Interface.Equivalent(typ) {
		return &hdlerr.TypeMismatchError{
			Field:  field,
			Want:   "interface " + spec.Interface.Name(),
			Got:    "interface " + typ.Name(),
			Reason: "interfaces are not structurally equivalent",
		}
	}
	return nil
}

func checkPlain(inst *Instance, port string, spec PortSpec, target Connectable) error {
	field := inst.name + "." + port
	switch v := target.(type) {
	case *Interface:
		return &hdlerr.TypeMismatchError{Field: field, Want: wantKind(spec), Got: "interface " + v.name}
	case *PortRef:
		ts, ok := v.Spec()
		if !ok {
			return &hdlerr.UnknownPortError{Instance: v.inst.name, Target: v.inst.target.Name(), Port: v.port}
		}
		if ts.IsInterface() {
			return &hdlerr.TypeMismatchError{Field: field, Want: wantKind(spec), Got: "interface port " + v.String()}
		}
	}
	if w := target.Width(); w != spec.Width {
		return &hdlerr.WidthMismatchError{
			Instance:    inst.name,
			Port:        port,
			PortWidth:   spec.Width,
			Target:      target.Path().String(),
			TargetWidth: w,
		}
	}
	return nil
}

func wantKind(spec PortSpec) string {
	if spec.IsInterface() {
		return "interface " + spec.Interface.Name()
	}
	return "signal, slice or port reference"
}

// isNil catches typed nil pointers hidden in the interface.
func isNil(c Connectable) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
