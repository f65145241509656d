package export

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// ErrNotFinalized is returned when a reachable module is still mutable.
var ErrNotFinalized = errors.New("module is not finalized")

// FromModule renders top and everything it instantiates.
func FromModule(top *hdl.Module) (*Design, error) {
	if top == nil {
		return nil, fmt.Errorf("export: nil top module")
	}

	mods := hdl.Reachable(top)
	names := uniqueNames(mods)

	d := &Design{
		Top:       names[top],
		Modules:   make([]Module, 0, len(mods)),
		Externals: []External{},
	}
	for _, m := range mods {
		if !m.Finalized() {
			return nil, fmt.Errorf("export %q: %w", m.Name(), ErrNotFinalized)
		}
		em, err := exportModule(m, names)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", m.Name(), err)
		}
		d.Modules = append(d.Modules, em)
	}
	for _, ext := range hdl.ReachableExternals(top) {
		d.Externals = append(d.Externals, exportExternal(ext))
	}
	return d, nil
}

// JSON renders the design as indented JSON.
func (d *Design) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Module looks up an exported module by its exported name.
func (d *Design) Module(name string) (*Module, bool) {
	for i := range d.Modules {
		if d.Modules[i].Name == name {
			return &d.Modules[i], true
		}
	}
	return nil, false
}

// uniqueNames assigns each module a name not used by any other module of the
// view. The first module to claim a name keeps it.
func uniqueNames(mods []*hdl.Module) map[*hdl.Module]string {
	names := make(map[*hdl.Module]string, len(mods))
	taken := make(map[string]bool, len(mods))
	for _, m := range mods {
		name := m.Name()
		for i := 1; taken[name]; i++ {
			name = fmt.Sprintf("%s_%d", m.Name(), i)
		}
		taken[name] = true
		names[m] = name
	}
	return names
}

func exportModule(m *hdl.Module, names map[*hdl.Module]string) (Module, error) {
	em := Module{
		Name:        names[m],
		Kind:        "module",
		Description: m.Description(),
		Generator:   m.Generator(),
		Members:     []Member{},
		Interfaces:  []Interface{},
		Instances:   []Instance{},
	}
	if p := m.Params(); p != nil && len(p.Class().Fields()) > 0 {
		raw, err := paramsJSON(p)
		if err != nil {
			return Module{}, err
		}
		em.Params = raw
	}

	for _, mem := range m.Members() {
		out := Member{Name: mem.Name(), Kind: mem.Kind().String()}
		switch v := mem.(type) {
		case *hdl.Signal:
			out.Width = v.Width()
			if v.IsPort() {
				out.Direction = v.Direction().String()
			}
		case *hdl.Interface:
			out.Width = v.Width()
			out.Type = v.Type().Name()
			em.Interfaces = append(em.Interfaces, exportInterface(v))
		case *hdl.Instance:
			out.Type = targetName(v.Target(), names)
			inst, err := exportInstance(v, names)
			if err != nil {
				return Module{}, fmt.Errorf("instance %q: %w", v.Name(), err)
			}
			em.Instances = append(em.Instances, inst)
		}
		em.Members = append(em.Members, out)
	}
	return em, nil
}

func exportInterface(i *hdl.Interface) Interface {
	out := Interface{Name: i.Name(), Type: i.Type().Name(), Port: i.IsPort(), Fields: []Field{}}
	for _, f := range i.Type().Fields() {
		out.Fields = append(out.Fields, Field{Name: f.Name, Width: f.Width, Role: f.Role.String()})
	}
	return out
}

func exportInstance(inst *hdl.Instance, names map[*hdl.Module]string) (Instance, error) {
	out := Instance{
		Name:        inst.Name(),
		Of:          targetName(inst.Target(), names),
		Connections: []Connection{},
	}
	if p := inst.Params(); p != nil && len(p.Class().Fields()) > 0 {
		raw, err := paramsJSON(p)
		if err != nil {
			return Instance{}, err
		}
		out.Params = raw
	}
	for _, port := range inst.ConnectedPorts() {
		conn := Connection{Port: port}
		for _, t := range inst.Targets(port) {
			conn.Targets = append(conn.Targets, t.Path().String())
		}
		out.Connections = append(out.Connections, conn)
	}
	return out, nil
}

func exportExternal(e *hdl.ExternalModule) External {
	out := External{
		Name:        e.Name(),
		Kind:        "external",
		Domain:      e.Domain(),
		Description: e.Description(),
		ParamClass:  e.Class().Name(),
		Ports:       []Port{},
	}
	for _, p := range e.PortSpecs() {
		port := Port{Name: p.Name, Width: p.Width, Direction: p.Direction.String()}
		if p.IsInterface() {
			port.Interface = p.Interface.Name()
			port.Width = p.Interface.Width()
		}
		out.Ports = append(out.Ports, port)
	}
	return out
}

func targetName(t hdl.Target, names map[*hdl.Module]string) string {
	if m, ok := t.(*hdl.Module); ok {
		return names[m]
	}
	return t.Name()
}

func paramsJSON(p *params.Params) (json.RawMessage, error) {
	raw, err := p.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding params of class %q: %w", p.Class().Name(), err)
	}
	return raw, nil
}
