package hdl

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// finalizeMu serializes finalization across goroutines. Finalize walks the
// instance graph, so per-module locks could deadlock on shared children.
var finalizeMu sync.Mutex

// Finalize seals the module and every module it instantiates, children
// first. It fails with an UnconnectedPortError per instance that leaves a
// mandatory port open (inputs, inouts and interface ports; outputs too
// under Policy.RequireOutputs), and with a DefinitionError on recursive
// instantiation. Finalizing a sealed module is a no-op.
func (m *Module) Finalize() error {
	finalizeMu.Lock()
	defer finalizeMu.Unlock()
	return m.finalizeLocked(nil)
}

func (m *Module) finalizeLocked(stack []*Module) error {
	if m.finalized {
		return nil
	}
	if i := slices.Index(stack, m); i >= 0 {
		var names []string
		for _, s := range stack[i:] {
			names = append(names, s.name)
		}
		names = append(names, m.name)
		return &hdlerr.DefinitionError{
			What:   fmt.Sprintf("module %q", m.name),
			Reason: "recursive instantiation: " + strings.Join(names, " -> "),
		}
	}
	if m.name == "" {
		return &hdlerr.DefinitionError{What: "module", Reason: "cannot finalize a module without a name"}
	}

	stack = append(stack, m)
	insts := m.Instances()
	for _, inst := range insts {
		if child, ok := inst.target.(*Module); ok {
			if err := child.finalizeLocked(stack); err != nil {
				return fmt.Errorf("module %q, instance %q: %w", m.name, inst.name, err)
			}
		}
	}

	var errs []error
	for _, inst := range insts {
		if open := m.openPorts(inst); len(open) > 0 {
			errs = append(errs, &hdlerr.UnconnectedPortError{Module: m.name, Instance: inst.name, Ports: open})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	m.finalized = true
	return nil
}

// openPorts lists the mandatory ports of inst that have no connection, in
// the target's port order.
func (m *Module) openPorts(inst *Instance) []string {
	var open []string
	for _, spec := range inst.target.PortSpecs() {
		if inst.Connected(spec.Name) {
			continue
		}
		if spec.IsInterface() || spec.Direction != Output || m.policy.RequireOutputs {
			open = append(open, spec.Name)
		}
	}
	return open
}
