package assemble

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// Design is the result of assembling a model: every definition from the
// design files, resolved and finalized.
type Design struct {
	ParamClasses map[string]*params.Class
	Interfaces   map[string]*hdl.InterfaceType
	Externals    map[string]*hdl.ExternalModule
	Modules      map[string]*hdl.Module
	// Order lists file modules so that each follows the modules it
	// instantiates.
	Order []string

	instantiated map[string]bool
}

// Module looks up an assembled file module.
func (d *Design) Module(name string) (*hdl.Module, bool) {
	m, ok := d.Modules[name]
	return m, ok
}

// Roots lists the file modules no other file module instantiates, in
// dependency order.
func (d *Design) Roots() []string {
	var roots []string
	for _, name := range d.Order {
		if !d.instantiated[name] {
			roots = append(roots, name)
		}
	}
	return roots
}

// Top selects the top-level module. An empty name picks the only root, and
// is an error when there is none or more than one.
func (d *Design) Top(name string) (*hdl.Module, error) {
	if name != "" {
		m, ok := d.Modules[name]
		if !ok {
			return nil, fmt.Errorf("top module %q is not defined in the design files", name)
		}
		return m, nil
	}
	roots := d.Roots()
	switch len(roots) {
	case 0:
		return nil, fmt.Errorf("design defines no modules")
	case 1:
		return d.Modules[roots[0]], nil
	}
	return nil, fmt.Errorf("design has several top-level candidates %v; select one explicitly", roots)
}
