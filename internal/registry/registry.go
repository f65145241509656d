package registry

import (
	"sort"

	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// Module is the interface that all library modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the named library contents of a single application
// instance.
type Registry struct {
	ModuleRegistry     map[string]*hdl.Module
	ExternalRegistry   map[string]*hdl.ExternalModule
	GeneratorRegistry  map[string]*generator.Generator
	InterfaceRegistry  map[string]*hdl.InterfaceType
	ParamClassRegistry map[string]*params.Class
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		ModuleRegistry:     make(map[string]*hdl.Module),
		ExternalRegistry:   make(map[string]*hdl.ExternalModule),
		GeneratorRegistry:  make(map[string]*generator.Generator),
		InterfaceRegistry:  make(map[string]*hdl.InterfaceType),
		ParamClassRegistry: make(map[string]*params.Class),
	}
}

// Load registers every library module in order.
func (r *Registry) Load(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}

// Target resolves an instance target by name: a module or an external
// module.
func (r *Registry) Target(name string) (hdl.Target, bool) {
	if m, ok := r.ModuleRegistry[name]; ok {
		return m, true
	}
	if e, ok := r.ExternalRegistry[name]; ok {
		return e, true
	}
	return nil, false
}

// Generator looks up a generator by name.
func (r *Registry) Generator(name string) (*generator.Generator, bool) {
	g, ok := r.GeneratorRegistry[name]
	return g, ok
}

// Interface looks up an interface type by name.
func (r *Registry) Interface(name string) (*hdl.InterfaceType, bool) {
	t, ok := r.InterfaceRegistry[name]
	return t, ok
}

// ParamClass looks up a param class by name.
func (r *Registry) ParamClass(name string) (*params.Class, bool) {
	c, ok := r.ParamClassRegistry[name]
	return c, ok
}

// Names lists every registered name of a kind, sorted. Kind is one of
// "module", "external", "generator", "interface" or "paramclass".
func (r *Registry) Names(kind string) []string {
	var names []string
	switch kind {
	case "module":
		names = keys(r.ModuleRegistry)
	case "external":
		names = keys(r.ExternalRegistry)
	case "generator":
		names = keys(r.GeneratorRegistry)
	case "interface":
		names = keys(r.InterfaceRegistry)
	case "paramclass":
		names = keys(r.ParamClassRegistry)
	}
	return names
}

func keys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
