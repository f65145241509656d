package registry

import (
	"fmt"
	"log/slog"

	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// RegisterModule registers a module under its own name.
func (r *Registry) RegisterModule(m *hdl.Module) {
	if _, exists := r.ModuleRegistry[m.Name()]; exists {
		panic(fmt.Sprintf("module with name '%s' already registered", m.Name()))
	}
	slog.Debug("Registering module.", "name", m.Name())
	r.ModuleRegistry[m.Name()] = m
}

// RegisterExternal registers an external module under its own name. Its
// param class is registered as well unless it is params.None.
func (r *Registry) RegisterExternal(e *hdl.ExternalModule) {
	if _, exists := r.ExternalRegistry[e.Name()]; exists {
		panic(fmt.Sprintf("external module with name '%s' already registered", e.Name()))
	}
	slog.Debug("Registering external module.", "name", e.Name())
	r.ExternalRegistry[e.Name()] = e
	r.registerClassOnce(e.Class())
}

// RegisterGenerator registers a generator and its param class.
func (r *Registry) RegisterGenerator(g *generator.Generator) {
	if _, exists := r.GeneratorRegistry[g.Name()]; exists {
		panic(fmt.Sprintf("generator with name '%s' already registered", g.Name()))
	}
	slog.Debug("Registering generator.", "name", g.Name(), "params", g.Class().Name())
	r.GeneratorRegistry[g.Name()] = g
	r.registerClassOnce(g.Class())
}

// RegisterInterface registers an interface type.
func (r *Registry) RegisterInterface(t *hdl.InterfaceType) {
	if _, exists := r.InterfaceRegistry[t.Name()]; exists {
		panic(fmt.Sprintf("interface type with name '%s' already registered", t.Name()))
	}
	slog.Debug("Registering interface type.", "name", t.Name())
	r.InterfaceRegistry[t.Name()] = t
}

// RegisterParamClass registers a param class.
func (r *Registry) RegisterParamClass(c *params.Class) {
	if existing, exists := r.ParamClassRegistry[c.Name()]; exists && existing != c {
		panic(fmt.Sprintf("param class with name '%s' already registered", c.Name()))
	}
	slog.Debug("Registering param class.", "name", c.Name())
	r.ParamClassRegistry[c.Name()] = c
}

// registerClassOnce registers c if it is new; sharing a class between
// several generators is fine.
func (r *Registry) registerClassOnce(c *params.Class) {
	if c == nil || c == params.None {
		return
	}
	if existing, exists := r.ParamClassRegistry[c.Name()]; exists && existing == c {
		return
	}
	r.RegisterParamClass(c)
	for _, f := range c.Fields() {
		if f.Class != nil {
			r.registerClassOnce(f.Class)
		}
	}
}
