package assemble

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/dag"
	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/specialistvlad/hdlforge/internal/registry"
)

// Assembler resolves design models against a registry.
type Assembler struct {
	reg  *registry.Registry
	elab *generator.Elaborator
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithElaborator sets the elaborator used for generator instances. The
// package default is used otherwise.
func WithElaborator(e *generator.Elaborator) Option {
	return func(a *Assembler) {
		a.elab = e
	}
}

// New creates an Assembler. A nil registry behaves like an empty one.
func New(reg *registry.Registry, opts ...Option) *Assembler {
	if reg == nil {
		reg = registry.New()
	}
	a := &Assembler{reg: reg, elab: generator.Default()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble resolves every definition of the model.
func (a *Assembler) Assemble(ctx context.Context, model *config.Model) (*Design, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Assemble: Starting.",
		"param_classes", len(model.ParamClasses),
		"interfaces", len(model.Interfaces),
		"externals", len(model.Externals),
		"modules", len(model.Modules),
	)

	d := &Design{
		ParamClasses: make(map[string]*params.Class),
		Interfaces:   make(map[string]*hdl.InterfaceType),
		Externals:    make(map[string]*hdl.ExternalModule),
		Modules:      make(map[string]*hdl.Module),
		instantiated: make(map[string]bool),
	}
	if err := a.checkNames(model); err != nil {
		return nil, err
	}
	if err := a.paramClasses(d, model.ParamClasses); err != nil {
		return nil, err
	}
	logger.Debug("Assemble: Param classes resolved.", "count", len(d.ParamClasses))

	for _, it := range model.Interfaces {
		typ, err := interfaceType(it)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where(it.Source, "interface", it.Name), err)
		}
		d.Interfaces[it.Name] = typ
	}
	for _, ext := range model.Externals {
		e, err := a.external(d, ext)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where(ext.Source, "external", ext.Name), err)
		}
		d.Externals[ext.Name] = e
	}

	if err := a.modules(ctx, d, model.Modules); err != nil {
		return nil, err
	}
	logger.Debug("Assemble: Complete.", "modules", len(d.Modules), "roots", d.Roots())
	return d, nil
}

// checkNames rejects definitions that collide within the files or with the
// registry. Modules and externals share one namespace.
func (a *Assembler) checkNames(model *config.Model) error {
	classes := make(map[string]bool)
	for _, pc := range model.ParamClasses {
		if classes[pc.Name] {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("param class %q", pc.Name), Reason: "defined more than once"}
		}
		if _, ok := a.reg.ParamClass(pc.Name); ok {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("param class %q", pc.Name), Reason: "already registered by a library"}
		}
		classes[pc.Name] = true
	}

	ifaces := make(map[string]bool)
	for _, it := range model.Interfaces {
		if ifaces[it.Name] {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("interface %q", it.Name), Reason: "defined more than once"}
		}
		if _, ok := a.reg.Interface(it.Name); ok {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("interface %q", it.Name), Reason: "already registered by a library"}
		}
		ifaces[it.Name] = true
	}

	targets := make(map[string]bool)
	check := func(kind, name string) error {
		if targets[name] {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("%s %q", kind, name), Reason: "defined more than once"}
		}
		if _, ok := a.reg.Target(name); ok {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("%s %q", kind, name), Reason: "already registered by a library"}
		}
		if _, ok := a.reg.Generator(name); ok {
			return &hdlerr.DefinitionError{What: fmt.Sprintf("%s %q", kind, name), Reason: "name is taken by a registered generator"}
		}
		targets[name] = true
		return nil
	}
	for _, ext := range model.Externals {
		if err := check("external", ext.Name); err != nil {
			return err
		}
	}
	for _, m := range model.Modules {
		if err := check("module", m.Name); err != nil {
			return err
		}
	}
	return nil
}

// paramClasses defines file param classes after the classes they nest.
func (a *Assembler) paramClasses(d *Design, defs []*config.ParamClass) error {
	byName := make(map[string]*config.ParamClass, len(defs))
	g := dag.New()
	for _, pc := range defs {
		byName[pc.Name] = pc
		g.AddNode(pc.Name)
	}
	for _, pc := range defs {
		for _, f := range pc.Fields {
			if f.Class == "" {
				continue
			}
			if f.Class == pc.Name {
				return &hdlerr.CyclicReferenceError{Scope: "param classes", Cycle: []string{pc.Name, pc.Name}}
			}
			if _, local := byName[f.Class]; !local {
				continue
			}
			if err := g.AddEdge(f.Class, pc.Name); err != nil {
				return err
			}
		}
	}
	order, err := g.TopoSort()
	if err != nil {
		return cycleError("param classes", err)
	}

	for _, name := range order {
		pc := byName[name]
		c, err := a.defineClass(d, pc)
		if err != nil {
			return fmt.Errorf("%s: %w", where(pc.Source, "paramclass", pc.Name), err)
		}
		d.ParamClasses[name] = c
	}
	return nil
}

func (a *Assembler) defineClass(d *Design, pc *config.ParamClass) (*params.Class, error) {
	fields := make([]params.Field, 0, len(pc.Fields))
	for _, f := range pc.Fields {
		switch {
		case f.Class != "":
			nested, err := a.lookupClass(d, f.Class)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields = append(fields, params.Nested(f.Name, nested, f.Description))
		case f.Default != nil:
			fields = append(fields, params.Optional(f.Name, f.Type, f.Description, *f.Default))
		default:
			fields = append(fields, params.Required(f.Name, f.Type, f.Description))
		}
	}
	return params.Define(pc.Name, fields...)
}

func (a *Assembler) lookupClass(d *Design, name string) (*params.Class, error) {
	if c, ok := d.ParamClasses[name]; ok {
		return c, nil
	}
	if c, ok := a.reg.ParamClass(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("unknown param class %q", name)
}

func (a *Assembler) lookupInterface(d *Design, name string) (*hdl.InterfaceType, error) {
	if t, ok := d.Interfaces[name]; ok {
		return t, nil
	}
	if t, ok := a.reg.Interface(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown interface type %q", name)
}

func interfaceType(it *config.Interface) (*hdl.InterfaceType, error) {
	fields := make([]hdl.InterfaceField, 0, len(it.Fields))
	for _, f := range it.Fields {
		dir, err := hdl.ParseDirection(f.Direction)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		fields = append(fields, hdl.InterfaceField{Name: f.Name, Width: f.Width, Role: dir})
	}
	return hdl.NewInterfaceType(it.Name, fields...)
}

func (a *Assembler) external(d *Design, ext *config.External) (*hdl.ExternalModule, error) {
	spec := hdl.ExternalSpec{Name: ext.Name, Description: ext.Description, Domain: ext.Domain}
	if ext.Params != "" {
		c, err := a.lookupClass(d, ext.Params)
		if err != nil {
			return nil, err
		}
		spec.Class = c
	}
	for _, p := range ext.Ports {
		dir, err := hdl.ParseDirection(p.Direction)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", p.Name, err)
		}
		spec.Ports = append(spec.Ports, hdl.PortSpec{Name: p.Name, Width: p.Width, Direction: dir})
	}
	return hdl.NewExternalModule(spec)
}

// modules builds file modules after the file modules they instantiate.
func (a *Assembler) modules(ctx context.Context, d *Design, defs []*config.Module) error {
	byName := make(map[string]*config.Module, len(defs))
	g := dag.New()
	for _, m := range defs {
		byName[m.Name] = m
		g.AddNode(m.Name)
	}
	for _, m := range defs {
		for _, dep := range m.ModuleDependencies() {
			if dep == m.Name {
				return &hdlerr.CyclicReferenceError{Scope: "modules", Cycle: []string{m.Name, m.Name}}
			}
			if _, local := byName[dep]; !local {
				continue
			}
			d.instantiated[dep] = true
			if err := g.AddEdge(dep, m.Name); err != nil {
				return err
			}
		}
	}
	order, err := g.TopoSort()
	if err != nil {
		return cycleError("modules", err)
	}
	d.Order = order

	for _, name := range order {
		def := byName[name]
		m, err := a.buildModule(ctx, d, def)
		if err != nil {
			return fmt.Errorf("%s: %w", where(def.Source, "module", def.Name), err)
		}
		d.Modules[name] = m
	}
	return nil
}

// cycleError converts a graph cycle into the shared error taxonomy.
func cycleError(scope string, err error) error {
	var ce *dag.CycleError
	if errors.As(err, &ce) {
		return &hdlerr.CyclicReferenceError{Scope: scope, Cycle: ce.Path}
	}
	return err
}

// where renders a definition location for error messages.
func where(src config.Source, kind, name string) string {
	if src.File == "" {
		return fmt.Sprintf("%s %q", kind, name)
	}
	return fmt.Sprintf("%s:%d: %s %q", src.File, src.Line, kind, name)
}
