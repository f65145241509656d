package assemble

import (
	"context"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/builder"
	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/namepath"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// buildModule declares every member of a file module and lets the builder
// order them.
func (a *Assembler) buildModule(ctx context.Context, d *Design, def *config.Module) (*hdl.Module, error) {
	logger := ctxlog.FromContext(ctx).With("module", def.Name)
	ctx = ctxlog.WithLogger(ctx, logger)

	b := builder.New(def.Name, builder.WithDescription(def.Description))
	for _, p := range def.Ports {
		dir, err := hdl.ParseDirection(p.Direction)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", p.Name, err)
		}
		b.Port(p.Name, p.Width, dir)
	}
	for _, s := range def.Signals {
		b.Signal(s.Name, s.Width)
	}

	ifaces := make(map[string]bool, len(def.Interfaces))
	for _, im := range def.Interfaces {
		typ, err := a.lookupInterface(d, im.Type)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", im.Name, err)
		}
		ifaces[im.Name] = true
		b.Interface(im.Name, typ, im.Port)
	}

	for _, inst := range def.Instances {
		target, p, err := a.resolveTarget(ctx, d, inst)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where(inst.Source, "instance", inst.Name), err)
		}
		conns, err := toConns(inst.Connect, ifaces)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where(inst.Source, "instance", inst.Name), err)
		}
		b.Instance(inst.Name, target, p, conns)
	}
	for _, c := range def.Connects {
		conns, err := toConns(c.Connect, ifaces)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", where(c.Source, "connect", c.Instance), err)
		}
		b.ConnectAll(c.Instance, conns)
	}

	m, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := m.Finalize(); err != nil {
		return nil, err
	}
	logger.Debug("Assemble: Module finalized.", "members", len(m.Members()))
	return m, nil
}

// resolveTarget finds the target of an instance and binds its params.
// Generator instances are elaborated here.
func (a *Assembler) resolveTarget(ctx context.Context, d *Design, inst *config.Instance) (hdl.Target, *params.Params, error) {
	if inst.Generator != "" {
		g, ok := a.reg.Generator(inst.Generator)
		if !ok {
			return nil, nil, fmt.Errorf("unknown generator %q", inst.Generator)
		}
		var args any
		if !inst.Params.IsNull() {
			args = inst.Params
		}
		m, err := a.elab.Generate(ctx, g, args)
		if err != nil {
			return nil, nil, err
		}
		return m, nil, nil
	}

	target, err := a.lookupTarget(d, inst.Of)
	if err != nil {
		return nil, nil, err
	}
	if inst.Params.IsNull() {
		return target, nil, nil
	}

	var class *params.Class
	switch t := target.(type) {
	case *hdl.ExternalModule:
		class = t.Class()
	case *hdl.Module:
		if t.Params() == nil {
			return nil, nil, fmt.Errorf("module %q takes no params", t.Name())
		}
		class = t.Params().Class()
	}
	p, err := params.FromCty(class, inst.Params)
	if err != nil {
		return nil, nil, err
	}
	return target, p, nil
}

func (a *Assembler) lookupTarget(d *Design, name string) (hdl.Target, error) {
	if m, ok := d.Modules[name]; ok {
		return m, nil
	}
	if e, ok := d.Externals[name]; ok {
		return e, nil
	}
	if t, ok := a.reg.Target(name); ok {
		return t, nil
	}
	if _, ok := a.reg.Generator(name); ok {
		return nil, fmt.Errorf("%q is a generator; use 'generator' instead of 'of'", name)
	}
	return nil, fmt.Errorf("unknown module %q", name)
}

// toConns converts parsed connection targets into builder references. Two
// segment paths name an interface field when the first segment is an
// interface of the module, and an instance port otherwise.
func toConns(refs map[string]*config.Ref, ifaces map[string]bool) (builder.Conns, error) {
	conns := make(builder.Conns, len(refs))
	for port, ref := range refs {
		r, err := toReference(ref.Path, ifaces)
		if err != nil {
			return nil, fmt.Errorf("port %q: %w", port, err)
		}
		conns[port] = r
	}
	return conns, nil
}

func toReference(p namepath.Path, ifaces map[string]bool) (builder.Reference, error) {
	switch len(p) {
	case 1:
		seg := p[0]
		switch {
		case seg.Range != nil:
			return builder.Slice(seg.Name, seg.Range.Start, seg.Range.Stop, seg.Range.Step), nil
		case seg.HasIndex():
			return builder.Bit(seg.Name, seg.Index), nil
		}
		return builder.Ref(seg.Name), nil
	case 2:
		if p[0].HasIndex() || p[0].Range != nil || p[1].HasIndex() || p[1].Range != nil {
			return nil, fmt.Errorf("reference %q: bit selections of ports and interface fields are not supported", p.String())
		}
		if ifaces[p[0].Name] {
			return builder.Field(p[0].Name, p[1].Name), nil
		}
		return builder.PortOf(p[0].Name, p[1].Name), nil
	}
	return nil, fmt.Errorf("reference %q: expected `name` or `name.member`", p.String())
}
