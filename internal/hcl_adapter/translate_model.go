// This file contains the logic for translating HCL schema structs into the
// format-agnostic design model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/hdlforge/internal/config"
	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/namepath"
	"github.com/zclconf/go-cty/cty"
)

// translateParamClass converts the HCL-specific paramclass schema into the
// agnostic model.
func (l *Loader) translateParamClass(ctx context.Context, s *ParamClassBlock) (*config.ParamClass, error) {
	logger := ctxlog.FromContext(ctx).With("param_class", s.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL param class to internal config model.", "fields", len(s.Fields))

	pc := &config.ParamClass{
		Name:        s.Name,
		Description: s.Description,
	}
	for _, f := range s.Fields {
		field, err := translateField(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("in paramclass '%s', field '%s': %w", s.Name, f.Name, err)
		}
		pc.Fields = append(pc.Fields, field)
	}
	return pc, nil
}

func translateField(ctx context.Context, f *FieldBlock) (*config.Field, error) {
	field := &config.Field{Name: f.Name, Description: f.Description, Class: f.Class}

	hasType := isExprDefined(ctx, f.Type, "type")
	switch {
	case hasType && f.Class != "":
		return nil, fmt.Errorf("'type' and 'class' are mutually exclusive")
	case f.Class != "":
		field.Type = cty.DynamicPseudoType
	default:
		ty, err := typeExprToCtyType(ctx, f.Type)
		if err != nil {
			return nil, err
		}
		field.Type = ty
	}

	if isExprDefined(ctx, f.Default, "default") {
		if f.Class != "" {
			return nil, fmt.Errorf("nested class fields cannot declare a default")
		}
		val, err := staticValue(f.Default)
		if err != nil {
			return nil, err
		}
		field.Default = &val
	}
	return field, nil
}

// translateInterface converts an interface type block.
func (l *Loader) translateInterface(s *InterfaceBlock) *config.Interface {
	it := &config.Interface{Name: s.Name}
	for _, f := range s.Fields {
		it.Fields = append(it.Fields, &config.InterfaceField{Name: f.Name, Width: f.Width, Direction: f.Direction})
	}
	return it
}

// translateExternal converts an external module block.
func (l *Loader) translateExternal(s *ExternalBlock) *config.External {
	e := &config.External{Name: s.Name, Description: s.Description, Domain: s.Domain, Params: s.Params}
	e.Ports = translatePorts(s.Ports)
	return e
}

func translatePorts(blocks []*PortBlock) []*config.Port {
	var ports []*config.Port
	for _, p := range blocks {
		ports = append(ports, &config.Port{Name: p.Name, Width: p.Width, Direction: p.Direction, Description: p.Description})
	}
	return ports
}

// translateModule converts the HCL-specific module schema into the agnostic
// model.
func (l *Loader) translateModule(ctx context.Context, s *ModuleBlock) (*config.Module, error) {
	logger := ctxlog.FromContext(ctx).With("module", s.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL module to internal config model.",
		"ports", len(s.Ports), "signals", len(s.Signals), "instances", len(s.Instances))

	m := &config.Module{Name: s.Name, Description: s.Description, Ports: translatePorts(s.Ports)}
	for _, sig := range s.Signals {
		m.Signals = append(m.Signals, &config.Signal{Name: sig.Name, Width: sig.Width, Description: sig.Description})
	}
	for _, it := range s.Interfaces {
		m.Interfaces = append(m.Interfaces, &config.InterfaceMember{Name: it.Name, Type: it.Type, Port: it.Port})
	}

	for _, ib := range s.Instances {
		inst, err := translateInstance(ctx, ib)
		if err != nil {
			return nil, fmt.Errorf("in module '%s', instance '%s': %w", s.Name, ib.Name, err)
		}
		m.Instances = append(m.Instances, inst)
	}

	for _, cb := range s.Connects {
		attrs, diags := cb.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("in module '%s', connect '%s': %w", s.Name, cb.Instance, diags)
		}
		conns := make(map[string]*config.Ref, len(attrs))
		for name, attr := range attrs {
			ref, err := parseRef(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("in module '%s', connect '%s', port '%s': %w", s.Name, cb.Instance, name, err)
			}
			conns[name] = ref
		}
		m.Connects = append(m.Connects, &config.Connect{
			Instance: cb.Instance,
			Connect:  conns,
			Source:   sourceOf(cb.Body.MissingItemRange()),
		})
	}
	return m, nil
}

func translateInstance(ctx context.Context, s *InstanceBlock) (*config.Instance, error) {
	if (s.Of == "") == (s.Generator == "") {
		return nil, fmt.Errorf("exactly one of 'of' and 'generator' must be set")
	}

	inst := &config.Instance{
		Name:      s.Name,
		Of:        s.Of,
		Generator: s.Generator,
		Params:    cty.NilVal,
		Connect:   map[string]*config.Ref{},
	}

	if isExprDefined(ctx, s.Params, "params") {
		val, err := staticValue(s.Params)
		if err != nil {
			return nil, err
		}
		if !val.Type().IsObjectType() && !val.Type().IsMapType() {
			return nil, fmt.Errorf("'params' must be an object, got %s", val.Type().FriendlyName())
		}
		inst.Params = val
		inst.Source = sourceOf(s.Params.Range())
	}

	if isExprDefined(ctx, s.Connect, "connect") {
		pairs, diags := hcl.ExprMap(s.Connect)
		if diags.HasErrors() {
			return nil, fmt.Errorf("'connect' must be an object of port = target pairs: %w", diags)
		}
		for _, pair := range pairs {
			port, err := keyName(pair.Key)
			if err != nil {
				return nil, err
			}
			ref, err := parseRef(pair.Value)
			if err != nil {
				return nil, fmt.Errorf("port '%s': %w", port, err)
			}
			if _, dup := inst.Connect[port]; dup {
				return nil, fmt.Errorf("port '%s' is connected twice", port)
			}
			inst.Connect[port] = ref
		}
		if inst.Source.File == "" {
			inst.Source = sourceOf(s.Connect.Range())
		}
	}
	return inst, nil
}

// staticValue evaluates an expression that must not reference anything.
func staticValue(expr hcl.Expression) (cty.Value, error) {
	if vars := expr.Variables(); len(vars) > 0 {
		return cty.NilVal, fmt.Errorf("expression at %s must be static, but references %q", expr.Range(), vars[0].RootName())
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, fmt.Errorf("failed to evaluate expression at %s: %w", expr.Range(), diags)
	}
	return val, nil
}

// keyName returns the object key of a `connect` pair, which may be a bare
// keyword or a quoted string.
func keyName(expr hcl.Expression) (string, error) {
	if kw := hcl.ExprAsKeyword(expr); kw != "" {
		return kw, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() || val.IsNull() || !val.IsKnown() || val.Type() != cty.String {
		return "", fmt.Errorf("invalid port name at %s", expr.Range())
	}
	return val.AsString(), nil
}

// parseRef converts a connection target expression into a name path. Bare
// traversals (`sig`, `sig[3]`, `inst.port`) are read structurally; string
// literals are parsed as canonical name paths, which is the only way to
// express a range such as "sig[0:4]".
func parseRef(expr hcl.Expression) (*config.Ref, error) {
	src := sourceOf(expr.Range())

	vars := expr.Variables()
	switch len(vars) {
	case 0:
		val, err := staticValue(expr)
		if err != nil {
			return nil, err
		}
		if val.IsNull() || val.Type() != cty.String {
			return nil, fmt.Errorf("connection target at %s must be a reference or a name path string", expr.Range())
		}
		p, err := namepath.Parse(val.AsString())
		if err != nil {
			return nil, fmt.Errorf("connection target at %s: %w", expr.Range(), err)
		}
		return &config.Ref{Path: p, Source: src}, nil
	case 1:
	default:
		return nil, fmt.Errorf("connection target at %s must reference exactly one member, found %d", expr.Range(), len(vars))
	}

	traversal, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() {
		return nil, fmt.Errorf("connection target at %s is not a plain reference: %w", expr.Range(), diags)
	}
	p, err := traversalToPath(traversal)
	if err != nil {
		return nil, fmt.Errorf("connection target at %s: %w", expr.Range(), err)
	}
	return &config.Ref{Path: p, Source: src}, nil
}

func traversalToPath(t hcl.Traversal) (namepath.Path, error) {
	var p namepath.Path
	for _, step := range t {
		switch s := step.(type) {
		case hcl.TraverseRoot:
			p = append(p, namepath.Named(s.Name))
		case hcl.TraverseAttr:
			p = append(p, namepath.Named(s.Name))
		case hcl.TraverseIndex:
			if len(p) == 0 || p[len(p)-1].HasIndex() {
				return nil, fmt.Errorf("unexpected index")
			}
			if s.Key.Type() != cty.Number {
				return nil, fmt.Errorf("bit index must be a number")
			}
			bf := s.Key.AsBigFloat()
			idx, acc := bf.Int64()
			if !bf.IsInt() || acc != 0 || idx < 0 {
				return nil, fmt.Errorf("bit index must be a non-negative integer")
			}
			p[len(p)-1].Index = int(idx)
		default:
			return nil, fmt.Errorf("unsupported traversal step %T", step)
		}
	}
	return p, nil
}
