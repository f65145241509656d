package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// ValidateRegistry checks that every name resolves to exactly one target and
// that registered definitions are complete.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	// Instance targets and generators share one namespace in design files.
	owners := make(map[string]string)
	claim := func(kind, name string) {
		if prev, ok := owners[name]; ok {
			errs = append(errs, fmt.Sprintf("name '%s' is registered both as %s and as %s", name, prev, kind))
			return
		}
		owners[name] = kind
	}
	for _, name := range keys(r.ModuleRegistry) {
		claim("module", name)
	}
	for _, name := range keys(r.ExternalRegistry) {
		claim("external module", name)
	}
	for _, name := range keys(r.GeneratorRegistry) {
		claim("generator", name)
	}

	for _, name := range keys(r.ModuleRegistry) {
		m := r.ModuleRegistry[name]
		if !m.Finalized() {
			errs = append(errs, fmt.Sprintf("module '%s' is registered but not finalized", name))
		}
		for _, spec := range m.PortSpecs() {
			if !spec.IsInterface() {
				continue
			}
			if t, ok := r.InterfaceRegistry[spec.Interface.Name()]; ok && !t.Equivalent(spec.Interface) {
				errs = append(errs, fmt.Sprintf("module '%s', port '%s': interface type '%s' differs from the registered one", name, spec.Name, spec.Interface.Name()))
			}
		}
	}

	for _, name := range keys(r.ParamClassRegistry) {
		c := r.ParamClassRegistry[name]
		for _, f := range c.Fields() {
			if f.Class != nil {
				if r.ParamClassRegistry[f.Class.Name()] != f.Class {
					errs = append(errs, fmt.Sprintf("param class '%s', field '%s': nested class '%s' is shadowed by another class of that name", name, f.Name, f.Class.Name()))
				}
				continue
			}
			if f.Type.Equals(cty.DynamicPseudoType) {
				logger.Warn("Param class has a field with 'type = any', which disables static type checking. Consider using a specific type like 'string', 'number', or 'bool'.", "class", name, "field", f.Name)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
