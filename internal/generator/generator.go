package generator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/zclconf/go-cty/cty"
)

// Func builds a module from a validated parameter record. It should pass
// ctx to any nested Generate call.
type Func func(ctx context.Context, p *params.Params) (*hdl.Module, error)

// Generator is a registered module-building function.
type Generator struct {
	id    uuid.UUID
	name  string
	class *params.Class
	fn    Func
}

// New registers fn under name with its param class. A nil class means
// params.None.
func New(name string, class *params.Class, fn Func) *Generator {
	if class == nil {
		class = params.None
	}
	return &Generator{id: uuid.New(), name: name, class: class, fn: fn}
}

// ID returns the generator identity, unique per registration.
func (g *Generator) ID() uuid.UUID { return g.id }

func (g *Generator) Name() string { return g.name }

// Class returns the accepted param class.
func (g *Generator) Class() *params.Class { return g.class }

func (g *Generator) String() string { return "Generator(" + g.name + ")" }

// Params validates raw arguments into a record of the generator's class.
// Accepted forms are nil (all defaults), a *params.Params of the class, a
// map[string]any and a cty object value.
func (g *Generator) Params(args any) (*params.Params, error) {
	switch a := args.(type) {
	case nil:
		return params.Construct(g.class, nil)
	case *params.Params:
		if a == nil {
			return params.Construct(g.class, nil)
		}
		if a.Class() != g.class {
			return nil, &hdlerr.TypeMismatchError{
				Field: g.name,
				Want:  "paramclass " + g.class.Name(),
				Got:   "paramclass " + a.Class().Name(),
			}
		}
		return a, nil
	case map[string]any:
		return params.Construct(g.class, a)
	case cty.Value:
		return params.FromCty(g.class, a)
	}
	return nil, &hdlerr.TypeMismatchError{
		Field: g.name,
		Want:  "paramclass " + g.class.Name(),
		Got:   fmt.Sprintf("%T", args),
	}
}

// key identifies a (generator, params) pair in the cache.
func (g *Generator) key(p *params.Params) string {
	return g.id.String() + "/" + p.Key()
}

// moduleName is the name given to unnamed modules of this generator.
func (g *Generator) moduleName(p *params.Params) string {
	if len(g.class.Fields()) == 0 {
		return g.name
	}
	return fmt.Sprintf("%s_%08x", g.name, uint32(p.Hash()))
}
