// Package gates registers transistor-level logic generators built from the
// primitives library.
package gates

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/specialistvlad/hdlforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var (
	// GateParams parameterizes bitwise gates.
	GateParams = params.MustDefine("GateParams",
		params.Optional("width", cty.Number, "number of parallel bits", 1),
	)

	// ChainParams parameterizes inverter chains.
	ChainParams = params.MustDefine("ChainParams",
		params.Optional("stages", cty.Number, "number of inverting stages", 2),
		params.Optional("width", cty.Number, "bits per stage", 1),
	)
)

var (
	Inverter      = generator.New("inverter", GateParams, inverter)
	Nand          = generator.New("nand", GateParams, nand)
	Mux           = generator.New("mux", GateParams, mux)
	InverterChain = generator.New("inverter_chain", ChainParams, inverterChain)
)

// Register registers the gate generators.
func (m *Module) Register(r *registry.Registry) {
	for _, g := range []*generator.Generator{Inverter, Nand, Mux, InverterChain} {
		r.RegisterGenerator(g)
	}
}

// positive reads an integer field that must be at least 1.
func positive(p *params.Params, field string) (int, error) {
	n := p.Int(field)
	if n < 1 {
		return 0, &hdlerr.DefinitionError{
			What:   fmt.Sprintf("%s.%s", p.Class().Name(), field),
			Reason: fmt.Sprintf("must be at least 1, got %d", n),
		}
	}
	return n, nil
}
