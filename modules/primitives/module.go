// Package primitives registers the device-level external modules: MOS
// transistors, resistors and capacitors.
package primitives

import (
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/specialistvlad/hdlforge/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Domain is the library all primitives belong to.
const Domain = "hdlforge.primitives"

// Module implements the registry.Module interface for this package.
type Module struct{}

var (
	// MosParams parameterizes both transistor polarities.
	MosParams = params.MustDefine("MosParams",
		params.Optional("w", cty.Number, "channel width in nm", 1000),
		params.Optional("l", cty.Number, "channel length in nm", 100),
		params.Optional("nf", cty.Number, "number of fingers", 1),
		params.Optional("vt", cty.String, "threshold flavor", "std"),
	)

	// ResParams parameterizes resistors.
	ResParams = params.MustDefine("ResParams",
		params.Optional("r", cty.Number, "resistance in ohms", 1000),
	)

	// CapParams parameterizes capacitors.
	CapParams = params.MustDefine("CapParams",
		params.Optional("c", cty.Number, "capacitance in fF", 1),
	)
)

func terminals(names ...string) []hdl.PortSpec {
	ports := make([]hdl.PortSpec, 0, len(names))
	for _, n := range names {
		ports = append(ports, hdl.PortSpec{Name: n, Width: 1, Direction: hdl.Inout})
	}
	return ports
}

var (
	// Nmos is an n-channel transistor with drain, gate, source and bulk.
	Nmos = hdl.MustExternalModule(hdl.ExternalSpec{
		Name:        "Nmos",
		Description: "n-channel MOS transistor",
		Domain:      Domain,
		Class:       MosParams,
		Ports:       terminals("d", "g", "s", "b"),
	})

	// Pmos is a p-channel transistor with drain, gate, source and bulk.
	Pmos = hdl.MustExternalModule(hdl.ExternalSpec{
		Name:        "Pmos",
		Description: "p-channel MOS transistor",
		Domain:      Domain,
		Class:       MosParams,
		Ports:       terminals("d", "g", "s", "b"),
	})

	// Res is a two-terminal resistor.
	Res = hdl.MustExternalModule(hdl.ExternalSpec{
		Name:        "Res",
		Description: "two-terminal resistor",
		Domain:      Domain,
		Class:       ResParams,
		Ports:       terminals("p", "n"),
	})

	// Cap is a two-terminal capacitor.
	Cap = hdl.MustExternalModule(hdl.ExternalSpec{
		Name:        "Cap",
		Description: "two-terminal capacitor",
		Domain:      Domain,
		Class:       CapParams,
		Ports:       terminals("p", "n"),
	})
)

// Register registers the primitives and their param classes.
func (m *Module) Register(r *registry.Registry) {
	for _, c := range []*params.Class{MosParams, ResParams, CapParams} {
		r.RegisterParamClass(c)
	}
	for _, e := range []*hdl.ExternalModule{Nmos, Pmos, Res, Cap} {
		r.RegisterExternal(e)
	}
}
