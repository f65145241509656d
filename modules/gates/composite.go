package gates

import (
	"context"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/builder"
	"github.com/specialistvlad/hdlforge/internal/generator"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// stageModule builds the private per-stage module of an inverter chain. It
// is never cached or registered, so it is only reachable through the chain
// that instantiates it.
func stageModule(ctx context.Context, w int) (*hdl.Module, error) {
	inv, err := generator.FromContext(ctx).Generate(ctx, Inverter, map[string]any{"width": w})
	if err != nil {
		return nil, err
	}

	m := hdl.NewModule("inverter_chain_stage", hdl.WithDescription("inverter chain stage"))
	conns := hdl.Conns{}
	for _, port := range []struct {
		name  string
		width int
		dir   hdl.Direction
	}{{"vdd", 1, hdl.Inout}, {"vss", 1, hdl.Inout}, {"i", w, hdl.Input}, {"o", w, hdl.Output}} {
		sig, err := m.AddPort(port.name, port.width, port.dir)
		if err != nil {
			return nil, err
		}
		conns[port.name] = sig
	}
	inst, err := m.AddInstance("inv", inv, nil)
	if err != nil {
		return nil, err
	}
	if _, err := inst.ConnectAll(conns); err != nil {
		return nil, err
	}
	return m, nil
}

// inverterChain connects stages back to back through the nodes n0..nN-2.
func inverterChain(ctx context.Context, p *params.Params) (*hdl.Module, error) {
	stages, err := positive(p, "stages")
	if err != nil {
		return nil, err
	}
	w, err := positive(p, "width")
	if err != nil {
		return nil, err
	}
	st, err := stageModule(ctx, w)
	if err != nil {
		return nil, err
	}

	m := hdl.NewModule("", hdl.WithDescription(fmt.Sprintf("%d-stage inverter chain", stages)))
	vdd, err := m.AddPort("vdd", 1, hdl.Inout)
	if err != nil {
		return nil, err
	}
	vss, err := m.AddPort("vss", 1, hdl.Inout)
	if err != nil {
		return nil, err
	}
	in, err := m.AddPort("i", w, hdl.Input)
	if err != nil {
		return nil, err
	}
	out, err := m.AddPort("o", w, hdl.Output)
	if err != nil {
		return nil, err
	}

	prev := in
	for k := 0; k < stages; k++ {
		next := out
		if k < stages-1 {
			if next, err = m.AddSignal(fmt.Sprintf("n%d", k), w); err != nil {
				return nil, err
			}
		}
		inst, err := m.AddInstance(fmt.Sprintf("s%d", k), st, nil)
		if err != nil {
			return nil, err
		}
		if _, err := inst.ConnectAll(hdl.Conns{"i": prev, "o": next, "vdd": vdd, "vss": vss}); err != nil {
			return nil, err
		}
		prev = next
	}
	return m, nil
}

// mux selects a when sel is low and b when sel is high, bit by bit, as
// y = nand(nand(a, !sel), nand(b, sel)).
func mux(ctx context.Context, p *params.Params) (*hdl.Module, error) {
	w, err := positive(p, "width")
	if err != nil {
		return nil, err
	}
	elab := generator.FromContext(ctx)
	inv, err := elab.Generate(ctx, Inverter, nil)
	if err != nil {
		return nil, err
	}
	nd, err := elab.Generate(ctx, Nand, nil)
	if err != nil {
		return nil, err
	}

	b := supplies(builder.New("", builder.WithDescription(fmt.Sprintf("%d-bit 2:1 mux", w))))
	b.Port("a", w, hdl.Input).Port("b", w, hdl.Input).Port("sel", 1, hdl.Input).Port("y", w, hdl.Output)
	b.Signal("sel_n", 1).Signal("ta", w).Signal("tb", w)

	rails := func(c builder.Conns) builder.Conns {
		c["vdd"], c["vss"] = builder.Ref("vdd"), builder.Ref("vss")
		return c
	}
	b.Instance("sinv", inv, nil, rails(builder.Conns{"i": builder.Ref("sel"), "o": builder.Ref("sel_n")}))
	for i := 0; i < w; i++ {
		b.Instance(fmt.Sprintf("na%d", i), nd, nil, rails(builder.Conns{
			"a": builder.Bit("a", i), "b": builder.Ref("sel_n"), "y": builder.Bit("ta", i),
		}))
		b.Instance(fmt.Sprintf("nb%d", i), nd, nil, rails(builder.Conns{
			"a": builder.Bit("b", i), "b": builder.Ref("sel"), "y": builder.Bit("tb", i),
		}))
		b.Instance(fmt.Sprintf("no%d", i), nd, nil, rails(builder.Conns{
			"a": builder.Bit("ta", i), "b": builder.Bit("tb", i), "y": builder.Bit("y", i),
		}))
	}
	return b.Build(ctx)
}
