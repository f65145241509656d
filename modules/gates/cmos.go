package gates

import (
	"context"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/builder"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
	"github.com/specialistvlad/hdlforge/modules/primitives"
)

// supplies declares the vdd/vss rails every gate exposes.
func supplies(b *builder.Builder) *builder.Builder {
	return b.Port("vdd", 1, hdl.Inout).Port("vss", 1, hdl.Inout)
}

func mos(b *builder.Builder, name string, dev *hdl.ExternalModule, d, g, s builder.Reference, bulk string) {
	b.Instance(name, dev, nil, builder.Conns{"d": d, "g": g, "s": s, "b": builder.Ref(bulk)})
}

// inverter builds one complementary pair per bit.
func inverter(ctx context.Context, p *params.Params) (*hdl.Module, error) {
	w, err := positive(p, "width")
	if err != nil {
		return nil, err
	}

	b := supplies(builder.New("", builder.WithDescription(fmt.Sprintf("%d-bit CMOS inverter", w))))
	b.Port("i", w, hdl.Input).Port("o", w, hdl.Output)
	for bit := 0; bit < w; bit++ {
		mos(b, fmt.Sprintf("p%d", bit), primitives.Pmos, builder.Bit("o", bit), builder.Bit("i", bit), builder.Ref("vdd"), "vdd")
		mos(b, fmt.Sprintf("n%d", bit), primitives.Nmos, builder.Bit("o", bit), builder.Bit("i", bit), builder.Ref("vss"), "vss")
	}
	return b.Build(ctx)
}

// nand builds a bitwise two-input NAND: parallel pull-ups and a series
// pull-down through the internal node x.
func nand(ctx context.Context, p *params.Params) (*hdl.Module, error) {
	w, err := positive(p, "width")
	if err != nil {
		return nil, err
	}

	b := supplies(builder.New("", builder.WithDescription(fmt.Sprintf("%d-bit CMOS nand", w))))
	// Pull-down devices are declared ahead of the node they meet at.
	for bit := 0; bit < w; bit++ {
		mos(b, fmt.Sprintf("na%d", bit), primitives.Nmos, builder.Bit("y", bit), builder.Bit("a", bit), builder.Bit("x", bit), "vss")
		mos(b, fmt.Sprintf("nb%d", bit), primitives.Nmos, builder.Bit("x", bit), builder.Bit("b", bit), builder.Ref("vss"), "vss")
		mos(b, fmt.Sprintf("pa%d", bit), primitives.Pmos, builder.Bit("y", bit), builder.Bit("a", bit), builder.Ref("vdd"), "vdd")
		mos(b, fmt.Sprintf("pb%d", bit), primitives.Pmos, builder.Bit("y", bit), builder.Bit("b", bit), builder.Ref("vdd"), "vdd")
	}
	b.Signal("x", w)
	b.Port("a", w, hdl.Input).Port("b", w, hdl.Input).Port("y", w, hdl.Output)
	return b.Build(ctx)
}
