package hdl

import (
	"fmt"
	"maps"
)

// netBit identifies one bit of a net: a bit of a module signal, or a bit of
// an instance port reached through a PortRef.
type netBit struct {
	sig  *Signal
	inst *Instance
	port string
	bit  int
}

func (b netBit) String() string {
	if b.sig != nil {
		return fmt.Sprintf("bit %d of %s", b.bit, b.sig)
	}
	return fmt.Sprintf("bit %d of %s.%s", b.bit, b.inst.name, b.port)
}

// wiring tracks the driver of every driven bit of a module.
type wiring struct {
	drivers map[netBit]string
}

func newWiring() *wiring {
	return &wiring{drivers: make(map[netBit]string)}
}

func (w *wiring) clone() *wiring {
	return &wiring{drivers: maps.Clone(w.drivers)}
}

// seedInput marks the bits of a module input port as driven from outside.
func (w *wiring) seedInput(s *Signal) {
	for b := 0; b < s.width; b++ {
		w.drivers[netBit{sig: s, bit: b}] = "input port " + s.name
	}
}

// check reports whether driver may drive every bit of target. Output ports
// reached through a PortRef drive their own net and cannot be driven.
func (w *wiring) check(driver string, target Connectable) error {
	if ref, ok := target.(*PortRef); ok {
		if spec, found := ref.Spec(); found && spec.Direction == Output {
			return fmt.Errorf("%s is an output and already drives its net", ref)
		}
	}
	for _, b := range bitsOf(target) {
		if existing, taken := w.drivers[b]; taken && existing != driver {
			return fmt.Errorf("%s is already driven by %s", b, existing)
		}
	}
	return nil
}

// record marks driver on every bit of target.
func (w *wiring) record(driver string, target Connectable) {
	for _, b := range bitsOf(target) {
		w.drivers[b] = driver
	}
}

// bitsOf expands a connectable into its net bits. Interfaces have none.
func bitsOf(c Connectable) []netBit {
	switch v := c.(type) {
	case *Signal:
		out := make([]netBit, v.width)
		for b := range out {
			out[b] = netBit{sig: v, bit: b}
		}
		return out
	case *Slice:
		out := make([]netBit, len(v.bits))
		for i, b := range v.bits {
			out[i] = netBit{sig: v.signal, bit: b}
		}
		return out
	case *PortRef:
		out := make([]netBit, v.Width())
		for b := range out {
			out[b] = netBit{inst: v.inst, port: v.port, bit: b}
		}
		return out
	}
	return nil
}

// sameConnectable reports whether a and b denote the same endpoint.
func sameConnectable(a, b Connectable) bool {
	switch x := a.(type) {
	case *Signal:
		y, ok := b.(*Signal)
		return ok && x == y
	case *Slice:
		y, ok := b.(*Slice)
		if !ok || x.signal != y.signal || len(x.bits) != len(y.bits) {
			return false
		}
		for i := range x.bits {
			if x.bits[i] != y.bits[i] {
				return false
			}
		}
		return true
	case *PortRef:
		y, ok := b.(*PortRef)
		return ok && x.inst == y.inst && x.port == y.port
	case *Interface:
		y, ok := b.(*Interface)
		return ok && x == y
	}
	return false
}

// overlaps reports whether a and b share at least one net bit, or are the
// same interface.
func overlaps(a, b Connectable) bool {
	if ia, ok := a.(*Interface); ok {
		ib, ok := b.(*Interface)
		return ok && ia == ib
	}
	set := make(map[netBit]struct{})
	for _, bit := range bitsOf(a) {
		set[bit] = struct{}{}
	}
	for _, bit := range bitsOf(b) {
		if _, ok := set[bit]; ok {
			return true
		}
	}
	return false
}
