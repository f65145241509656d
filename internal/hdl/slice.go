package hdl

import (
	"fmt"
	"math"

	"github.com/specialistvlad/hdlforge/internal/namepath"
)

// Open stands for an omitted start or stop in Signal.Slice.
const Open = math.MinInt

// Slice is a bit selection of a Signal.
type Slice struct {
	signal *Signal
	bits   []int
	step   int
	single bool
}

// Signal returns the sliced signal.
func (s *Slice) Signal() *Signal { return s.signal }

func (s *Slice) Width() int { return len(s.bits) }

// Bits returns the selected bit indices in selection order.
func (s *Slice) Bits() []int {
	out := make([]int, len(s.bits))
	copy(out, s.bits)
	return out
}

func (s *Slice) Path() namepath.Path {
	var seg namepath.Segment
	if s.single {
		seg = namepath.Indexed(s.signal.name, s.bits[0])
	} else {
		seg = namepath.Ranged(s.signal.name, s.bits[0], s.bits[len(s.bits)-1]+s.step, s.step)
	}
	if s.signal.iface != nil {
		return namepath.Path{namepath.Named(s.signal.iface.name), seg}
	}
	return namepath.Path{seg}
}

func (s *Slice) String() string { return s.Path().String() }

func (s *Slice) connectable() {}

// sliceBits resolves a Python style selection against a width.
func sliceBits(width, start, stop, step int) ([]int, error) {
	if step == 0 {
		return nil, fmt.Errorf("slice step cannot be zero")
	}
	norm := func(i int) int {
		if i < 0 {
			return i + width
		}
		return i
	}

	if step > 0 {
		if start == Open {
			start = 0
		} else {
			start = norm(start)
		}
		if stop == Open {
			stop = width
		} else {
			stop = norm(stop)
		}
		if start < 0 || start >= width || stop > width {
			return nil, fmt.Errorf("range [%d:%d] out of bounds", start, stop)
		}
	} else {
		if start == Open {
			start = width - 1
		} else {
			start = norm(start)
		}
		if stop == Open {
			stop = -1
		} else {
			stop = norm(stop)
		}
		if start < 0 || start >= width || stop < -1 {
			return nil, fmt.Errorf("range [%d:%d:%d] out of bounds", start, stop, step)
		}
	}

	var bits []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		bits = append(bits, i)
	}
	if len(bits) == 0 {
		return nil, fmt.Errorf("empty selection")
	}
	return bits, nil
}
