package namepath

// Range is a literal bit range: start inclusive, stop exclusive, step non-zero.
type Range struct {
	Start int
	Stop  int
	Step  int
}

// Segment is a single component of a path, e.g. `name`, `name[3]` or
// `name[0:4]`.
type Segment struct {
	Name  string
	Index int    // -1 indicates no index is present.
	Range *Range // nil unless the segment selects a range.
}

// Named creates a segment without a selection.
func Named(name string) Segment {
	return Segment{Name: name, Index: -1}
}

// Indexed creates a segment selecting a single bit.
func Indexed(name string, index int) Segment {
	return Segment{Name: name, Index: index}
}

// Ranged creates a segment selecting a range of bits.
func Ranged(name string, start, stop, step int) Segment {
	return Segment{Name: name, Index: -1, Range: &Range{Start: start, Stop: stop, Step: step}}
}

// HasIndex returns true if the segment selects a single bit.
func (s Segment) HasIndex() bool {
	return s.Index != -1
}

// Path is the structured representation of a member reference.
type Path []Segment

// New builds a path of plain named segments.
func New(names ...string) Path {
	p := make(Path, 0, len(names))
	for _, n := range names {
		p = append(p, Named(n))
	}
	return p
}

// Root returns the name of the first segment, or "" for an empty path.
func (p Path) Root() string {
	if len(p) == 0 {
		return ""
	}
	return p[0].Name
}
