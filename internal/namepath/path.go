package namepath

import (
	"strconv"
	"strings"
)

// String serializes the path into its canonical form.
func (p Path) String() string {
	var sb strings.Builder
	for i, seg := range p {
		if i > 0 {
			sb.WriteRune('.')
		}
		sb.WriteString(seg.Name)
		switch {
		case seg.Range != nil:
			sb.WriteRune('[')
			sb.WriteString(strconv.Itoa(seg.Range.Start))
			sb.WriteRune(':')
			sb.WriteString(strconv.Itoa(seg.Range.Stop))
			if seg.Range.Step != 1 {
				sb.WriteRune(':')
				sb.WriteString(strconv.Itoa(seg.Range.Step))
			}
			sb.WriteRune(']')
		case seg.Index != -1:
			sb.WriteRune('[')
			sb.WriteString(strconv.Itoa(seg.Index))
			sb.WriteRune(']')
		}
	}
	return sb.String()
}

// Equal checks two paths segment by segment.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		a, b := p[i], other[i]
		if a.Name != b.Name || a.Index != b.Index {
			return false
		}
		if (a.Range == nil) != (b.Range == nil) {
			return false
		}
		if a.Range != nil && *a.Range != *b.Range {
			return false
		}
	}
	return true
}
