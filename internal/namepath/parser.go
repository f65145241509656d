package namepath

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// segmentRegex parses a single segment: `name`, `name[1]`, `name[0:4]` or
// `name[7:-1:-2]`.
var segmentRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)(?:\[(-?\d+)(?::(-?\d+)(?::(-?\d+))?)?\])?$`)

// Parse creates a Path from its canonical string representation.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return nil, fmt.Errorf("name path cannot be empty")
	}

	var p Path
	for _, segStr := range strings.Split(raw, ".") {
		if segStr == "" {
			return nil, fmt.Errorf("name path %q contains an empty segment", raw)
		}
		m := segmentRegex.FindStringSubmatch(segStr)
		if m == nil {
			return nil, fmt.Errorf("invalid name path segment %q", segStr)
		}

		seg := Named(m[1])
		switch {
		case m[3] != "":
			start, _ := strconv.Atoi(m[2])
			stop, _ := strconv.Atoi(m[3])
			step := 1
			if m[4] != "" {
				step, _ = strconv.Atoi(m[4])
			}
			if step == 0 {
				return nil, fmt.Errorf("invalid name path segment %q: step cannot be zero", segStr)
			}
			seg.Range = &Range{Start: start, Stop: stop, Step: step}
		case m[2] != "":
			idx, _ := strconv.Atoi(m[2])
			if idx < 0 {
				return nil, fmt.Errorf("invalid name path segment %q: index cannot be negative", segStr)
			}
			seg.Index = idx
		}
		p = append(p, seg)
	}
	return p, nil
}
