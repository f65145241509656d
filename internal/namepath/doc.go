/*
Package namepath provides the structured form of the name paths used to refer
to module members from outside a module: connection targets in the export
view, `-top` selections on the command line, and references in design files.

A path is a dot-separated sequence of segments, each a member name with an
optional bit selection:

	mid
	mid[3]
	mid[0:4]
	mid[7:-1:-2]
	u2.y
	bus.data

Ranges are literal: start is inclusive, stop is exclusive in the direction of
the step, and no negative wrap-around is applied. Signals and slices resolve
Python-style negative indices before producing a path.
*/
package namepath
