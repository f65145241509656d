// Package export renders a finalized module hierarchy into a read-only,
// JSON-serializable view, and checks that view against an embedded CUE
// contract.
//
// The view lists every module reachable from the top, leaves first, so a
// consumer can emit definitions in a single pass. Module names are made
// unique within the view; connection targets are rendered as name paths
// such as `mid`, `mid[3]`, `mid[0:4]`, `u2.y` or `bus.data`.
package export
