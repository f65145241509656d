package hdl

// Reachable returns top and every Module reachable from it through
// instances, leaves first. Each module appears once. Modules built during
// elaboration but never instantiated are not reachable from anywhere and so
// are never exposed.
func Reachable(top *Module) []*Module {
	var out []*Module
	seen := make(map[*Module]bool)
	var visit func(*Module)
	visit = func(m *Module) {
		if seen[m] {
			return
		}
		seen[m] = true
		for _, inst := range m.Instances() {
			if child, ok := inst.target.(*Module); ok {
				visit(child)
			}
		}
		out = append(out, m)
	}
	if top != nil {
		visit(top)
	}
	return out
}

// ReachableExternals returns the external modules instantiated anywhere
// below top, in first-use order.
func ReachableExternals(top *Module) []*ExternalModule {
	var out []*ExternalModule
	seen := make(map[*ExternalModule]bool)
	for _, m := range Reachable(top) {
		for _, inst := range m.Instances() {
			if ext, ok := inst.target.(*ExternalModule); ok && !seen[ext] {
				seen[ext] = true
				out = append(out, ext)
			}
		}
	}
	return out
}
