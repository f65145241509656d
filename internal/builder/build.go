package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/ctxlog"
	"github.com/specialistvlad/hdlforge/internal/dag"
	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// Build evaluates every declaration and returns the unfinalized module.
func (b *Builder) Build(ctx context.Context) (*hdl.Module, error) {
	logger := ctxlog.FromContext(ctx).With("module", b.name)
	logger.Debug("Build: Starting module construction.", "declarations", len(b.decls))

	if err := b.checkStatic(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Static checks passed.")

	m := hdl.NewModule(b.name, b.modOpts...)
	pending := make([]*declaration, len(b.decls))
	copy(pending, b.decls)
	for _, d := range pending {
		d.done, d.waiting = false, ""
	}

	for pass := 1; len(pending) > 0; pass++ {
		var next []*declaration
		for _, d := range pending {
			sc := &Scope{b: b, m: m, decl: d.id}
			err := d.eval(sc)
			var pe *PendingError
			switch {
			case errors.As(err, &pe):
				d.waiting = pe.Name
				next = append(next, d)
			case err != nil:
				return nil, fmt.Errorf("module %q, declaration %q: %w", b.name, d.id, err)
			default:
				d.done = true
			}
		}
		logger.Debug("Build: Pass complete.", "pass", pass, "resolved", len(pending)-len(next), "suspended", len(next))
		if len(next) == len(pending) {
			return nil, b.cycleError(next)
		}
		pending = next
	}

	logger.Debug("Build: Module construction successful.", "members", len(m.Members()))
	return m, nil
}

// checkStatic reports duplicate member names and references to members no
// declaration provides.
func (b *Builder) checkStatic() error {
	seen := make(map[string]*declaration, len(b.decls))
	for _, d := range b.decls {
		if d.member == "" {
			continue
		}
		if first, dup := seen[d.member]; dup {
			return &hdlerr.DuplicateMemberError{Module: b.name, Name: d.member, Existing: first.kind, Incoming: d.kind}
		}
		seen[d.member] = d
	}
	for _, d := range b.decls {
		for _, name := range d.reads {
			if _, ok := b.providers[name]; !ok {
				return &hdlerr.UndefinedReferenceError{Module: b.name, Declaration: d.id, Name: name}
			}
		}
	}
	return nil
}

// cycleError builds the wait graph of the stuck declarations and names the
// cycle in it.
func (b *Builder) cycleError(stuck []*declaration) error {
	g := dag.New()
	for _, d := range stuck {
		g.AddNode(d.id)
	}
	for _, d := range stuck {
		provider := b.providers[d.waiting]
		if provider == d {
			return &hdlerr.CyclicReferenceError{Scope: fmt.Sprintf("module %q", b.name), Cycle: []string{d.id, d.id}}
		}
		if provider != nil && !provider.done {
			// d depends on its provider.
			_ = g.AddEdge(provider.id, d.id)
		}
	}

	cycle := make([]string, 0, len(stuck))
	var cycleErr *dag.CycleError
	if err := g.DetectCycles(); errors.As(err, &cycleErr) {
		cycle = cycleErr.Path
	} else {
		for _, d := range stuck {
			cycle = append(cycle, d.id)
		}
	}
	return &hdlerr.CyclicReferenceError{Scope: fmt.Sprintf("module %q", b.name), Cycle: cycle}
}
