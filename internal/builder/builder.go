package builder

import (
	"fmt"
	"maps"
	"slices"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// Builder collects declarations for one module.
type Builder struct {
	name    string
	modOpts []hdl.Option

	decls []*declaration
	// providers maps member names to the first declaration providing them.
	providers map[string]*declaration
}

// Option configures a Builder.
type Option func(*Builder)

// WithPolicy sets the wiring policy of the built module.
func WithPolicy(p hdl.Policy) Option {
	return func(b *Builder) { b.modOpts = append(b.modOpts, hdl.WithPolicy(p)) }
}

// WithDescription documents the built module.
func WithDescription(desc string) Option {
	return func(b *Builder) { b.modOpts = append(b.modOpts, hdl.WithDescription(desc)) }
}

// New creates a builder for a module called name.
func New(name string, opts ...Option) *Builder {
	b := &Builder{name: name, providers: make(map[string]*declaration)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// declaration is one pending node of the build.
type declaration struct {
	id     string // unique label, used in errors and the cycle graph
	member string // member it provides, "" for connection statements
	kind   string // member kind, for duplicate reports
	reads  []string
	eval   func(sc *Scope) error

	done    bool
	waiting string // member the last attempt waited on
}

func (b *Builder) add(d *declaration) {
	b.decls = append(b.decls, d)
	if d.member != "" {
		if _, taken := b.providers[d.member]; !taken {
			b.providers[d.member] = d
		}
	}
}

// Len returns the number of declarations.
func (b *Builder) Len() int { return len(b.decls) }

// Signal declares an internal signal.
func (b *Builder) Signal(name string, width int) *Builder {
	b.add(&declaration{
		id: name, member: name, kind: hdl.KindSignal.String(),
		eval: func(sc *Scope) error {
			_, err := sc.m.AddSignal(name, width)
			return err
		},
	})
	return b
}

// Port declares a port.
func (b *Builder) Port(name string, width int, dir hdl.Direction) *Builder {
	b.add(&declaration{
		id: name, member: name, kind: hdl.KindPort.String(),
		eval: func(sc *Scope) error {
			_, err := sc.m.AddPort(name, width, dir)
			return err
		},
	})
	return b
}

// Interface declares an interface, exposed as a port when asPort is set.
func (b *Builder) Interface(name string, typ *hdl.InterfaceType, asPort bool) *Builder {
	b.add(&declaration{
		id: name, member: name, kind: hdl.KindInterface.String(),
		eval: func(sc *Scope) error {
			if asPort {
				_, err := sc.m.AddInterfacePort(name, typ)
				return err
			}
			_, err := sc.m.AddInterface(name, typ)
			return err
		},
	})
	return b
}

// Instance declares an instance of target connected with conns. The
// instance is created only once every reference in conns resolves.
func (b *Builder) Instance(name string, target hdl.Target, p *params.Params, conns Conns) *Builder {
	b.add(&declaration{
		id: name, member: name, kind: hdl.KindInstance.String(),
		reads: connsNames(conns),
		eval: func(sc *Scope) error {
			resolved, err := resolveConns(sc, conns)
			if err != nil {
				return err
			}
			inst, err := sc.m.AddInstance(name, target, p)
			if err != nil {
				return err
			}
			return hdl.ConnectAll(inst, resolved)
		},
	})
	return b
}

// Connect declares an assignment-style connection of one instance port.
func (b *Builder) Connect(instance, port string, ref Reference) *Builder {
	var reads []string
	if ref != nil {
		reads = ref.Names()
	}
	id := fmt.Sprintf("connect#%d %s.%s", len(b.decls), instance, port)
	b.add(&declaration{
		id:    id,
		reads: append([]string{instance}, reads...),
		eval: func(sc *Scope) error {
			inst, err := sc.Instance(instance)
			if err != nil {
				return err
			}
			target, err := sc.Resolve(ref)
			if err != nil {
				return err
			}
			return hdl.Connect(inst, port, target)
		},
	})
	return b
}

// ConnectAll declares a call-style connection of several ports of an
// instance, applied atomically.
func (b *Builder) ConnectAll(instance string, conns Conns) *Builder {
	id := fmt.Sprintf("connect#%d %s", len(b.decls), instance)
	b.add(&declaration{
		id:    id,
		reads: append([]string{instance}, connsNames(conns)...),
		eval: func(sc *Scope) error {
			inst, err := sc.Instance(instance)
			if err != nil {
				return err
			}
			resolved, err := resolveConns(sc, conns)
			if err != nil {
				return err
			}
			return hdl.ConnectAll(inst, resolved)
		},
	})
	return b
}

// DeclareFunc produces a detached member. It may read other members through
// the Scope; returning a *PendingError suspends the declaration.
type DeclareFunc func(sc *Scope) (hdl.Member, error)

// Declare adds a general declaration providing the member called name. Its
// reads are discovered while it runs.
func (b *Builder) Declare(name string, fn DeclareFunc) *Builder {
	b.add(&declaration{
		id: name, member: name, kind: "declaration",
		eval: func(sc *Scope) error {
			mem, err := fn(sc)
			if err != nil {
				return err
			}
			if mem == nil {
				return fmt.Errorf("declaration %q produced no member", name)
			}
			if mem.Name() != name {
				return fmt.Errorf("declaration %q produced member %q", name, mem.Name())
			}
			_, err = sc.m.Add(mem)
			return err
		},
	})
	return b
}

func connsNames(conns Conns) []string {
	var names []string
	for _, port := range slices.Sorted(maps.Keys(conns)) {
		if ref := conns[port]; ref != nil {
			names = append(names, ref.Names()...)
		}
	}
	return names
}

// resolveConns resolves every reference before anything is connected, so a
// suspended declaration leaves no trace.
func resolveConns(sc *Scope, conns Conns) (hdl.Conns, error) {
	out := make(hdl.Conns, len(conns))
	for _, port := range slices.Sorted(maps.Keys(conns)) {
		c, err := sc.Resolve(conns[port])
		if err != nil {
			return nil, err
		}
		out[port] = c
	}
	return out, nil
}
