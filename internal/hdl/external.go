package hdl

import (
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/specialistvlad/hdlforge/internal/params"
)

// ExternalModule is a module defined outside the design, such as a device
// primitive or a foundry cell. Only its ports and parameter class are known.
type ExternalModule struct {
	name        string
	description string
	domain      string
	class       *params.Class
	ports       []PortSpec
	index       map[string]int
}

// ExternalSpec declares an ExternalModule.
type ExternalSpec struct {
	Name        string
	Description string
	// Domain names the library or process the module lives in.
	Domain string
	// Class is the parameter class of its instances; nil means params.None.
	Class *params.Class
	Ports []PortSpec
}

// NewExternalModule validates and creates an external module.
func NewExternalModule(spec ExternalSpec) (*ExternalModule, error) {
	if err := validateName("external module", spec.Name); err != nil {
		return nil, err
	}
	class := spec.Class
	if class == nil {
		class = params.None
	}
	e := &ExternalModule{
		name:        spec.Name,
		description: spec.Description,
		domain:      spec.Domain,
		class:       class,
		index:       make(map[string]int, len(spec.Ports)),
	}
	for _, p := range spec.Ports {
		what := fmt.Sprintf("external module %q port", spec.Name)
		if err := validateName(what, p.Name); err != nil {
			return nil, err
		}
		if _, dup := e.index[p.Name]; dup {
			return nil, &hdlerr.DuplicateMemberError{Module: spec.Name, Name: p.Name, Existing: "port", Incoming: "port"}
		}
		if !p.IsInterface() {
			if err := validateWidth(what+" "+p.Name, p.Width); err != nil {
				return nil, err
			}
			if p.Direction == DirectionNone {
				return nil, &hdlerr.DefinitionError{What: what + " " + p.Name, Reason: "a port needs a direction"}
			}
		}
		e.index[p.Name] = len(e.ports)
		e.ports = append(e.ports, p)
	}
	return e, nil
}

// MustExternalModule is NewExternalModule for package-level declarations.
func MustExternalModule(spec ExternalSpec) *ExternalModule {
	e, err := NewExternalModule(spec)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *ExternalModule) Name() string { return e.name }

func (e *ExternalModule) Description() string { return e.description }

func (e *ExternalModule) Domain() string { return e.domain }

// Class returns the parameter class of the module's instances.
func (e *ExternalModule) Class() *params.Class { return e.class }

func (e *ExternalModule) PortSpecs() []PortSpec {
	out := make([]PortSpec, len(e.ports))
	copy(out, e.ports)
	return out
}

func (e *ExternalModule) LookupPort(name string) (PortSpec, bool) {
	i, ok := e.index[name]
	if !ok {
		return PortSpec{}, false
	}
	return e.ports[i], true
}

func (e *ExternalModule) String() string { return e.name }

func (e *ExternalModule) target() {}
