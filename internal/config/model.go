package config

import (
	"github.com/specialistvlad/hdlforge/internal/namepath"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of a design. Blocks
// keep the order they were read in, but nothing depends on that order.
type Model struct {
	ParamClasses []*ParamClass
	Interfaces   []*Interface
	Externals    []*External
	Modules      []*Module
}

// Source locates a definition in its file, for error messages.
type Source struct {
	File string
	Line int
}

// ParamClass is the format-agnostic representation of a `paramclass` block.
type ParamClass struct {
	Name        string
	Description string
	Fields      []*Field
	Source      Source
}

// Field is one field of a ParamClass. Exactly one of Type and Class is set.
type Field struct {
	Name        string
	Description string
	Type        cty.Type
	// Class names another param class for nested fields.
	Class   string
	Default *cty.Value
}

// Interface is the format-agnostic representation of an `interface` type
// block.
type Interface struct {
	Name   string
	Fields []*InterfaceField
	Source Source
}

// InterfaceField is one field of an Interface.
type InterfaceField struct {
	Name      string
	Width     int
	Direction string
}

// External is the format-agnostic representation of an `external` block: a
// module defined outside the design, known only by its ports and params.
type External struct {
	Name        string
	Description string
	Domain      string
	// Params names the param class of its instances; empty means none.
	Params string
	Ports  []*Port
	Source Source
}

// Module is the format-agnostic representation of a `module` block.
type Module struct {
	Name        string
	Description string
	Ports       []*Port
	Signals     []*Signal
	Interfaces  []*InterfaceMember
	Instances   []*Instance
	Connects    []*Connect
	Source      Source
}

// Port declares a module port.
type Port struct {
	Name        string
	Width       int
	Direction   string
	Description string
}

// Signal declares an internal signal.
type Signal struct {
	Name        string
	Width       int
	Description string
}

// InterfaceMember declares an interface inside a module.
type InterfaceMember struct {
	Name string
	Type string
	Port bool
}

// Instance declares an instance. Exactly one of Of and Generator is set.
type Instance struct {
	Name      string
	Of        string
	Generator string
	// Params is null (cty.NilVal) when the instance sets no params.
	Params  cty.Value
	Connect map[string]*Ref
	Source  Source
}

// Connect is an assignment-style connection statement for an instance
// declared elsewhere in the module.
type Connect struct {
	Instance string
	Connect  map[string]*Ref
	Source   Source
}

// Ref is a connection target: `sig`, `sig[3]`, `sig[0:4]`, `inst.port` or
// `iface.field`.
type Ref struct {
	Path   namepath.Path
	Source Source
}

// Names returns the member names the reference reads.
func (r *Ref) Names() []string {
	if len(r.Path) == 0 {
		return nil
	}
	return []string{r.Path[0].Name}
}

// ModuleDependencies returns the names instance blocks use as `of`
// targets, in declaration order and without duplicates.
func (m *Module) ModuleDependencies() []string {
	var out []string
	seen := make(map[string]bool)
	for _, inst := range m.Instances {
		if inst.Of != "" && !seen[inst.Of] {
			seen[inst.Of] = true
			out = append(out, inst.Of)
		}
	}
	return out
}
