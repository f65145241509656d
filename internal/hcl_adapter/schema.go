// This file declares the HCL schema of design files as gohcl-decodable
// structs.

package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any
// file. Unknown blocks are rejected.
type fileRoot struct {
	ParamClasses []*ParamClassBlock `hcl:"paramclass,block"`
	Interfaces   []*InterfaceBlock  `hcl:"interface,block"`
	Externals    []*ExternalBlock   `hcl:"external,block"`
	Modules      []*ModuleBlock     `hcl:"module,block"`
}

// ParamClassBlock is a top-level `paramclass "Name" { ... }` block.
type ParamClassBlock struct {
	Name        string        `hcl:"name,label"`
	Description string        `hcl:"description,optional"`
	Fields      []*FieldBlock `hcl:"field,block"`
}

// FieldBlock is a `field "name" { ... }` block of a param class.
type FieldBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Class       string         `hcl:"class,optional"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// InterfaceBlock is a top-level `interface "Name" { ... }` type block.
type InterfaceBlock struct {
	Name   string                 `hcl:"name,label"`
	Fields []*InterfaceFieldBlock `hcl:"field,block"`
}

// InterfaceFieldBlock is a `field "name" { ... }` block of an interface type.
type InterfaceFieldBlock struct {
	Name      string `hcl:"name,label"`
	Width     int    `hcl:"width"`
	Direction string `hcl:"direction,optional"`
}

// ExternalBlock is a top-level `external "Name" { ... }` block.
type ExternalBlock struct {
	Name        string       `hcl:"name,label"`
	Description string       `hcl:"description,optional"`
	Domain      string       `hcl:"domain,optional"`
	Params      string       `hcl:"params,optional"`
	Ports       []*PortBlock `hcl:"port,block"`
}

// ModuleBlock is a top-level `module "Name" { ... }` block.
type ModuleBlock struct {
	Name        string                  `hcl:"name,label"`
	Description string                  `hcl:"description,optional"`
	Ports       []*PortBlock            `hcl:"port,block"`
	Signals     []*SignalBlock          `hcl:"signal,block"`
	Interfaces  []*InterfaceMemberBlock `hcl:"interface,block"`
	Instances   []*InstanceBlock        `hcl:"instance,block"`
	Connects    []*ConnectBlock         `hcl:"connect,block"`
}

// PortBlock is a `port "name" { ... }` block.
type PortBlock struct {
	Name        string `hcl:"name,label"`
	Width       int    `hcl:"width"`
	Direction   string `hcl:"direction"`
	Description string `hcl:"description,optional"`
}

// SignalBlock is a `signal "name" { ... }` block.
type SignalBlock struct {
	Name        string `hcl:"name,label"`
	Width       int    `hcl:"width"`
	Description string `hcl:"description,optional"`
}

// InterfaceMemberBlock is an `interface "name" { type = "T" }` block inside
// a module.
type InterfaceMemberBlock struct {
	Name string `hcl:"name,label"`
	Type string `hcl:"type"`
	Port bool   `hcl:"port,optional"`
}

// InstanceBlock is an `instance "name" { ... }` block.
type InstanceBlock struct {
	Name      string         `hcl:"name,label"`
	Of        string         `hcl:"of,optional"`
	Generator string         `hcl:"generator,optional"`
	Params    hcl.Expression `hcl:"params,optional"`
	Connect   hcl.Expression `hcl:"connect,optional"`
}

// ConnectBlock is a `connect "instance" { port = target ... }` statement.
type ConnectBlock struct {
	Instance string   `hcl:"instance,label"`
	Body     hcl.Body `hcl:",remain"`
}
