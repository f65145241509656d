package export

import "encoding/json"

// Design is the exported view of a module hierarchy.
type Design struct {
	Top       string     `json:"top"`
	Modules   []Module   `json:"modules"`
	Externals []External `json:"externals"`
}

// Module is one module definition.
type Module struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Description string          `json:"description,omitempty"`
	Generator   string          `json:"generator,omitempty"`
	Params      json.RawMessage `json:"params,omitempty"`
	Members     []Member        `json:"members"`
	Interfaces  []Interface     `json:"interfaces"`
	Instances   []Instance      `json:"instances"`
}

// Member is a module member tagged by kind, in declaration order.
type Member struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Width     int    `json:"width,omitempty"`
	Direction string `json:"direction,omitempty"`
	// Type is the interface type for interfaces and the target for instances.
	Type string `json:"type,omitempty"`
}

// Interface is an interface bundle with its field signals.
type Interface struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Port   bool    `json:"port"`
	Fields []Field `json:"fields"`
}

// Field is one interface field.
type Field struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
	Role  string `json:"role"`
}

// Instance is one instance with its resolved connections.
type Instance struct {
	Name        string          `json:"name"`
	Of          string          `json:"of"`
	Params      json.RawMessage `json:"params,omitempty"`
	Connections []Connection    `json:"connections"`
}

// Connection lists the targets of one instance port.
type Connection struct {
	Port    string   `json:"port"`
	Targets []string `json:"targets"`
}

// External is an external module definition used by the hierarchy.
type External struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Domain      string `json:"domain,omitempty"`
	Description string `json:"description,omitempty"`
	ParamClass  string `json:"param_class"`
	Ports       []Port `json:"ports"`
}

// Port is one port of an external module.
type Port struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Direction string `json:"direction"`
	Interface string `json:"interface,omitempty"`
}
