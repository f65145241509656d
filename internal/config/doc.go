// Package config defines the format-agnostic model of a design (param
// classes, interface types and modules as declared in design files) along
// with the Loader interface that fills it from a concrete source.
//
// The `config.Model` is the single input of the `assemble` package.
// Concrete loaders, such as the HCL one, live in separate packages.
package config
