// Package registry provides the central "glue" for the library system.
//
// The Registry maps the names used in design files (for example `of =
// "Nmos"` or `generator = "inverter"`) to the Go values implementing them:
// modules, external modules, generators, interface types and param classes.
// Library packages implement Module and register their contents at startup.
//
// Once populated, the registry is validated so that every name resolves to
// exactly one target and every registered definition is complete.
package registry
