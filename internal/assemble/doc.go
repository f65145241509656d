// Package assemble turns a format-agnostic design model into finalized
// modules.
//
// Definitions may reference each other in any order. Param classes are
// ordered by their nested-class references and modules by their instance
// targets, each with a dependency graph; a cycle in either is reported as a
// CyclicReferenceError. Instance targets and interface types resolve to the
// design files first and to the registry second. Generator instances are
// elaborated through the shared Elaborator, so identical parameters share
// one module.
//
// Every module is built with the dependency-ordered builder, so connection
// statements may name members declared further down the block.
package assemble
