// Package hdlerr defines the error taxonomy shared by the parameter system,
// the object model, the builder and the generator elaborator.
//
// Every failure is a concrete struct type so callers can match it with
// errors.As and inspect the offending names. None of these errors are retried
// internally; each is attributable to a single construction call.
package hdlerr

import (
	"fmt"
	"strings"
)

// DuplicateMemberError reports a member name collision within a Module.
type DuplicateMemberError struct {
	Module   string
	Name     string
	Existing string // kind of the member already present
	Incoming string // kind of the member being added
}

func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("module %q: duplicate member %q (existing %s, new %s)", e.Module, e.Name, e.Existing, e.Incoming)
}

// TypeMismatchError reports a parameter value that does not satisfy its
// declared field type, or a connection target of an illegal kind.
type TypeMismatchError struct {
	Field  string // dotted field path, or "<instance>.<port>" for connections
	Want   string
	Got    string
	Reason string
}

func (e *TypeMismatchError) Error() string {
	msg := fmt.Sprintf("type mismatch for %q", e.Field)
	if e.Want != "" || e.Got != "" {
		msg += fmt.Sprintf(": want %s, got %s", e.Want, e.Got)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// WidthMismatchError reports connected endpoints of different bit-widths.
type WidthMismatchError struct {
	Instance    string
	Port        string
	PortWidth   int
	Target      string
	TargetWidth int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("width mismatch connecting %s.%s (width %d) to %s (width %d)",
		e.Instance, e.Port, e.PortWidth, e.Target, e.TargetWidth)
}

// DirectionError reports a connection that violates the drive-count or
// direction rules.
type DirectionError struct {
	Instance string
	Port     string
	Target   string
	Reason   string
}

func (e *DirectionError) Error() string {
	return fmt.Sprintf("direction error connecting %s.%s to %s: %s", e.Instance, e.Port, e.Target, e.Reason)
}

// ReconnectionError reports an attempt to re-assign a write-once endpoint to
// a different target.
type ReconnectionError struct {
	Instance string
	Port     string
	Existing string
	Incoming string
}

func (e *ReconnectionError) Error() string {
	return fmt.Sprintf("port %s.%s is already connected to %s, cannot reconnect to %s",
		e.Instance, e.Port, e.Existing, e.Incoming)
}

// UnconnectedPortError reports mandatory ports left open at finalization.
type UnconnectedPortError struct {
	Module   string
	Instance string
	Ports    []string
}

func (e *UnconnectedPortError) Error() string {
	return fmt.Sprintf("module %q: instance %q has unconnected ports: %s",
		e.Module, e.Instance, strings.Join(e.Ports, ", "))
}

// CyclicReferenceError reports declarations (or generator calls) which can
// never make progress because they depend on each other.
type CyclicReferenceError struct {
	Scope string
	Cycle []string
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("%s: cyclic reference: %s", e.Scope, strings.Join(e.Cycle, " -> "))
}

// MissingRequiredParamError reports required parameter fields that were not
// supplied.
type MissingRequiredParamError struct {
	Class  string
	Fields []string
}

func (e *MissingRequiredParamError) Error() string {
	return fmt.Sprintf("param class %q: missing required fields: %s", e.Class, strings.Join(e.Fields, ", "))
}

// UnknownParamError reports supplied keys that name no field of the class.
type UnknownParamError struct {
	Class  string
	Fields []string
}

func (e *UnknownParamError) Error() string {
	return fmt.Sprintf("param class %q: unknown fields: %s", e.Class, strings.Join(e.Fields, ", "))
}

// UnknownPortError reports a connection to a port the target does not have.
type UnknownPortError struct {
	Instance string
	Target   string
	Port     string
}

func (e *UnknownPortError) Error() string {
	return fmt.Sprintf("instance %q: target %q has no port %q", e.Instance, e.Target, e.Port)
}

// UndefinedReferenceError reports a declaration that reads a member no
// declaration provides.
type UndefinedReferenceError struct {
	Module      string
	Declaration string
	Name        string
}

func (e *UndefinedReferenceError) Error() string {
	return fmt.Sprintf("module %q: declaration %q references undefined member %q", e.Module, e.Declaration, e.Name)
}

// FinalizedError reports a mutation attempted on a sealed Module.
type FinalizedError struct {
	Module string
	Op     string
}

func (e *FinalizedError) Error() string {
	return fmt.Sprintf("module %q is finalized: cannot %s", e.Module, e.Op)
}

// DefinitionError reports a malformed definition: an invalid name, a
// non-positive width, a badly ordered param class, and so on.
type DefinitionError struct {
	What   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.What, e.Reason)
}

// RangeError reports an out-of-bounds or empty bit selection.
type RangeError struct {
	Signal string
	Width  int
	Reason string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("invalid selection of %q (width %d): %s", e.Signal, e.Width, e.Reason)
}
