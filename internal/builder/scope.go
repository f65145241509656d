package builder

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/hdlforge/internal/hdl"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

// ErrNotReady is wrapped by every *PendingError.
var ErrNotReady = errors.New("member not materialized yet")

// PendingError suspends a declaration until the named member exists.
// Declare callbacks return it (usually straight from a Scope lookup).
type PendingError struct {
	Declaration string
	Name        string
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("declaration %q waits on %q: %v", e.Declaration, e.Name, ErrNotReady)
}

func (e *PendingError) Unwrap() error { return ErrNotReady }

// Scope gives a declaration read access to the module under construction.
type Scope struct {
	b    *Builder
	m    *hdl.Module
	decl string
}

// ModuleName returns the name of the module being built.
func (s *Scope) ModuleName() string { return s.m.Name() }

// Member looks up any member. Members declared but not yet materialized
// yield a *PendingError; names nobody declares yield an
// UndefinedReferenceError.
func (s *Scope) Member(name string) (hdl.Member, error) {
	if mem, ok := s.m.Get(name); ok {
		return mem, nil
	}
	if _, declared := s.b.providers[name]; declared {
		return nil, &PendingError{Declaration: s.decl, Name: name}
	}
	return nil, &hdlerr.UndefinedReferenceError{Module: s.b.name, Declaration: s.decl, Name: name}
}

// Signal looks up a signal or port.
func (s *Scope) Signal(name string) (*hdl.Signal, error) {
	mem, err := s.Member(name)
	if err != nil {
		return nil, err
	}
	sig, ok := mem.(*hdl.Signal)
	if !ok {
		return nil, s.wrongKind(name, mem, "signal or port")
	}
	return sig, nil
}

// Instance looks up an instance.
func (s *Scope) Instance(name string) (*hdl.Instance, error) {
	mem, err := s.Member(name)
	if err != nil {
		return nil, err
	}
	inst, ok := mem.(*hdl.Instance)
	if !ok {
		return nil, s.wrongKind(name, mem, "instance")
	}
	return inst, nil
}

// Interface looks up an interface.
func (s *Scope) Interface(name string) (*hdl.Interface, error) {
	mem, err := s.Member(name)
	if err != nil {
		return nil, err
	}
	i, ok := mem.(*hdl.Interface)
	if !ok {
		return nil, s.wrongKind(name, mem, "interface")
	}
	return i, nil
}

// Resolve materializes a reference.
func (s *Scope) Resolve(ref Reference) (hdl.Connectable, error) {
	if ref == nil {
		return nil, nil
	}
	return ref.resolve(s)
}

func (s *Scope) wrongKind(name string, mem hdl.Member, want string) error {
	return &hdlerr.TypeMismatchError{Field: s.decl, Want: want, Got: fmt.Sprintf("%s %s", mem.Kind(), name)}
}
