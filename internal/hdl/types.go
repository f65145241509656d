package hdl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/specialistvlad/hdlforge/internal/hdlerr"
)

var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Direction is the port direction of a signal. Internal signals have
// DirectionNone.
type Direction int

const (
	DirectionNone Direction = iota
	Input
	Output
	Inout
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "input"
	case Output:
		return "output"
	case Inout:
		return "inout"
	default:
		return "none"
	}
}

// ParseDirection parses "input", "output" or "inout".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "input", "in":
		return Input, nil
	case "output", "out":
		return Output, nil
	case "inout":
		return Inout, nil
	case "", "none":
		return DirectionNone, nil
	}
	return DirectionNone, fmt.Errorf("unknown direction %q", s)
}

// Visibility tells internal signals from ports.
type Visibility int

const (
	Internal Visibility = iota
	PortVisibility
)

func (v Visibility) String() string {
	if v == PortVisibility {
		return "port"
	}
	return "internal"
}

// MemberKind tags the variants of Member.
type MemberKind int

const (
	KindSignal MemberKind = iota
	KindPort
	KindInterface
	KindInstance
)

func (k MemberKind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindPort:
		return "port"
	case KindInterface:
		return "interface"
	case KindInstance:
		return "instance"
	}
	return "unknown"
}

// InoutPolicy selects how Inout ports are wired.
type InoutPolicy int

const (
	// InoutShared lets an Inout port join several connectables. Inout ports
	// never count as drivers.
	InoutShared InoutPolicy = iota
	// InoutExclusive makes Inout ports write-once, like inputs.
	InoutExclusive
)

func (p InoutPolicy) String() string {
	if p == InoutExclusive {
		return "exclusive"
	}
	return "shared"
}

// Policy holds the module-level wiring rules.
type Policy struct {
	Inout InoutPolicy
	// RequireOutputs makes instance Output ports mandatory at finalization.
	RequireOutputs bool
}

// DefaultPolicy is used by NewModule unless WithPolicy is given.
var DefaultPolicy = Policy{Inout: InoutShared}

// validateName checks a member or module name.
func validateName(what, name string) error {
	if !nameRegex.MatchString(name) {
		return &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("name %q must be an identifier", name)}
	}
	return nil
}

// validateWidth checks a bit-width.
func validateWidth(what string, width int) error {
	if width <= 0 {
		return &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("width must be positive, got %d", width)}
	}
	return nil
}
