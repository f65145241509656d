package export

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Validator checks exported designs against the embedded CUE contract.
type Validator struct {
	ctx    *cue.Context
	design cue.Value
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if schema.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", schema.Err())
	}
	design := schema.LookupPath(cue.ParsePath("#Design"))
	if design.Err() != nil {
		return nil, fmt.Errorf("looking up #Design definition: %w", design.Err())
	}
	return &Validator{ctx: ctx, design: design}, nil
}

// Validate checks that the design conforms to the contract.
func (v *Validator) Validate(d *Design) error {
	raw, err := d.JSON()
	if err != nil {
		return fmt.Errorf("marshaling design to JSON: %w", err)
	}
	return v.ValidateJSON(raw)
}

// ValidateJSON checks an already encoded design.
func (v *Validator) ValidateJSON(raw []byte) error {
	data := v.ctx.CompileBytes(raw, cue.Filename("design.json"))
	if data.Err() != nil {
		return fmt.Errorf("compiling design as CUE: %w", data.Err())
	}
	unified := v.design.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// Errors lists every contract violation of the design, one per entry.
func (v *Validator) Errors(d *Design) []string {
	if err := v.Validate(d); err != nil {
		var out []string
		for _, e := range cueerrors.Errors(err) {
			out = append(out, e.Error())
		}
		if len(out) == 0 {
			out = append(out, err.Error())
		}
		return out
	}
	return nil
}
