package params

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/zclconf/go-cty/cty"
)

var fieldNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Field describes one entry of a Class. Use Required, Optional, Nested or
// NestedOptional to create fields.
type Field struct {
	Name        string
	Type        cty.Type // cty.NilType when Class is set
	Class       *Class
	Description string
	Default     *cty.Value // nil for required fields; resolved by Define

	defaultRaw any
	hasDefault bool
}

// Required declares a field that must be supplied.
func Required(name string, ty cty.Type, description string) Field {
	return Field{Name: name, Type: ty, Description: description}
}

// Optional declares a field with a default value.
func Optional(name string, ty cty.Type, description string, def any) Field {
	return Field{Name: name, Type: ty, Description: description, defaultRaw: def, hasDefault: true}
}

// Nested declares a required field whose value is itself a param record.
func Nested(name string, class *Class, description string) Field {
	return Field{Name: name, Type: cty.NilType, Class: class, Description: description}
}

// NestedOptional declares a nested field defaulting to the given values of
// the nested class.
func NestedOptional(name string, class *Class, description string, defaults map[string]any) Field {
	if defaults == nil {
		defaults = map[string]any{}
	}
	return Field{Name: name, Type: cty.NilType, Class: class, Description: description, defaultRaw: defaults, hasDefault: true}
}

// Optional reports whether the field carries a default.
func (f Field) Optional() bool {
	return f.Default != nil
}

// TypeName is a human-readable rendering of the field type.
func (f Field) TypeName() string {
	if f.Class != nil {
		return "paramclass " + f.Class.name
	}
	return f.Type.FriendlyName()
}

func (f Field) ctyType() cty.Type {
	if f.Class != nil {
		return f.Class.ty
	}
	return f.Type
}

// Class is an ordered, immutable parameter schema.
type Class struct {
	id     uuid.UUID
	name   string
	fields []Field
	index  map[string]int
	ty     cty.Type
}

// Define creates a Class. Field names must be unique identifiers, and a
// required field may not follow an optional one.
func Define(name string, fields ...Field) (*Class, error) {
	if name == "" {
		return nil, &hdlerr.DefinitionError{What: "param class", Reason: "name cannot be empty"}
	}

	c := &Class{
		id:     uuid.New(),
		name:   name,
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	attrTypes := make(map[string]cty.Type, len(fields))
	seenOptional := ""

	for _, f := range fields {
		what := fmt.Sprintf("param class %q", name)
		if !fieldNameRegex.MatchString(f.Name) {
			return nil, &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("invalid field name %q", f.Name)}
		}
		if _, dup := c.index[f.Name]; dup {
			return nil, &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		if f.Class == nil && f.Type == cty.NilType {
			return nil, &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("field %q has no type", f.Name)}
		}
		if f.hasDefault || f.Default != nil {
			raw := f.defaultRaw
			if !f.hasDefault {
				raw = *f.Default
			}
			def, err := validateField(f, raw, "")
			if err != nil {
				return nil, &hdlerr.DefinitionError{What: what, Reason: fmt.Sprintf("default for field %q: %v", f.Name, err)}
			}
			f.Default = &def
			seenOptional = f.Name
		} else if seenOptional != "" {
			return nil, &hdlerr.DefinitionError{
				What:   what,
				Reason: fmt.Sprintf("required field %q follows optional field %q", f.Name, seenOptional),
			}
		}

		c.index[f.Name] = len(c.fields)
		c.fields = append(c.fields, f)
		attrTypes[f.Name] = f.ctyType()
	}
	c.ty = cty.Object(attrTypes)
	return c, nil
}

// MustDefine is Define for package-level class declarations; it panics on
// error.
func MustDefine(name string, fields ...Field) *Class {
	c, err := Define(name, fields...)
	if err != nil {
		panic(err)
	}
	return c
}

// None is the class of generators that take no parameters.
var None = MustDefine("None")

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// ID returns the class identity. Two classes with identical fields are still
// distinct classes.
func (c *Class) ID() uuid.UUID { return c.id }

// Type returns the cty object type of the class' records.
func (c *Class) Type() cty.Type { return c.ty }

// Fields returns the fields in declaration order.
func (c *Class) Fields() []Field {
	out := make([]Field, len(c.fields))
	copy(out, c.fields)
	return out
}

// Field looks up a field by name.
func (c *Class) Field(name string) (Field, bool) {
	i, ok := c.index[name]
	if !ok {
		return Field{}, false
	}
	return c.fields[i], true
}

// String implements fmt.Stringer.
func (c *Class) String() string {
	return fmt.Sprintf("ParamClass(%s)", c.name)
}
