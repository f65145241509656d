package params

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/specialistvlad/hdlforge/internal/hdlerr"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// Params is an immutable, validated record of a Class. Two records are equal
// when they share a class and hold equal field values; equal records have
// equal hashes and keys.
type Params struct {
	class *Class
	val   cty.Value
	key   string
	hash  uint64
}

// Construct validates values against the class and builds a record. It
// reports, in order: unknown keys, the first field whose value does not match
// its declared type, and every required field left out. Omitted optional
// fields take their defaults.
func Construct(c *Class, values map[string]any) (*Params, error) {
	return construct(c, values, "")
}

// FromCty builds a record from an object (or map) value, validating it the
// same way as Construct.
func FromCty(c *Class, val cty.Value) (*Params, error) {
	return fromCty(c, val, "")
}

// Defaults builds a record using only default values. It fails if the class
// has required fields.
func Defaults(c *Class) (*Params, error) {
	return construct(c, nil, "")
}

func fromCty(c *Class, val cty.Value, prefix string) (*Params, error) {
	if val.IsNull() || !val.IsKnown() || !(val.Type().IsObjectType() || val.Type().IsMapType()) {
		return nil, &hdlerr.TypeMismatchError{
			Field: trimDot(prefix),
			Want:  "paramclass " + c.name,
			Got:   val.Type().FriendlyName(),
		}
	}
	values := make(map[string]any)
	for k, v := range val.AsValueMap() {
		values[k] = v
	}
	return construct(c, values, prefix)
}

func construct(c *Class, values map[string]any, prefix string) (*Params, error) {
	var unknown []string
	for k := range values {
		if _, ok := c.index[k]; !ok {
			unknown = append(unknown, prefix+k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &hdlerr.UnknownParamError{Class: c.name, Fields: unknown}
	}

	attrs := make(map[string]cty.Value, len(c.fields))
	for _, f := range c.fields {
		raw, ok := values[f.Name]
		if !ok {
			continue
		}
		v, err := validateField(f, raw, prefix)
		if err != nil {
			return nil, err
		}
		attrs[f.Name] = v
	}

	var missing []string
	for _, f := range c.fields {
		if _, ok := attrs[f.Name]; ok {
			continue
		}
		if f.Default != nil {
			attrs[f.Name] = *f.Default
			continue
		}
		missing = append(missing, prefix+f.Name)
	}
	if len(missing) > 0 {
		return nil, &hdlerr.MissingRequiredParamError{Class: c.name, Fields: missing}
	}

	return newParams(c, cty.ObjectVal(attrs))
}

// validateField checks and normalizes a single raw value for f.
func validateField(f Field, raw any, prefix string) (cty.Value, error) {
	path := prefix + f.Name

	if f.Class != nil {
		switch r := raw.(type) {
		case *Params:
			if r == nil || r.class != f.Class {
				got := "nil"
				if r != nil {
					got = "paramclass " + r.class.name
				}
				return cty.NilVal, &hdlerr.TypeMismatchError{Field: path, Want: f.TypeName(), Got: got}
			}
			return r.val, nil
		case map[string]any:
			p, err := construct(f.Class, r, path+".")
			if err != nil {
				return cty.NilVal, err
			}
			return p.val, nil
		case cty.Value:
			p, err := fromCty(f.Class, r, path+".")
			if err != nil {
				return cty.NilVal, err
			}
			return p.val, nil
		default:
			return cty.NilVal, &hdlerr.TypeMismatchError{Field: path, Want: f.TypeName(), Got: fmt.Sprintf("%T", raw)}
		}
	}

	v, err := toCty(raw)
	if err != nil {
		return cty.NilVal, &hdlerr.TypeMismatchError{Field: path, Want: f.TypeName(), Got: fmt.Sprintf("%T", raw), Reason: err.Error()}
	}
	if err := conforms(v, f.Type); err != nil {
		return cty.NilVal, &hdlerr.TypeMismatchError{Field: path, Want: f.TypeName(), Got: v.Type().FriendlyName(), Reason: err.Error()}
	}
	nv, err := convert.Convert(v, f.Type)
	if err != nil {
		return cty.NilVal, &hdlerr.TypeMismatchError{Field: path, Want: f.TypeName(), Got: v.Type().FriendlyName(), Reason: err.Error()}
	}
	return nv, nil
}

func newParams(c *Class, val cty.Value) (*Params, error) {
	enc, err := ctymsgpack.Marshal(val, c.ty)
	if err != nil {
		return nil, fmt.Errorf("param class %q: encoding record: %w", c.name, err)
	}
	return &Params{
		class: c,
		val:   val,
		key:   c.id.String() + ":" + string(enc),
		hash:  xxhash.Sum64(enc),
	}, nil
}

func trimDot(prefix string) string {
	if n := len(prefix); n > 0 && prefix[n-1] == '.' {
		return prefix[:n-1]
	}
	return prefix
}

// Class returns the record's class.
func (p *Params) Class() *Class { return p.class }

// Equal reports structural equality.
func (p *Params) Equal(other *Params) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.class == other.class && p.key == other.key
}

// Hash returns a stable hash of all field values.
func (p *Params) Hash() uint64 { return p.hash }

// Key returns the canonical encoding of the record, unique per class and
// value. It is suitable as a map key.
func (p *Params) Key() string { return p.key }

// CtyValue returns the record as a cty object value.
func (p *Params) CtyValue() cty.Value { return p.val }

// Value returns the value of a field. It panics if the field does not exist.
func (p *Params) Value(name string) cty.Value {
	if _, ok := p.class.index[name]; !ok {
		panic(fmt.Sprintf("params: class %q has no field %q", p.class.name, name))
	}
	return p.val.GetAttr(name)
}

// Int returns a number field as an int.
func (p *Params) Int(name string) int {
	var out int
	if err := gocty.FromCtyValue(p.Value(name), &out); err != nil {
		panic(fmt.Sprintf("params: field %q: %v", name, err))
	}
	return out
}

// Float returns a number field as a float64.
func (p *Params) Float(name string) float64 {
	var out float64
	if err := gocty.FromCtyValue(p.Value(name), &out); err != nil {
		panic(fmt.Sprintf("params: field %q: %v", name, err))
	}
	return out
}

// String returns a string field.
func (p *Params) String(name string) string {
	return p.Value(name).AsString()
}

// Bool returns a bool field.
func (p *Params) Bool(name string) bool {
	return p.Value(name).True()
}

// Nested returns a nested record field.
func (p *Params) Nested(name string) *Params {
	f, ok := p.class.Field(name)
	if !ok || f.Class == nil {
		panic(fmt.Sprintf("params: field %q of class %q is not a nested param class", name, p.class.name))
	}
	np, err := newParams(f.Class, p.val.GetAttr(name))
	if err != nil {
		panic(err)
	}
	return np
}

// Decode copies the record into a Go struct whose fields carry `cty` tags.
// Every field of the class needs a matching struct field.
func (p *Params) Decode(target any) error {
	return gocty.FromCtyValue(p.val, target)
}

// ToMapping converts the record into nested plain Go maps, the inverse of
// Construct for complete, well-typed inputs.
func (p *Params) ToMapping() map[string]any {
	m, _ := toNative(p.val).(map[string]any)
	if m == nil {
		m = map[string]any{}
	}
	return m
}

// MarshalJSON renders the record as a JSON object.
func (p *Params) MarshalJSON() ([]byte, error) {
	return ctyjson.Marshal(p.val, p.val.Type())
}

// Format renders the record in a compact, deterministic `Class(k=v, ...)`
// form used when naming generated modules and in logs.
func (p *Params) Format() string {
	out := p.class.name + "("
	for i, f := range p.class.fields {
		if i > 0 {
			out += ", "
		}
		js, err := ctyjson.Marshal(p.val.GetAttr(f.Name), p.val.GetAttr(f.Name).Type())
		if err != nil {
			js = []byte("?")
		}
		out += f.Name + "=" + string(js)
	}
	return out + ")"
}
