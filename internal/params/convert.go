package params

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// toCty converts a raw Go value into a cty.Value without applying any target
// type. Slices become tuples and string-keyed maps become objects; the strict
// conformance check and the final conversion happen afterwards.
func toCty(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return v, nil
	case *Params:
		if v == nil {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return v.val, nil
	case bool:
		return cty.BoolVal(v), nil
	case string:
		return cty.StringVal(v), nil
	case int:
		return cty.NumberIntVal(int64(v)), nil
	case int8:
		return cty.NumberIntVal(int64(v)), nil
	case int16:
		return cty.NumberIntVal(int64(v)), nil
	case int32:
		return cty.NumberIntVal(int64(v)), nil
	case int64:
		return cty.NumberIntVal(v), nil
	case uint:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(v)), nil
	case uint64:
		return cty.NumberUIntVal(v), nil
	case float32:
		return floatVal(float64(v))
	case float64:
		return floatVal(v)
	case *big.Float:
		return cty.NumberVal(v), nil
	}

	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := toCty(rv.Index(i).Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return cty.NilVal, fmt.Errorf("map keys must be strings, got %s", rv.Type().Key())
		}
		if rv.Len() == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			av, err := toCty(iter.Value().Interface())
			if err != nil {
				return cty.NilVal, fmt.Errorf("key %q: %w", iter.Key().String(), err)
			}
			attrs[iter.Key().String()] = av
		}
		return cty.ObjectVal(attrs), nil
	}

	// Structs with `cty` tags and other gocty-supported shapes.
	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported value of Go type %T", raw)
	}
	return gocty.ToCtyValue(raw, ty)
}

// floatVal rejects NaN, which cty numbers cannot represent.
func floatVal(f float64) (cty.Value, error) {
	if math.IsNaN(f) {
		return cty.NilVal, errors.New("NaN is not a number value")
	}
	return cty.NumberFloatVal(f), nil
}

// conforms checks that val structurally matches want without relying on
// cty's lenient primitive conversions (which would turn "5" into 5).
func conforms(val cty.Value, want cty.Type) error {
	if !val.IsKnown() {
		return fmt.Errorf("value is unknown")
	}
	if val.IsNull() {
		return fmt.Errorf("null is not allowed")
	}
	if want == cty.DynamicPseudoType {
		return nil
	}

	got := val.Type()
	switch {
	case want.IsPrimitiveType():
		if !got.Equals(want) {
			return fmt.Errorf("want %s, got %s", want.FriendlyName(), got.FriendlyName())
		}
		return nil

	case want.IsListType(), want.IsSetType():
		if !got.IsListType() && !got.IsSetType() && !got.IsTupleType() {
			return fmt.Errorf("want %s, got %s", want.FriendlyName(), got.FriendlyName())
		}
		elemType := want.ElementType()
		i := 0
		for it := val.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			if err := conforms(ev, elemType); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil

	case want.IsMapType():
		if !got.IsMapType() && !got.IsObjectType() {
			return fmt.Errorf("want %s, got %s", want.FriendlyName(), got.FriendlyName())
		}
		elemType := want.ElementType()
		for it := val.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			if err := conforms(ev, elemType); err != nil {
				return fmt.Errorf("key %q: %w", k.AsString(), err)
			}
		}
		return nil

	case want.IsObjectType():
		if !got.IsMapType() && !got.IsObjectType() {
			return fmt.Errorf("want %s, got %s", want.FriendlyName(), got.FriendlyName())
		}
		present := val.AsValueMap()
		wantAttrs := want.AttributeTypes()
		for _, name := range sortedKeys(present) {
			if _, ok := wantAttrs[name]; !ok {
				return fmt.Errorf("unexpected attribute %q", name)
			}
		}
		for _, name := range sortedKeys(wantAttrs) {
			av, ok := present[name]
			if !ok {
				return fmt.Errorf("missing attribute %q", name)
			}
			if err := conforms(av, wantAttrs[name]); err != nil {
				return fmt.Errorf("attribute %q: %w", name, err)
			}
		}
		return nil

	case want.IsTupleType():
		if !got.IsTupleType() && !got.IsListType() {
			return fmt.Errorf("want %s, got %s", want.FriendlyName(), got.FriendlyName())
		}
		elemTypes := want.TupleElementTypes()
		if val.LengthInt() != len(elemTypes) {
			return fmt.Errorf("want %d elements, got %d", len(elemTypes), val.LengthInt())
		}
		i := 0
		for it := val.ElementIterator(); it.Next(); i++ {
			_, ev := it.Element()
			if err := conforms(ev, elemTypes[i]); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	}
	return fmt.Errorf("unsupported field type %s", want.FriendlyName())
}

// toNative converts a normalized cty.Value back into plain Go values: numbers
// become int when integral and float64 otherwise, sequences become []any and
// objects or maps become map[string]any.
func toNative(val cty.Value) any {
	if val.IsNull() || !val.IsKnown() {
		return nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString()
	case ty == cty.Bool:
		return val.True()
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact && int64(int(i)) == i {
				return int(i)
			}
		}
		f, _ := bf.Float64()
		return f
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			out = append(out, toNative(ev))
		}
		return out
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any)
		for k, ev := range val.AsValueMap() {
			out[k] = toNative(ev)
		}
		return out
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
