package payload

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unsafe"

	"github.com/tidwall/gjson"

	"github.com/sipeed/picobot/pkg/inputfile"
)

var (
	valueType         = reflect.TypeFor[Value]()
	valuePtrType      = reflect.TypeFor[*Value]()
	fieldsType        = reflect.TypeFor[Fields]()
	fieldsPtrType     = reflect.TypeFor[*Fields]()
	inputFileType     = reflect.TypeFor[*inputfile.InputFile]()
	rawMessageType    = reflect.TypeFor[json.RawMessage]()
	numberType        = reflect.TypeFor[json.Number]()
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
)

// FieldsFrom converts a Go value to a payload. v must convert to an object:
// a struct, a map with string keys, Fields, or an object Value.
func FieldsFrom(v any) (Fields, error) {
	value, err := From(v)
	if err != nil {
		return nil, err
	}
	if value.kind != KindObject {
		return nil, fmt.Errorf("%w: got %s", ErrNotObject, value.kind)
	}
	return value.fields, nil
}

// From converts a Go value to a Value following encoding/json conventions:
// struct fields use their json tags (including omitempty, string and "-"),
// embedded structs are flattened with the same rules for conflicting names,
// maps are ordered by key, []byte becomes a base64 string and json.Marshaler
// implementations are honored. *inputfile.InputFile becomes a file value at
// any depth. Values that refer to themselves return ErrCyclicValue.
func From(v any) (Value, error) {
	c := converter{visiting: make(map[visitKey]struct{})}
	return c.convert(reflect.ValueOf(v))
}

// FromJSON parses JSON text into a Value, keeping object member order.
func FromJSON(data []byte) (Value, error) {
	if !gjson.ValidBytes(data) {
		return Value{}, fmt.Errorf("payload: invalid JSON")
	}
	return fromResult(gjson.ParseBytes(data)), nil
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return Number(r.Raw)
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var items []Value
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromResult(item))
				return true
			})
			return Value{kind: KindArray, items: items}
		}
		var fields Fields
		r.ForEach(func(key, item gjson.Result) bool {
			fields = append(fields, KV(key.Str, fromResult(item)))
			return true
		})
		return Value{kind: KindObject, fields: fields}
	default:
		return Null()
	}
}

type visitKey struct {
	ptr unsafe.Pointer
	typ reflect.Type
	len int
}

type converter struct {
	visiting map[visitKey]struct{}
}

// enter marks a reference as being converted. It fails if the reference is
// already on the current path.
func (c *converter) enter(key visitKey) error {
	if _, ok := c.visiting[key]; ok {
		return fmt.Errorf("%w: %s", ErrCyclicValue, key.typ)
	}
	c.visiting[key] = struct{}{}
	return nil
}

func (c *converter) leave(key visitKey) {
	delete(c.visiting, key)
}

func (c *converter) convert(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null(), nil
	}

	switch rv.Type() {
	case valueType:
		return rv.Interface().(Value), nil
	case fieldsType:
		return Object(rv.Interface().(Fields)...), nil
	case valuePtrType, fieldsPtrType:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem())
	case inputFileType:
		return File(rv.Interface().(*inputfile.InputFile)), nil
	case rawMessageType:
		if rv.Len() == 0 {
			return Null(), nil
		}
		return FromJSON(rv.Bytes())
	case numberType:
		if rv.String() == "" {
			return Int(0), nil
		}
		return Number(rv.String()), nil
	}

	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	if rv.Type().Implements(jsonMarshalerType) && rv.CanInterface() {
		return c.marshaler(rv)
	}
	if rv.Kind() != reflect.Pointer && rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(jsonMarshalerType) {
		return c.marshaler(rv.Addr())
	}
	if rv.Type().Implements(textMarshalerType) && rv.CanInterface() {
		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return Value{}, fmt.Errorf("payload: marshal %s: %w", rv.Type(), err)
		}
		return String(string(text)), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32:
		return float32Value(rv.Float()), nil
	case reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return c.convert(rv.Elem())
	case reflect.Pointer:
		key := visitKey{ptr: rv.UnsafePointer(), typ: rv.Type()}
		if err := c.enter(key); err != nil {
			return Value{}, err
		}
		defer c.leave(key)
		return c.convert(rv.Elem())
	case reflect.Slice:
		if rv.IsNil() {
			return Null(), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return String(base64.StdEncoding.EncodeToString(rv.Bytes())), nil
		}
		if rv.Len() > 0 {
			key := visitKey{ptr: rv.UnsafePointer(), typ: rv.Type(), len: rv.Len()}
			if err := c.enter(key); err != nil {
				return Value{}, err
			}
			defer c.leave(key)
		}
		return c.array(rv)
	case reflect.Array:
		return c.array(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null(), nil
		}
		key := visitKey{ptr: rv.UnsafePointer(), typ: rv.Type()}
		if err := c.enter(key); err != nil {
			return Value{}, err
		}
		defer c.leave(key)
		return c.mapValue(rv)
	case reflect.Struct:
		fields, err := c.structFields(rv, nil)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindObject, fields: fields}, nil
	default:
		return Value{}, &UnsupportedTypeError{Type: rv.Type()}
	}
}

// float32Value formats with float32 precision so 0.1 stays 0.1.
func float32Value(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return Number(strconv.FormatFloat(f, format, -1, 32))
}

func (c *converter) marshaler(rv reflect.Value) (Value, error) {
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return Null(), nil
	}
	data, err := rv.Interface().(json.Marshaler).MarshalJSON()
	if err != nil {
		return Value{}, fmt.Errorf("payload: marshal %s: %w", rv.Type(), err)
	}
	return FromJSON(data)
}

func (c *converter) array(rv reflect.Value) (Value, error) {
	items := make([]Value, rv.Len())
	for i := range items {
		item, err := c.convert(rv.Index(i))
		if err != nil {
			return Value{}, err
		}
		items[i] = item
	}
	return Value{kind: KindArray, items: items}, nil
}

func (c *converter) mapValue(rv reflect.Value) (Value, error) {
	type entry struct {
		key   string
		value reflect.Value
	}

	entries := make([]entry, 0, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		key, err := mapKey(it.Key())
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, entry{key: key, value: it.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	fields := make(Fields, 0, len(entries))
	for _, e := range entries {
		v, err := c.convert(e.value)
		if err != nil {
			return Value{}, err
		}
		fields = append(fields, KV(e.key, v))
	}
	return Value{kind: KindObject, fields: fields}, nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	if tm, ok := k.Interface().(encoding.TextMarshaler); ok {
		text, err := tm.MarshalText()
		if err != nil {
			return "", fmt.Errorf("payload: marshal map key: %w", err)
		}
		return string(text), nil
	}
	switch k.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", &UnsupportedTypeError{Type: k.Type()}
}

type structField struct {
	name   string
	opts   string
	depth  int
	tagged bool
	value  reflect.Value
}

// structFields appends the exported fields of rv in declaration order.
// Untagged embedded structs are flattened into the parent; when several
// fields end up with the same name the shallowest wins, then the only tagged
// one, and otherwise all of them are dropped, as encoding/json does.
func (c *converter) structFields(rv reflect.Value, fields Fields) (Fields, error) {
	all, err := c.collectFields(rv, 0, nil)
	if err != nil {
		return nil, err
	}

	for _, sf := range dominantFields(all) {
		if hasOption(sf.opts, "omitempty") && isEmptyValue(sf.value) {
			continue
		}
		v, err := c.convert(sf.value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.name, err)
		}
		if hasOption(sf.opts, "string") {
			if v, err = stringOption(sf.value, v); err != nil {
				return nil, fmt.Errorf("field %s: %w", sf.name, err)
			}
		}
		fields = append(fields, KV(sf.name, v))
	}
	return fields, nil
}

func (c *converter) collectFields(rv reflect.Value, depth int, out []structField) ([]structField, error) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if sf.Anonymous && name == "" {
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						continue
					}
					key := visitKey{ptr: fv.UnsafePointer(), typ: fv.Type()}
					if err := c.enter(key); err != nil {
						return nil, err
					}
					var err error
					out, err = c.collectFields(fv.Elem(), depth+1, out)
					c.leave(key)
					if err != nil {
						return nil, err
					}
					continue
				}
				var err error
				if out, err = c.collectFields(fv, depth+1, out); err != nil {
					return nil, err
				}
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		tagged := name != ""
		if !tagged {
			name = sf.Name
		}
		out = append(out, structField{name: name, opts: opts, depth: depth, tagged: tagged, value: fv})
	}
	return out, nil
}

// dominantFields resolves name conflicts between flattened fields, keeping
// the survivors in their original order.
func dominantFields(all []structField) []structField {
	byName := make(map[string][]int, len(all))
	for i, f := range all {
		byName[f.name] = append(byName[f.name], i)
	}

	keep := make([]bool, len(all))
	for _, idx := range byName {
		if len(idx) == 1 {
			keep[idx[0]] = true
			continue
		}
		minDepth := all[idx[0]].depth
		for _, i := range idx[1:] {
			minDepth = min(minDepth, all[i].depth)
		}
		var shallow, tagged []int
		for _, i := range idx {
			if all[i].depth != minDepth {
				continue
			}
			shallow = append(shallow, i)
			if all[i].tagged {
				tagged = append(tagged, i)
			}
		}
		switch {
		case len(shallow) == 1:
			keep[shallow[0]] = true
		case len(tagged) == 1:
			keep[tagged[0]] = true
		}
	}

	out := make([]structField, 0, len(all))
	for i, f := range all {
		if keep[i] {
			out = append(out, f)
		}
	}
	return out
}

// stringOption applies the ",string" tag option: scalar fields are sent as a JSON
// string holding their JSON text. Other kinds are left alone.
func stringOption(rv reflect.Value, v Value) (Value, error) {
	k := rv.Kind()
	if k == reflect.Pointer {
		k = rv.Type().Elem().Kind()
	}
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
	default:
		return v, nil
	}

	switch v.kind {
	case KindNumber:
		return String(v.s), nil
	case KindBool:
		if v.b {
			return String("true"), nil
		}
		return String("false"), nil
	case KindString:
		text, err := appendString(nil, v.s)
		if err != nil {
			return Value{}, err
		}
		return String(string(text)), nil
	}
	return v, nil
}

func hasOption(opts, name string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == name {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
