package payload

import (
	"math"
	"slices"
	"strconv"

	"github.com/bytedance/sonic"

	"github.com/sipeed/picobot/pkg/inputfile"
)

// Kind is the type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindFile
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFile:
		return "file"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one node of a payload. The zero Value is null. Values are
// immutable: constructors and accessors copy slices, so a Value can be shared
// between payloads and goroutines.
type Value struct {
	kind   Kind
	b      bool
	s      string // string content, or the JSON text of a number
	file   *inputfile.InputFile
	items  []Value
	fields Fields
}

// Field is a key/value pair of an object.
type Field struct {
	Key   string
	Value Value
}

// KV is shorthand for Field{Key: key, Value: v}.
func KV(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// Fields is an ordered object: the top level of every payload. Order is
// preserved in JSON output and in the multipart parts.
type Fields []Field

func Null() Value { return Value{} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Int(i int64) Value { return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)} }

func Uint(u uint64) Value { return Value{kind: KindNumber, s: strconv.FormatUint(u, 10)} }

// Float returns a number value. NaN and infinities have no JSON form and
// become null.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null()
	}
	text, err := sonic.ConfigDefault.Marshal(f)
	if err != nil {
		return Value{kind: KindNumber, s: strconv.FormatFloat(f, 'g', -1, 64)}
	}
	return Value{kind: KindNumber, s: string(text)}
}

// Number returns a number value from its JSON text. The text is not
// validated; use FromJSON for untrusted input.
func Number(text string) Value { return Value{kind: KindNumber, s: text} }

// File wraps a file to upload. A nil file is null.
func File(f *inputfile.InputFile) Value {
	if f == nil {
		return Null()
	}
	return Value{kind: KindFile, file: f}
}

func Array(items ...Value) Value {
	return Value{kind: KindArray, items: slices.Clone(items)}
}

func Object(fields ...Field) Value {
	return Value{kind: KindObject, fields: slices.Clone(fields)}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) BoolValue() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) StringValue() (string, bool) { return v.s, v.kind == KindString }

// NumberText returns the JSON text of a number value.
func (v Value) NumberText() (string, bool) { return v.s, v.kind == KindNumber }

func (v Value) File() (*inputfile.InputFile, bool) { return v.file, v.kind == KindFile }

// Items returns a copy of the elements of an array value.
func (v Value) Items() []Value { return slices.Clone(v.items) }

// Fields returns a copy of the fields of an object value.
func (v Value) Fields() Fields { return slices.Clone(v.fields) }

// Get returns the value of the first field named key.
func (f Fields) Get(key string) (Value, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return Value{}, false
}

// With returns a copy of f with key set to v. An existing field keeps its
// position; a new one is appended.
func (f Fields) With(key string, v Value) Fields {
	out := slices.Clone(f)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = v
			return out
		}
	}
	return append(out, KV(key, v))
}

// Object wraps f as a nested object value.
func (f Fields) Object() Value { return Object(f...) }
