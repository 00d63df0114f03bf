package payload

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// MarshalJSON encodes v as compact JSON. Object members whose value is null
// are left out; null array elements stay in place. Files cannot be encoded.
func (v Value) MarshalJSON() ([]byte, error) {
	return appendJSON(nil, v)
}

// MarshalJSON encodes f as a compact JSON object without null members.
func (f Fields) MarshalJSON() ([]byte, error) {
	return appendObject(nil, f)
}

func appendJSON(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(dst, "null"...), nil
	case KindBool:
		if v.b {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil
	case KindNumber:
		return append(dst, v.s...), nil
	case KindString:
		return appendString(dst, v.s)
	case KindFile:
		return nil, ErrUnextractedFile
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.items {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = appendJSON(dst, item); err != nil {
				return nil, err
			}
		}
		return append(dst, ']'), nil
	case KindObject:
		return appendObject(dst, v.fields)
	default:
		return nil, fmt.Errorf("payload: unknown value kind %v", v.kind)
	}
}

func appendObject(dst []byte, fields Fields) ([]byte, error) {
	dst = append(dst, '{')
	first := true
	for _, field := range fields {
		if field.Value.kind == KindNull {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false

		var err error
		if dst, err = appendString(dst, field.Key); err != nil {
			return nil, err
		}
		dst = append(dst, ':')
		if dst, err = appendJSON(dst, field.Value); err != nil {
			return nil, err
		}
	}
	return append(dst, '}'), nil
}

func appendString(dst []byte, s string) ([]byte, error) {
	quoted, err := sonic.ConfigDefault.Marshal(s)
	if err != nil {
		return nil, err
	}
	return append(dst, quoted...), nil
}
