package payload

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrInvalidBoundary is returned for a multipart boundary that RFC 2046
	// does not allow.
	ErrInvalidBoundary = errors.New("payload: invalid multipart boundary")

	// ErrCyclicValue is returned by From when a Go value refers to itself.
	ErrCyclicValue = errors.New("payload: cyclic value")

	// ErrUnextractedFile is returned when a file is found where only JSON
	// data may appear, i.e. a payload was serialized without ExtractFiles.
	ErrUnextractedFile = errors.New("payload: file must be extracted before it can be encoded")

	// ErrNotObject is returned when a payload is built from a value that is
	// not an object.
	ErrNotObject = errors.New("payload: value is not an object")
)

// FilenameError reports a filename that would break the multipart framing.
type FilenameError struct {
	// Field is the payload field the file was found under.
	Field string
	// Filename is the offending name, unmodified.
	Filename string
}

func (e *FilenameError) Error() string {
	return fmt.Sprintf("payload: filename for field %q contains a carriage return or line feed: %q", e.Field, e.Filename)
}

// UnsupportedTypeError is returned by From for Go types with no payload
// representation.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return "payload: unsupported type " + e.Type.String()
}
