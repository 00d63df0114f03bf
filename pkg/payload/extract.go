package payload

import (
	"github.com/sipeed/picobot/pkg/inputfile"
)

// AttachPrefix starts the string that replaces an extracted file.
const AttachPrefix = "attach://"

// ExtractedFile is a file taken out of a payload by ExtractFiles.
type ExtractedFile struct {
	// ID names the multipart part carrying the file and appears in the
	// payload as AttachPrefix + ID.
	ID string
	// Origin is the top-level payload field the file was found under. It is
	// used to name files that have no filename.
	Origin string
	File   *inputfile.InputFile
}

// Placeholder returns the attach:// reference that stands in for the file.
func (e ExtractedFile) Placeholder() string {
	return AttachPrefix + e.ID
}

// ExtractFiles returns a copy of fields in which every file, at any depth, is
// replaced by an attach://<id> string, together with the extracted files in
// the order they were found. fields itself is not modified.
//
// A file that appears more than once is extracted once per occurrence, each
// time under a new id.
func ExtractFiles(fields Fields) (Fields, []ExtractedFile) {
	return extractFiles(fields, newID)
}

func extractFiles(fields Fields, newID func() string) (Fields, []ExtractedFile) {
	var files []ExtractedFile
	out := make(Fields, len(fields))
	for i, field := range fields {
		out[i] = Field{Key: field.Key, Value: extractValue(field.Value, field.Key, newID, &files)}
	}
	return out, files
}

// extractValue replaces the files in v. origin is carried down unchanged from
// the top-level key.
func extractValue(v Value, origin string, newID func() string, files *[]ExtractedFile) Value {
	switch v.kind {
	case KindFile:
		file := ExtractedFile{ID: newID(), Origin: origin, File: v.file}
		*files = append(*files, file)
		return String(file.Placeholder())
	case KindArray:
		if !RequiresFormDataUpload(v) {
			return v
		}
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = extractValue(item, origin, newID, files)
		}
		return Value{kind: KindArray, items: items}
	case KindObject:
		if !RequiresFormDataUpload(v) {
			return v
		}
		fields := make(Fields, len(v.fields))
		for i, field := range v.fields {
			fields[i] = Field{Key: field.Key, Value: extractValue(field.Value, origin, newID, files)}
		}
		return Value{kind: KindObject, fields: fields}
	case KindNull, KindBool, KindNumber, KindString:
		return v
	default:
		return v
	}
}
