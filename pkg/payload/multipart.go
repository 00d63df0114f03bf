package payload

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/sipeed/picobot/pkg/inputfile"
	"github.com/sipeed/picobot/pkg/media"
)

type encodeConfig struct {
	chunkSize int
	ctx       context.Context
}

// EncodeOption configures EncodeMultipart and the request constructors.
type EncodeOption func(*encodeConfig)

// WithChunkSize sets how many bytes are read from a file on disk per chunk.
func WithChunkSize(n int) EncodeOption {
	return func(c *encodeConfig) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// WithContext binds file reads to ctx. Once ctx is done the stream ends with
// ctx.Err(), and downloads of remote files are aborted.
func WithContext(ctx context.Context) EncodeOption {
	return func(c *encodeConfig) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

func newEncodeConfig(opts []EncodeOption) encodeConfig {
	cfg := encodeConfig{chunkSize: inputfile.DefaultChunkSize, ctx: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// EncodeMultipart returns the multipart/form-data body for a payload whose
// files were taken out by ExtractFiles. Every non-null field becomes a text
// part, followed by one part per file in the order given. Nothing is produced
// or read until the sequence is iterated, and file content is read one chunk
// per step. An error ends the sequence; the chunks already produced are not
// taken back.
func EncodeMultipart(fields Fields, files []ExtractedFile, boundary string, opts ...EncodeOption) iter.Seq2[[]byte, error] {
	cfg := newEncodeConfig(opts)

	return func(yield func([]byte, error) bool) {
		if err := ValidateBoundary(boundary); err != nil {
			yield(nil, err)
			return
		}

		separator := "\r\n--" + boundary + "\r\n"
		if !yield([]byte("--"+boundary+"\r\n"), nil) {
			return
		}

		first := true
		for _, field := range fields {
			if field.Value.kind == KindNull {
				continue
			}
			text, err := fieldText(field.Value)
			if err != nil {
				yield(nil, fmt.Errorf("payload: field %q: %w", field.Key, err))
				return
			}
			if !first && !yield([]byte(separator), nil) {
				return
			}
			if !yield(valuePart(field.Key, text), nil) {
				return
			}
			first = false
		}

		for _, file := range files {
			filename, err := resolveFilename(file)
			if err != nil {
				yield(nil, err)
				return
			}
			if !first && !yield([]byte(separator), nil) {
				return
			}
			if !yield(fileHeader(file.ID, filename), nil) {
				return
			}
			for chunk, err := range file.File.ContentContext(cfg.ctx, cfg.chunkSize) {
				if err != nil {
					yield(nil, fmt.Errorf("payload: file for field %q: %w", file.Origin, err))
					return
				}
				if len(chunk) == 0 {
					continue
				}
				if !yield(chunk, nil) {
					return
				}
			}
			first = false
		}

		yield([]byte("\r\n--"+boundary+"--"), nil)
	}
}

// fieldText is the text of a field part: scalars as their string form,
// arrays and objects as JSON.
func fieldText(v Value) (string, error) {
	switch v.kind {
	case KindString, KindNumber:
		return v.s, nil
	case KindBool:
		if v.b {
			return "true", nil
		}
		return "false", nil
	case KindArray, KindObject:
		data, err := appendJSON(nil, v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case KindFile:
		return "", ErrUnextractedFile
	case KindNull:
		return "", nil
	default:
		return "", fmt.Errorf("payload: unknown value kind %v", v.kind)
	}
}

func valuePart(key, text string) []byte {
	return []byte(`content-disposition:form-data;name="` + key + "\"\r\n\r\n" + text)
}

func fileHeader(id, filename string) []byte {
	return []byte(`content-disposition:form-data;name="` + id + `";filename=` + filename + "\r\n\r\n")
}

// resolveFilename returns the declared filename of the file, or one made up
// from the field it was found under. Names with CR or LF are rejected.
func resolveFilename(file ExtractedFile) (string, error) {
	if file.File == nil {
		return "", errors.New("payload: extracted file " + file.ID + " has no content")
	}
	name, ok := file.File.Filename()
	if !ok {
		name = media.DefaultFilename(file.Origin)
	}
	if strings.ContainsAny(name, "\r\n") {
		return "", &FilenameError{Field: file.Origin, Filename: name}
	}
	return name, nil
}
