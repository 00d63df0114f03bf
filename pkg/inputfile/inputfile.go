// Package inputfile represents files to be uploaded to the Bot API.
//
// An InputFile holds an optional filename and exactly one content source: an
// in-memory byte buffer, a path on disk that is opened only when the content
// is read, or a lazy sequence of byte chunks. Content is produced on demand
// through Content, so large files never have to be loaded into memory.
package inputfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
)

// DefaultChunkSize is the read size used for path and reader sources.
const DefaultChunkSize = 64 * 1024

// Source identifies where the content of an InputFile comes from.
type Source int

const (
	SourceBytes Source = iota + 1
	SourcePath
	SourceStream
)

func (s Source) String() string {
	switch s {
	case SourceBytes:
		return "bytes"
	case SourcePath:
		return "path"
	case SourceStream:
		return "stream"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// InputFile is a file to upload. It is immutable once constructed. Stream
// backed files can only be read once.
type InputFile struct {
	filename string
	source   Source
	data     []byte
	path     string
	chunks   iter.Seq2[[]byte, error]
	open     func(ctx context.Context) iter.Seq2[[]byte, error]
}

// FromBytes creates a file backed by a byte buffer. The buffer must not be
// modified afterwards.
func FromBytes(data []byte, filename string) *InputFile {
	return &InputFile{filename: filename, source: SourceBytes, data: data}
}

// FromPath creates a file backed by a path on disk. The path is not touched
// until the content is read.
func FromPath(path string, filename string) *InputFile {
	return &InputFile{filename: filename, source: SourcePath, path: path}
}

// FromChunks creates a file backed by a lazy chunk sequence. Chunks are passed
// on verbatim and in order.
func FromChunks(chunks iter.Seq2[[]byte, error], filename string) *InputFile {
	return &InputFile{filename: filename, source: SourceStream, chunks: chunks}
}

// FromReader creates a stream backed file reading from r. If r is an
// io.Closer it is closed once reading stops, whether the content was fully
// read, failed, or was abandoned by the consumer.
func FromReader(r io.Reader, filename string) *InputFile {
	return FromChunks(readerChunks(r, DefaultChunkSize), filename)
}

// Filename returns the declared filename, if any.
func (f *InputFile) Filename() (string, bool) {
	return f.filename, f.filename != ""
}

// Source reports which kind of content backs the file.
func (f *InputFile) Source() Source { return f.source }

// Bytes returns the buffer of a SourceBytes file.
func (f *InputFile) Bytes() ([]byte, bool) {
	return f.data, f.source == SourceBytes
}

// Path returns the path of a SourcePath file.
func (f *InputFile) Path() (string, bool) {
	return f.path, f.source == SourcePath
}

// Chunks returns the sequence of a SourceStream file.
func (f *InputFile) Chunks() (iter.Seq2[[]byte, error], bool) {
	if f.open != nil {
		return f.open(context.Background()), f.source == SourceStream
	}
	return f.chunks, f.source == SourceStream
}

// Content returns the file content as a sequence of chunks. A byte buffer is
// a single chunk. A path is opened when iteration starts and read chunkSize
// bytes at a time; the file is closed when iteration ends for any reason.
// Stream chunks are yielded as they arrive. A read failure is yielded as the
// final element.
func (f *InputFile) Content(chunkSize int) iter.Seq2[[]byte, error] {
	return f.ContentContext(context.Background(), chunkSize)
}

// ContentContext is Content bound to ctx. Remote sources make their request
// with ctx, and the sequence ends with ctx.Err() once ctx is done.
func (f *InputFile) ContentContext(ctx context.Context, chunkSize int) iter.Seq2[[]byte, error] {
	seq := f.content(ctx, chunkSize)
	return func(yield func([]byte, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}
		for chunk, err := range seq {
			if err == nil {
				if cerr := ctx.Err(); cerr != nil {
					yield(nil, cerr)
					return
				}
			}
			if !yield(chunk, err) || err != nil {
				return
			}
		}
	}
}

func (f *InputFile) content(ctx context.Context, chunkSize int) iter.Seq2[[]byte, error] {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	switch f.source {
	case SourceBytes:
		return func(yield func([]byte, error) bool) {
			if len(f.data) > 0 {
				yield(f.data, nil)
			}
		}
	case SourcePath:
		return pathChunks(f.path, chunkSize)
	case SourceStream:
		if f.open != nil {
			return f.open(ctx)
		}
		if f.chunks == nil {
			return func(yield func([]byte, error) bool) {}
		}
		return f.chunks
	default:
		return func(yield func([]byte, error) bool) {
			yield(nil, errors.New("inputfile: file has no content source"))
		}
	}
}

func pathChunks(path string, chunkSize int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		file, err := os.Open(path)
		if err != nil {
			yield(nil, fmt.Errorf("open %s: %w", path, err))
			return
		}
		defer file.Close()

		info, err := file.Stat()
		if err != nil {
			yield(nil, fmt.Errorf("stat %s: %w", path, err))
			return
		}
		if info.IsDir() {
			yield(nil, fmt.Errorf("read %s: is a directory", path))
			return
		}

		for chunk, err := range readChunks(file, chunkSize) {
			if err != nil {
				yield(nil, fmt.Errorf("read %s: %w", path, err))
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// readerChunks is readChunks that also closes r when it is an io.Closer.
func readerChunks(r io.Reader, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		if c, ok := r.(io.Closer); ok {
			defer c.Close()
		}
		for chunk, err := range readChunks(r, size) {
			if !yield(chunk, err) {
				return
			}
		}
	}
}

// readChunks reads r in chunks of up to size bytes. Each chunk is a fresh
// slice so consumers may keep it.
func readChunks(r io.Reader, size int) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			buf := make([]byte, size)
			n, err := r.Read(buf)
			if n > 0 {
				if !yield(buf[:n], nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
		}
	}
}
