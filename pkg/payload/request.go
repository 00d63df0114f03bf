package payload

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"net/http"
	"sync"
)

// Request is an HTTP request ready for a transport. Exactly one of JSON and
// Stream is set.
type Request struct {
	Method string
	// Header uses lower-case names.
	Header map[string]string
	// JSON is the body of a JSON request.
	JSON []byte
	// Stream is the body of a multipart request. It can be consumed once.
	Stream iter.Seq2[[]byte, error]
	// Boundary is the multipart boundary, empty for JSON requests.
	Boundary string
	// Files lists the files carried by a multipart request.
	Files []ExtractedFile
}

// IsMultipart reports whether the body is a multipart stream.
func (r *Request) IsMultipart() bool {
	return r.Stream != nil
}

// ContentType returns the content-type header value.
func (r *Request) ContentType() string {
	return r.Header["content-type"]
}

// Reader returns the body as an io.ReadCloser. For multipart requests every
// Read pulls chunks from Stream as needed; Close stops the stream and
// releases any open file. Call Reader at most once for multipart requests.
func (r *Request) Reader() io.ReadCloser {
	if r.Stream == nil {
		return io.NopCloser(bytes.NewReader(r.JSON))
	}
	return newStreamReader(r.Stream)
}

// NewRequest builds the request for a payload: JSON when it holds no files,
// multipart/form-data otherwise.
func NewRequest(fields Fields, opts ...EncodeOption) (*Request, error) {
	if fields.RequiresFormDataUpload() {
		return CreateFormDataPayload(fields, opts...)
	}
	return CreateJSONPayload(fields)
}

// CreateJSONPayload builds a JSON request. Null fields are left out of the
// body. It fails with ErrUnextractedFile if the payload holds a file.
func CreateJSONPayload(fields Fields) (*Request, error) {
	body, err := fields.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return &Request{
		Method: http.MethodPost,
		Header: map[string]string{
			"content-type": "application/json",
			"connection":   "keep-alive",
		},
		JSON: body,
	}, nil
}

// CreateFormDataPayload builds a multipart/form-data request with a fresh
// boundary. Files are extracted from a copy of fields and every filename is
// checked before the request is returned, so a bad filename fails here rather
// than halfway through the upload.
func CreateFormDataPayload(fields Fields, opts ...EncodeOption) (*Request, error) {
	boundary := NewBoundary()
	clean, files := ExtractFiles(fields)
	for _, file := range files {
		if _, err := resolveFilename(file); err != nil {
			return nil, err
		}
	}

	return &Request{
		Method: http.MethodPost,
		Header: map[string]string{
			"content-type": "multipart/form-data; boundary=" + boundary,
			"connection":   "keep-alive",
		},
		Stream:   EncodeMultipart(clean, files, boundary, opts...),
		Boundary: boundary,
		Files:    files,
	}, nil
}

var errReaderClosed = errors.New("payload: read from closed body")

// streamReader adapts a chunk sequence to io.Reader. It holds at most one
// chunk. HTTP clients may call Read and Close from different goroutines, so
// Close never waits for a Read that is blocked on the source: it marks the
// reader closed and the pull iterator is stopped by whichever side holds mu
// next.
type streamReader struct {
	mu      sync.Mutex // guards the pull iterator, buf and err
	next    func() ([]byte, error, bool)
	stop    func()
	buf     []byte
	err     error
	stopped bool

	closed    chan struct{}
	closeOnce sync.Once
}

func newStreamReader(seq iter.Seq2[[]byte, error]) *streamReader {
	next, stop := iter.Pull2(seq)
	return &streamReader{next: next, stop: stop, closed: make(chan struct{})}
}

func (r *streamReader) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}

func (r *streamReader) Read(p []byte) (int, error) {
	defer r.releaseIfClosed()
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.buf) == 0 {
		if r.isClosed() {
			r.shutdown()
		}
		if r.err != nil {
			return 0, r.err
		}
		chunk, err, ok := r.next()
		switch {
		case !ok:
			r.err = io.EOF
			r.shutdown()
		case err != nil:
			r.err = err
			r.shutdown()
		default:
			r.buf = chunk
		}
	}

	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *streamReader) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	r.releaseIfClosed()
	return nil
}

// releaseIfClosed stops the iterator of a closed reader unless a Read holds
// mu, in which case that Read does it on its way out.
func (r *streamReader) releaseIfClosed() {
	if !r.isClosed() || !r.mu.TryLock() {
		return
	}
	defer r.mu.Unlock()
	r.shutdown()
}

// shutdown must be called with mu held.
func (r *streamReader) shutdown() {
	if !r.stopped {
		r.stopped = true
		r.stop()
	}
	if r.isClosed() {
		r.buf = nil
		if r.err == nil {
			r.err = errReaderClosed
		}
	}
}
