// Package transport sends encoded payloads over HTTP. Three clients are
// available behind one interface: net/http, go-resty and fasthttp.
package transport

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sipeed/picobot/pkg/payload"
)

// Names of the available transports.
const (
	NetHTTP  = "nethttp"
	Resty    = "resty"
	FastHTTP = "fasthttp"
)

// Request is a POST request with a streamed body.
type Request struct {
	URL    string
	Header map[string]string
	Body   io.Reader
	// ContentLength is -1 when the body length is not known in advance.
	ContentLength int64
}

// Response holds the status and the fully read body of a reply.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport performs a request and reads the whole response.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
	Name() string
}

// FromPayload wraps an encoded payload as a request to url. JSON bodies have a
// known length; multipart bodies are streamed.
func FromPayload(url string, p *payload.Request) *Request {
	length := int64(-1)
	if !p.IsMultipart() {
		length = int64(len(p.JSON))
	}
	return &Request{
		URL:           url,
		Header:        p.Header,
		Body:          p.Reader(),
		ContentLength: length,
	}
}

// New returns the transport registered under name. An empty name selects
// net/http.
func New(name string, timeout time.Duration) (Transport, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NetHTTP:
		return NewHTTP(timeout), nil
	case Resty:
		return NewResty(timeout), nil
	case FastHTTP:
		return NewFastHTTP(timeout), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}

// closeBody closes the request body when the client gave up before reading it.
func closeBody(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}
