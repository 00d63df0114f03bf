package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/sipeed/picobot/pkg/logger"
)

// FastHTTPTransport sends requests with fasthttp. Bodies of unknown length
// go out with chunked transfer encoding. Cancellation is limited to the
// context deadline; fasthttp cannot abort a request in flight.
type FastHTTPTransport struct {
	client  *fasthttp.Client
	timeout time.Duration
}

func NewFastHTTP(timeout time.Duration) *FastHTTPTransport {
	return &FastHTTPTransport{
		client: &fasthttp.Client{
			Name:               "picobot",
			MaxConnWaitTimeout: timeout,
		},
		timeout: timeout,
	}
}

func (t *FastHTTPTransport) Name() string { return FastHTTP }

func (t *FastHTTPTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		closeBody(req.Body)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	start := time.Now()

	freq := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(freq)
	fresp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(fresp)

	freq.SetRequestURI(req.URL)
	freq.Header.SetMethod(fasthttp.MethodPost)
	for k, v := range req.Header {
		if k == "content-type" {
			freq.Header.SetContentType(v)
			continue
		}
		freq.Header.Set(k, v)
	}
	// fasthttp closes the stream once it has been sent or the request is
	// released.
	freq.SetBodyStream(req.Body, int(req.ContentLength))

	var err error
	switch deadline, ok := ctx.Deadline(); {
	case ok:
		err = t.client.DoDeadline(freq, fresp, deadline)
	case t.timeout > 0:
		err = t.client.DoTimeout(freq, fresp, t.timeout)
	default:
		err = t.client.Do(freq, fresp)
	}
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body := append([]byte(nil), fresp.Body()...)
	logger.DebugCF("transport", "Request completed", map[string]interface{}{
		"client":      FastHTTP,
		"status":      fresp.StatusCode(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &Response{StatusCode: fresp.StatusCode(), Body: body}, nil
}
