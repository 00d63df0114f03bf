package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sipeed/picobot/pkg/logger"
)

// RestyTransport sends requests with go-resty. Bodies are passed to resty as
// a plain io.Reader so they are streamed rather than buffered.
type RestyTransport struct {
	client *resty.Client
}

func NewResty(timeout time.Duration) *RestyTransport {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &RestyTransport{client: client}
}

func (t *RestyTransport) Name() string { return Resty }

func (t *RestyTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	r := t.client.R().
		SetContext(ctx).
		SetHeaders(req.Header).
		SetBody(req.Body)

	resp, err := r.Post(req.URL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	logger.DebugCF("transport", "Request completed", map[string]interface{}{
		"client":      Resty,
		"status":      resp.StatusCode(),
		"duration_ms": resp.Time().Milliseconds(),
	})
	return &Response{StatusCode: resp.StatusCode(), Body: resp.Body()}, nil
}
