package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sipeed/picobot/pkg/logger"
)

// HTTP sends requests with net/http.
type HTTP struct {
	client *http.Client
}

func NewHTTP(timeout time.Duration) *HTTP {
	return &HTTP{client: &http.Client{Timeout: timeout}}
}

func (t *HTTP) Name() string { return NetHTTP }

func (t *HTTP) Do(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL, req.Body)
	if err != nil {
		closeBody(req.Body)
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.ContentLength >= 0 {
		hreq.ContentLength = req.ContentLength
	}
	for k, v := range req.Header {
		hreq.Header.Set(k, v)
	}

	resp, err := t.client.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	logger.DebugCF("transport", "Request completed", map[string]interface{}{
		"client":      NetHTTP,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
