// Package botapi calls Telegram Bot API methods with payloads built by
// package payload.
package botapi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"

	"github.com/sipeed/picobot/pkg/config"
	"github.com/sipeed/picobot/pkg/logger"
	"github.com/sipeed/picobot/pkg/metrics"
	"github.com/sipeed/picobot/pkg/payload"
	"github.com/sipeed/picobot/pkg/progress"
	"github.com/sipeed/picobot/pkg/transport"
)

// Client sends Bot API requests for one bot.
type Client struct {
	token            string
	apiRoot          string
	transport        transport.Transport
	chunkSize        int
	tracker          *metrics.Tracker
	collector        *metrics.Collector
	progressInterval time.Duration
	onProgress       func(method string, u progress.Update)
}

// Option customizes a Client.
type Option func(*Client)

// WithTransport overrides the transport named in the configuration.
func WithTransport(t transport.Transport) Option {
	return func(c *Client) { c.transport = t }
}

// WithTracker records every call in t.
func WithTracker(t *metrics.Tracker) Option {
	return func(c *Client) { c.tracker = t }
}

// WithCollector exports every call to Prometheus through col.
func WithCollector(col *metrics.Collector) Option {
	return func(c *Client) { c.collector = col }
}

// WithProgress calls fn while file uploads are being sent.
func WithProgress(fn func(method string, u progress.Update)) Option {
	return func(c *Client) { c.onProgress = fn }
}

// New creates a client from cfg. The transport and, when MetricsDir is set,
// the metrics tracker come from the configuration unless overridden.
func New(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrNoToken
	}
	c := &Client{
		token:            cfg.Token,
		apiRoot:          cfg.APIRoot,
		chunkSize:        cfg.ChunkSize,
		progressInterval: cfg.ProgressInterval,
	}
	if c.apiRoot == "" {
		c.apiRoot = config.DefaultAPIRoot
	}
	if cfg.MetricsDir != "" {
		c.tracker = metrics.NewTracker(cfg.MetricsDir)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.transport == nil {
		t, err := transport.New(cfg.Transport, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		c.transport = t
	}

	logger.DebugCF("botapi", "Client created", map[string]interface{}{
		"bot":       cfg.MaskedToken(),
		"api_root":  c.apiRoot,
		"transport": c.transport.Name(),
	})
	return c, nil
}

func (c *Client) methodURL(method string) string {
	return c.apiRoot + "/bot" + c.token + "/" + method
}

// Call invokes method with fields and returns the raw JSON of the result.
// Payloads holding files are uploaded as multipart/form-data, all others are
// sent as JSON.
func (c *Client) Call(ctx context.Context, method string, fields payload.Fields) ([]byte, error) {
	start := time.Now()
	event := metrics.RequestEvent{Method: method, Transport: c.transport.Name()}

	result, err := c.call(ctx, method, fields, &event)

	event.DurationMS = time.Since(start).Milliseconds()
	event.OK = err == nil
	if err != nil {
		event.Error = err.Error()
		logger.WarnCF("botapi", "Call failed", map[string]interface{}{
			"method": method,
			"error":  err.Error(),
		})
	} else {
		logger.DebugCF("botapi", "Call succeeded", map[string]interface{}{
			"method":      method,
			"multipart":   event.Multipart,
			"bytes":       event.BytesSent,
			"duration_ms": event.DurationMS,
		})
	}
	c.tracker.Record(event)
	c.collector.Observe(event)
	return result, err
}

func (c *Client) call(ctx context.Context, method string, fields payload.Fields, event *metrics.RequestEvent) ([]byte, error) {
	req, err := payload.NewRequest(fields, payload.WithChunkSize(c.chunkSize), payload.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	treq := transport.FromPayload(c.methodURL(method), req)
	event.Multipart = req.IsMultipart()
	event.Files = len(req.Files)

	if req.IsMultipart() {
		n := progress.NewNotifier(c.progressInterval, -1, func(u progress.Update) {
			if c.onProgress != nil {
				c.onProgress(method, u)
			}
		})
		defer func() {
			n.Flush()
			event.BytesSent = n.Sent()
		}()
		treq.Body = n.Reader(treq.Body)
	} else {
		event.BytesSent = int64(len(req.JSON))
	}

	resp, err := c.transport.Do(ctx, treq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	event.Status = resp.StatusCode

	result, err := parseEnvelope(method, resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		event.ErrorCode = apiErr.ErrorCode
	}
	return result, err
}

// parseEnvelope checks the {"ok": ..., "result": ...} wrapper of a reply.
func parseEnvelope(method string, resp *transport.Response) ([]byte, error) {
	if !gjson.ValidBytes(resp.Body) {
		return nil, fmt.Errorf("%s: invalid response with status %d", method, resp.StatusCode)
	}
	envelope := gjson.ParseBytes(resp.Body)
	if !envelope.Get("ok").Bool() {
		code := int(envelope.Get("error_code").Int())
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &APIError{
			Method:          method,
			ErrorCode:       code,
			Description:     envelope.Get("description").String(),
			RetryAfter:      int(envelope.Get("parameters.retry_after").Int()),
			MigrateToChatID: envelope.Get("parameters.migrate_to_chat_id").Int(),
		}
	}
	result := envelope.Get("result")
	if !result.Exists() {
		return nil, fmt.Errorf("%s: response has no result", method)
	}
	return []byte(result.Raw), nil
}

// CallAs invokes method and decodes the result into T.
func CallAs[T any](ctx context.Context, c *Client, method string, fields payload.Fields) (T, error) {
	var out T
	raw, err := c.Call(ctx, method, fields)
	if err != nil {
		return out, err
	}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%s: decode result: %w", method, err)
	}
	return out, nil
}
