package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports request events as Prometheus metrics.
type Collector struct {
	requests  *prometheus.CounterVec
	bytesSent *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg
// leaves them unregistered.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picobot_requests_total",
			Help: "Bot API calls by method and outcome.",
		}, []string{"method", "ok"}),
		bytesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "picobot_request_bytes_total",
			Help: "Request body bytes sent, split by encoding.",
		}, []string{"encoding"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "picobot_request_duration_seconds",
			Help:    "Bot API call latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg != nil {
		reg.MustRegister(c.requests, c.bytesSent, c.duration)
	}
	return c
}

// Observe adds one event. A nil Collector ignores it.
func (c *Collector) Observe(event RequestEvent) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(event.Method, strconv.FormatBool(event.OK)).Inc()
	encoding := "json"
	if event.Multipart {
		encoding = "multipart"
	}
	c.bytesSent.WithLabelValues(encoding).Add(float64(event.BytesSent))
	c.duration.WithLabelValues(event.Method).Observe(float64(event.DurationMS) / 1000)
}
