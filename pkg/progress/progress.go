// Package progress reports upload progress at a throttled rate.
package progress

import (
	"io"
	"sync"
	"time"
)

// Update is a snapshot of an upload. Total is -1 when the size is unknown.
type Update struct {
	Sent  int64
	Total int64
	Done  bool
}

// Notifier accumulates byte counts and hands the running total to a callback
// at most once per interval, plus a final update from Flush. This keeps
// status messages about a large upload from flooding the chat.
type Notifier struct {
	mu       sync.Mutex
	sent     int64
	total    int64
	onUpdate func(Update)
	ticker   *time.Ticker
	done     chan struct{}
	once     sync.Once
	dirty    bool

	emitMu   sync.Mutex // serializes onUpdate calls
	finished bool       // guarded by emitMu
}

// NewNotifier creates a notifier that calls onUpdate with the running total
// every interval while bytes keep arriving.
func NewNotifier(interval time.Duration, total int64, onUpdate func(Update)) *Notifier {
	if interval <= 0 {
		interval = 1500 * time.Millisecond
	}
	n := &Notifier{
		total:    total,
		onUpdate: onUpdate,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
	}

	go n.loop()
	return n
}

func (n *Notifier) loop() {
	for {
		select {
		case <-n.ticker.C:
			n.mu.Lock()
			if n.dirty {
				u := Update{Sent: n.sent, Total: n.total}
				n.dirty = false
				n.mu.Unlock()
				n.emit(u)
			} else {
				n.mu.Unlock()
			}
		case <-n.done:
			return
		}
	}
}

// Add records delta more bytes sent.
func (n *Notifier) Add(delta int) {
	if delta <= 0 {
		return
	}
	n.mu.Lock()
	n.sent += int64(delta)
	n.dirty = true
	n.mu.Unlock()
}

// Flush stops the ticker and sends the final update. Later calls do nothing.
func (n *Notifier) Flush() {
	n.once.Do(func() {
		n.ticker.Stop()
		close(n.done)

		n.mu.Lock()
		u := Update{Sent: n.sent, Total: n.total, Done: true}
		n.dirty = false
		n.mu.Unlock()
		n.emit(u)
	})
}

// emit delivers u unless the final update has already gone out.
func (n *Notifier) emit(u Update) {
	n.emitMu.Lock()
	defer n.emitMu.Unlock()
	if n.finished {
		return
	}
	n.finished = u.Done
	n.onUpdate(u)
}

// Sent returns the number of bytes recorded so far.
func (n *Notifier) Sent() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent
}

// Reader returns r counting into n. The notifier is flushed when r is
// exhausted, fails, or is closed. Closing also closes r if it is an
// io.Closer.
func (n *Notifier) Reader(r io.Reader) io.ReadCloser {
	return &reader{r: r, n: n}
}

type reader struct {
	r io.Reader
	n *Notifier
}

func (cr *reader) Read(p []byte) (int, error) {
	k, err := cr.r.Read(p)
	cr.n.Add(k)
	if err != nil {
		cr.n.Flush()
	}
	return k, err
}

func (cr *reader) Close() error {
	cr.n.Flush()
	if c, ok := cr.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
