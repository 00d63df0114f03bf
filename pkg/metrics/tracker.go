package metrics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
)

// RequestEvent records a single Bot API call.
type RequestEvent struct {
	Timestamp  string `json:"ts"`
	Method     string `json:"method"`
	Transport  string `json:"transport"`
	Multipart  bool   `json:"multipart"`
	Files      int    `json:"files,omitempty"`
	BytesSent  int64  `json:"bytes"`
	Status     int    `json:"status,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	OK         bool   `json:"ok"`
	ErrorCode  int    `json:"error_code,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Tracker appends request events to a JSONL file. A nil Tracker discards
// events.
type Tracker struct {
	filePath string
	mu       sync.Mutex
}

// NewTracker creates a tracker that writes to dir/requests.jsonl.
func NewTracker(dir string) *Tracker {
	os.MkdirAll(dir, 0755)
	return &Tracker{
		filePath: filepath.Join(dir, "requests.jsonl"),
	}
}

// Path returns the file events are written to.
func (t *Tracker) Path() string {
	return t.filePath
}

// Record appends an event to the JSONL file.
func (t *Tracker) Record(event RequestEvent) {
	if t == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339)
	}

	data, err := sonic.Marshal(event)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	defer f.Close()

	f.Write(data)
	f.Write([]byte("\n"))
}

// Summary aggregates the events of a tracker file.
type Summary struct {
	Requests  int
	Failed    int
	Uploads   int
	BytesSent int64
	ByMethod  map[string]int
}

// Summarize reads the tracker file and totals its events. Lines that do not
// parse are skipped.
func (t *Tracker) Summarize() (Summary, error) {
	s := Summary{ByMethod: map[string]int{}}

	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.Open(t.filePath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("open metrics: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event RequestEvent
		if err := sonic.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		s.Requests++
		if !event.OK {
			s.Failed++
		}
		if event.Multipart {
			s.Uploads++
		}
		s.BytesSent += event.BytesSent
		s.ByMethod[event.Method]++
	}
	if err := scanner.Err(); err != nil {
		return s, fmt.Errorf("read metrics: %w", err)
	}
	return s, nil
}
