package inputfile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func collect(t *testing.T, seq iter.Seq2[[]byte, error]) ([][]byte, error) {
	t.Helper()
	var chunks [][]byte
	for chunk, err := range seq {
		if err != nil {
			return chunks, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func TestFromBytesSingleChunk(t *testing.T) {
	f := FromBytes([]byte("hello"), "a.txt")

	if f.Source() != SourceBytes {
		t.Errorf("Source() = %v, want %v", f.Source(), SourceBytes)
	}
	name, ok := f.Filename()
	if !ok || name != "a.txt" {
		t.Errorf("Filename() = %q, %v", name, ok)
	}

	chunks, err := collect(t, f.Content(2))
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if len(chunks) != 1 || string(chunks[0]) != "hello" {
		t.Errorf("chunks = %q, want one chunk %q", chunks, "hello")
	}
}

func TestFilenameOptional(t *testing.T) {
	if _, ok := FromPath("/tmp/a.jpg", "").Filename(); ok {
		t.Error("expected no filename for path source without explicit name")
	}
}

func TestFromPathStreamsInChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	data := bytes.Repeat([]byte("0123456789"), 10)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	f := FromPath(path, "")
	if p, ok := f.Path(); !ok || p != path {
		t.Errorf("Path() = %q, %v", p, ok)
	}

	chunks, err := collect(t, f.Content(16))
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if len(chunks) != 7 {
		t.Errorf("got %d chunks, want 7", len(chunks))
	}
	for i, c := range chunks[:6] {
		if len(c) != 16 {
			t.Errorf("chunk %d has %d bytes, want 16", i, len(c))
		}
	}
	if got := bytes.Join(chunks, nil); !bytes.Equal(got, data) {
		t.Error("reassembled content does not match file")
	}
}

func TestFromPathMissingFile(t *testing.T) {
	f := FromPath(filepath.Join(t.TempDir(), "missing"), "")
	_, err := collect(t, f.Content(0))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestFromPathDirectory(t *testing.T) {
	_, err := collect(t, FromPath(t.TempDir(), "").Content(0))
	if err == nil || !strings.Contains(err.Error(), "is a directory") {
		t.Errorf("error = %v, want directory error", err)
	}
}

func TestFromChunksVerbatim(t *testing.T) {
	seq := func(yield func([]byte, error) bool) {
		for _, s := range []string{"a", "bc", "def"} {
			if !yield([]byte(s), nil) {
				return
			}
		}
	}
	f := FromChunks(seq, "")
	if _, ok := f.Chunks(); !ok {
		t.Fatal("Chunks() should report a stream source")
	}

	chunks, err := collect(t, f.Content(1))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 || string(chunks[2]) != "def" {
		t.Errorf("chunks = %q", chunks)
	}
}

type trackingReader struct {
	io.Reader
	closed bool
}

func (r *trackingReader) Close() error {
	r.closed = true
	return nil
}

func TestFromReaderClosesWhenAbandoned(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader(strings.Repeat("x", 3*DefaultChunkSize))}
	f := FromReader(r, "")

	for chunk, err := range f.Content(0) {
		if err != nil {
			t.Fatal(err)
		}
		if len(chunk) == 0 {
			t.Fatal("empty chunk")
		}
		break
	}
	if !r.closed {
		t.Error("reader was not closed after the consumer stopped")
	}
}

func TestFromReaderPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	r := io.MultiReader(strings.NewReader("abc"), errReader{boom})

	chunks, err := collect(t, FromReader(r, "").Content(0))
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if len(chunks) != 1 || string(chunks[0]) != "abc" {
		t.Errorf("chunks before error = %q", chunks)
	}
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }

func TestFromURL(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("remote content"))
	}))
	defer server.Close()

	f := FromURL(server.URL+"/file", "remote.txt")
	if requests != 0 {
		t.Fatal("FromURL should not fetch before the content is read")
	}
	chunks, err := collect(t, f.Content(0))
	if err != nil {
		t.Fatalf("Content() error: %v", err)
	}
	if got := string(bytes.Join(chunks, nil)); got != "remote content" {
		t.Errorf("content = %q", got)
	}

	_, err = collect(t, FromURL(server.URL+"/missing", "").Content(0))
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want 404 status error", err)
	}
}

func TestFromURLAbortsStalledDownload(t *testing.T) {
	stall := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-stall:
		}
	}))
	defer server.Close()
	defer close(stall)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := collect(t, FromURL(server.URL, "").ContentContext(ctx, 0))
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected an error from the stalled download")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("download ignored the context deadline")
	}
}

func TestContentContextCancelledBeforeRead(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := collect(t, FromBytes([]byte("data"), "").ContentContext(ctx, 0))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
