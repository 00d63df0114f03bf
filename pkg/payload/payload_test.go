package payload

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"testing"

	"github.com/sipeed/picobot/pkg/inputfile"
)

// sequentialIDs returns an id generator producing id0, id1, ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		id := fmt.Sprintf("id%d", n)
		n++
		return id
	}
}

// drain concatenates a chunk sequence, stopping at the first error.
func drain(t *testing.T, seq iter.Seq2[[]byte, error]) ([]byte, error) {
	t.Helper()
	var buf bytes.Buffer
	for chunk, err := range seq {
		if err != nil {
			return buf.Bytes(), err
		}
		buf.Write(chunk)
	}
	return buf.Bytes(), nil
}

type closeTracker struct {
	io.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

func bytesFile(s, name string) *inputfile.InputFile {
	return inputfile.FromBytes([]byte(s), name)
}
