package payload

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const boundaryPrefix = "----------"

// newID returns a random 32 character lowercase hex token.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewBoundary returns a fresh multipart boundary. The random part makes it
// practically impossible for the boundary to occur inside any part.
func NewBoundary() string {
	return boundaryPrefix + newID()
}

// ValidateBoundary checks a boundary against RFC 2046: 1 to 70 characters
// from the bchars set, not ending in a space.
func ValidateBoundary(boundary string) error {
	if len(boundary) < 1 || len(boundary) > 70 {
		return fmt.Errorf("%w: length %d", ErrInvalidBoundary, len(boundary))
	}
	for _, b := range boundary {
		if 'A' <= b && b <= 'Z' || 'a' <= b && b <= 'z' || '0' <= b && b <= '9' {
			continue
		}
		switch b {
		case '\'', '(', ')', '+', '_', ',', '-', '.', '/', ':', '=', '?', ' ':
			continue
		}
		return fmt.Errorf("%w: character %q", ErrInvalidBoundary, b)
	}
	if strings.HasSuffix(boundary, " ") {
		return fmt.Errorf("%w: trailing space", ErrInvalidBoundary)
	}
	return nil
}
