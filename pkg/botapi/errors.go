package botapi

import (
	"errors"
	"fmt"
)

// ErrNoToken is returned by New when the configuration has no bot token.
var ErrNoToken = errors.New("botapi: bot token is required")

// APIError is a failure reported by the Bot API in its response envelope.
type APIError struct {
	Method      string
	ErrorCode   int
	Description string
	// RetryAfter is set for flood control errors, in seconds.
	RetryAfter int
	// MigrateToChatID is set when a group was upgraded to a supergroup.
	MigrateToChatID int64
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %s failed: %d %s", e.Method, e.ErrorCode, e.Description)
}

// IsAPIError reports whether err is an APIError with the given code. A code
// of 0 matches any APIError.
func IsAPIError(err error, code int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return code == 0 || apiErr.ErrorCode == code
}
