package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized is returned when the backend rejects the bearer
// token. Callers should re-authenticate instead of retrying.
var ErrUnauthorized = errors.New("unauthorized")

// APIError carries the status and message of a failed request.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 401 responses onto ErrUnauthorized so callers can use
// errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// IsNotFound reports whether the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether the error is a 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
