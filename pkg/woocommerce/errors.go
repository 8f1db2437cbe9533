package woocommerce

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured is returned by write operations when no consumer
	// key/secret pair is configured. No request is sent.
	ErrNotConfigured = errors.New("WooCommerce API credentials are required to create orders")

	// ErrNetwork marks transport failures (DNS, refused connection, timeout).
	ErrNetwork = errors.New("network error")
)

// APIError is the single error type surfaced by the client for upstream and
// transport failures.
type APIError struct {
	StatusCode int
	Status     string
	Code       string
	Message    string
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode == 0 && e.Err != nil {
		return fmt.Sprintf("WooCommerce API error: %v", e.Err)
	}
	msg := fmt.Sprintf("WooCommerce API error: %d %s", e.StatusCode, statusText(e))
	if e.Body != "" {
		msg += ". " + e.Body
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports a 401 response.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func statusText(e *APIError) string {
	if e.Status != "" {
		return e.Status
	}
	return http.StatusText(e.StatusCode)
}
