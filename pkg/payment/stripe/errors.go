package stripe

import "errors"

var (
	// ErrNotConfigured is returned when no secret key is configured
	ErrNotConfigured = errors.New("Stripe secret key is not configured")

	// ErrInvalidRequest is returned when Stripe rejects the request parameters
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrAuthentication is returned when the API key is rejected
	ErrAuthentication = errors.New("Stripe authentication failed")

	// ErrAPI is returned for errors on Stripe's side
	ErrAPI = errors.New("Stripe API error")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrPaymentFailed is returned for any other processor failure
	ErrPaymentFailed = errors.New("payment failed")
)

// ProcessorError carries one of the sentinel kinds above together with the
// processor's own message.
type ProcessorError struct {
	Kind       error
	Message    string
	StatusCode int
	Err        error
}

func (e *ProcessorError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

func (e *ProcessorError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
