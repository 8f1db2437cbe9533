package stripe

import "time"

// Config represents the configuration for the Stripe client
type Config struct {
	// SecretKey authenticates server-side API calls (sk_...)
	SecretKey string

	// PublishableKey is handed to the browser for Stripe.js (pk_...)
	PublishableKey string

	// APIURL overrides the Stripe API origin. Empty means api.stripe.com.
	APIURL string

	// Timeout bounds each API call
	Timeout time.Duration
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrNotConfigured
	}
	return nil
}
