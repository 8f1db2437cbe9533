package woocommerce

import "time"

const apiPath = "/wp-json/wc/v3"

// Config configures the WooCommerce REST client.
type Config struct {
	// BaseURL is the store origin, e.g. https://shop.example.com.
	BaseURL string

	// PublicURL is the origin used for the unauthenticated fallback read.
	// Defaults to BaseURL.
	PublicURL string

	ConsumerKey    string
	ConsumerSecret string

	Timeout time.Duration
}

// HasCredentials reports whether both halves of the key pair are present.
func (c Config) HasCredentials() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != ""
}

func (c Config) publicURL() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	return c.BaseURL
}
