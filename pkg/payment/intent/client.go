package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/util"
	"resty.dev/v3"
)

// ErrEndpointUnavailable covers every way the intent endpoint can fail:
// transport errors, non-2xx responses and unusable bodies. Callers proceed
// without pre-authorization.
var ErrEndpointUnavailable = errors.New("payment intent endpoint unavailable")

// Intent is the browser-facing half of a payment intent.
type Intent struct {
	ClientSecret string `json:"clientSecret"`
	ID           string `json:"paymentIntentId"`
}

// Creator creates payment intents from a major-unit amount.
type Creator interface {
	CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error)
}

type createRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client posts to a create-payment-intent endpoint over HTTP.
type Client struct {
	url  string
	http *resty.Client
}

// NewClient creates a client for the endpoint at url.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url: url,
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
	}
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// CreatePaymentIntent converts amount to minor units and requests an intent.
func (c *Client) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error) {
	payload := createRequest{Amount: util.ToMinorUnits(amount), Currency: currency}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		Post(c.url)
	if err != nil {
		logger.Warn("Payment intent endpoint unreachable", map[string]interface{}{
			"url":   c.url,
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	if !resp.IsSuccess() {
		logger.Warn("Payment intent endpoint returned an error", map[string]interface{}{
			"url":         c.url,
			"status_code": resp.StatusCode(),
		})
		return nil, fmt.Errorf("%w: status %d", ErrEndpointUnavailable, resp.StatusCode())
	}

	var intent Intent
	if err := json.Unmarshal([]byte(resp.String()), &intent); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEndpointUnavailable, err)
	}
	if intent.ClientSecret == "" {
		return nil, fmt.Errorf("%w: response has no client secret", ErrEndpointUnavailable)
	}
	return &intent, nil
}
