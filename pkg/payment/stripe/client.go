package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripego "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/vitaboost/storefront/pkg/logger"
)

// Client represents a Stripe PaymentIntents client
type Client struct {
	config Config
	api    *client.API
}

// NewClient creates a new Stripe client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	backendConfig := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.Timeout},
		LeveledLogger:     logger.Leveled{Component: "stripe"},
		MaxNetworkRetries: stripego.Int64(0),
	}
	if config.APIURL != "" {
		backendConfig.URL = stripego.String(config.APIURL)
	}
	backend := stripego.GetBackendWithConfig(stripego.APIBackend, backendConfig)

	api := &client.API{}
	api.Init(config.SecretKey, &stripego.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &Client{config: config, api: api}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// PublishableKey returns the browser-side key, possibly empty.
func (c *Client) PublishableKey() string {
	return c.config.PublishableKey
}

// CreatePaymentIntent creates an intent with automatic payment methods enabled
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(req.Amount),
		Currency: stripego.String(req.Currency),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify(err)
	}

	logger.Info("Payment intent created", map[string]interface{}{
		"payment_intent_id": pi.ID,
		"amount":            pi.Amount,
		"currency":          pi.Currency,
	})
	return toIntent(pi), nil
}

// RetrievePaymentIntent fetches an intent by id
func (c *Client) RetrievePaymentIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, classify(err)
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripego.PaymentIntent) *Intent {
	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
}

// classify maps stripe-go errors onto the package's sentinel kinds. A 401 is
// an authentication failure regardless of the error type Stripe reports.
func classify(err error) error {
	var stripeErr *stripego.Error
	if !errors.As(err, &stripeErr) {
		return &ProcessorError{Kind: ErrNetworkError, Err: err}
	}

	pe := &ProcessorError{Message: stripeErr.Msg, StatusCode: stripeErr.HTTPStatusCode, Err: err}
	switch {
	case stripeErr.HTTPStatusCode == http.StatusUnauthorized:
		pe.Kind = ErrAuthentication
	case stripeErr.Type == stripego.ErrorTypeInvalidRequest:
		pe.Kind = ErrInvalidRequest
	case stripeErr.Type == stripego.ErrorTypeAPI:
		pe.Kind = ErrAPI
	default:
		pe.Kind = ErrPaymentFailed
	}
	return pe
}
