package woocommerce

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vitaboost/storefront/pkg/logger"
	"resty.dev/v3"
)

// Source tells which read strategy produced a response.
type Source int

const (
	// SourcePublic: no credentials configured, the only attempt was anonymous.
	SourcePublic Source = iota
	// SourceAuthenticated: the credentialed request succeeded.
	SourceAuthenticated
	// SourcePublicFallback: the credentialed request got 401 and the
	// anonymous retry succeeded.
	SourcePublicFallback
)

func (s Source) String() string {
	switch s {
	case SourceAuthenticated:
		return "authenticated"
	case SourcePublicFallback:
		return "public_fallback"
	default:
		return "public"
	}
}

// Client is a WooCommerce REST v3 client.
type Client struct {
	config Config
	http   *resty.Client
}

type readAttempt struct {
	source  Source
	baseURL string
	auth    bool
}

// NewClient creates a new WooCommerce client with the given configuration
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("woocommerce: base URL is required")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.PublicURL = strings.TrimRight(config.PublicURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(config.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{config: config, http: httpClient}, nil
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.http.Close()
}

// HasCredentials reports whether authenticated calls are possible.
func (c *Client) HasCredentials() bool {
	return c.config.HasCredentials()
}

// GetProducts lists products. See readAttempts for the authentication policy.
func (c *Client) GetProducts(ctx context.Context, filter ProductFilter) ([]Product, Source, error) {
	var products []Product
	source, err := c.read(ctx, "/products", filter.query(), &products)
	if err != nil {
		logger.Error("Error fetching WooCommerce products", err, map[string]interface{}{
			"source": source.String(),
		})
		return nil, source, err
	}
	return products, source, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*Product, Source, error) {
	var product Product
	source, err := c.read(ctx, fmt.Sprintf("/products/%d", id), nil, &product)
	if err != nil {
		logger.Error("Error fetching WooCommerce product", err, map[string]interface{}{
			"product_id": id,
			"source":     source.String(),
		})
		return nil, source, err
	}
	return &product, source, nil
}

// GetProductBySlug scans the first 100 published products for slug. A
// missing slug is not an error: it returns nil, nil.
func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*Product, Source, error) {
	products, source, err := c.GetProducts(ctx, ProductFilter{PerPage: 100, Status: "publish"})
	if err != nil {
		return nil, source, err
	}
	for i := range products {
		if products[i].Slug == slug {
			return &products[i], source, nil
		}
	}
	return nil, source, nil
}

// CreateOrder posts an order. It never falls back to an anonymous request and
// refuses to send anything without credentials.
func (c *Client) CreateOrder(ctx context.Context, order OrderRequest) (*Order, error) {
	if !c.config.HasCredentials() {
		return nil, ErrNotConfigured
	}

	resp, err := c.newRequest(ctx, true).
		SetBody(order).
		Post(c.config.BaseURL + apiPath + "/orders")
	if err != nil {
		return nil, &APIError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	body := resp.String()
	if !resp.IsSuccess() {
		apiErr := &APIError{StatusCode: resp.StatusCode(), Body: body}
		var errResp ErrorResponse
		if jsonErr := json.Unmarshal([]byte(body), &errResp); jsonErr == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
			if apiErr.Message == "" {
				apiErr.Message = errResp.Code
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("WooCommerce API error: %d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode))
		}
		logger.Error("Error creating WooCommerce order", apiErr, map[string]interface{}{
			"status_code": apiErr.StatusCode,
			"code":        apiErr.Code,
		})
		return nil, apiErr
	}

	var created Order
	if err := json.Unmarshal([]byte(body), &created); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode(), Body: body, Message: "WooCommerce API returned an unreadable order", Err: err}
	}
	return &created, nil
}

// readAttempts is the explicit fallback chain for read-only resources:
// authenticated first when credentials exist, then one anonymous attempt.
func (c *Client) readAttempts() []readAttempt {
	if !c.config.HasCredentials() {
		return []readAttempt{{source: SourcePublic, baseURL: c.config.BaseURL}}
	}
	return []readAttempt{
		{source: SourceAuthenticated, baseURL: c.config.BaseURL, auth: true},
		{source: SourcePublicFallback, baseURL: c.config.publicURL()},
	}
}

func (c *Client) read(ctx context.Context, path string, query map[string]string, out interface{}) (Source, error) {
	attempts := c.readAttempts()
	for i, attempt := range attempts {
		err := c.get(ctx, attempt, path, query, out)
		if err == nil {
			return attempt.source, nil
		}

		var apiErr *APIError
		last := i == len(attempts)-1
		if last || !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
			return attempt.source, err
		}
		logger.Warn("Authenticated request failed, trying public endpoint", map[string]interface{}{
			"path": path,
		})
	}
	// unreachable: readAttempts never returns an empty chain
	return SourcePublic, errors.New("woocommerce: no read strategy")
}

func (c *Client) get(ctx context.Context, attempt readAttempt, path string, query map[string]string, out interface{}) error {
	req := c.newRequest(ctx, attempt.auth)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(attempt.baseURL + apiPath + path)
	if err != nil {
		return &APIError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	body := resp.String()
	if !resp.IsSuccess() {
		return &APIError{StatusCode: resp.StatusCode(), Body: body}
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return &APIError{StatusCode: resp.StatusCode(), Message: "WooCommerce API returned an unreadable response", Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, auth bool) *resty.Request {
	req := c.http.R().SetContext(ctx)
	if auth {
		req.SetHeader("Authorization", c.authHeader())
	}
	return req
}

func (c *Client) authHeader() string {
	credentials := c.config.ConsumerKey + ":" + c.config.ConsumerSecret
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(credentials))
}

func (f ProductFilter) query() map[string]string {
	q := map[string]string{}
	if f.PerPage > 0 {
		q["per_page"] = strconv.Itoa(f.PerPage)
	}
	if f.Page > 0 {
		q["page"] = strconv.Itoa(f.Page)
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Featured != nil {
		q["featured"] = strconv.FormatBool(*f.Featured)
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.Search != "" {
		q["search"] = f.Search
	}
	return q
}
