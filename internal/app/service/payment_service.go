package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/payment/stripe"
)

var (
	ErrPaymentNotConfigured = errors.New("Stripe secret key is not configured")
	ErrAmountRequired       = errors.New("Amount is required")
	ErrInvalidAmount        = errors.New("Amount must be a positive number")
	ErrInvalidCurrency      = errors.New("Currency must be one of: " + strings.Join(SupportedCurrencies, ", "))
)

// SupportedCurrencies are the currencies the payment endpoint accepts.
var SupportedCurrencies = []string{"usd", "eur", "gbp", "cad", "aud"}

const defaultCurrency = "usd"

// leading decimal number, the part of a string a lenient float parse reads
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// PaymentProcessor is the Stripe client surface the service uses.
type PaymentProcessor interface {
	CreatePaymentIntent(ctx context.Context, req stripe.CreateIntentRequest) (*stripe.Intent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.Intent, error)
}

type PaymentService interface {
	// CreatePaymentIntent validates a raw request amount (minor units, JSON
	// number or numeric string) and currency, then creates an intent.
	CreatePaymentIntent(ctx context.Context, rawAmount json.RawMessage, currency string) (*stripe.Intent, error)
	// CreateIntent creates an intent for an already validated amount.
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*stripe.Intent, error)
	// VerifyPayment fetches an intent to confirm its status.
	VerifyPayment(ctx context.Context, paymentIntentID string) (*stripe.Intent, error)
	Configured() bool
	PublishableKey() string
}

type paymentService struct {
	processor      PaymentProcessor
	publishableKey string
	now            func() time.Time
}

// NewPaymentService accepts a nil processor; every call then fails with
// ErrPaymentNotConfigured.
func NewPaymentService(processor PaymentProcessor, publishableKey string) PaymentService {
	return &paymentService{processor: processor, publishableKey: publishableKey, now: time.Now}
}

func (s *paymentService) Configured() bool {
	return s.processor != nil
}

func (s *paymentService) PublishableKey() string {
	return s.publishableKey
}

func (s *paymentService) CreatePaymentIntent(ctx context.Context, rawAmount json.RawMessage, currency string) (*stripe.Intent, error) {
	if !s.Configured() {
		logger.Error("Stripe secret key is not set", ErrPaymentNotConfigured)
		return nil, ErrPaymentNotConfigured
	}

	amount, err := ParseAmount(rawAmount)
	if err != nil {
		return nil, err
	}
	normalized, err := NormalizeCurrency(currency)
	if err != nil {
		return nil, err
	}

	return s.CreateIntent(ctx, amount.Round(0).IntPart(), normalized)
}

func (s *paymentService) CreateIntent(ctx context.Context, amountMinor int64, currency string) (*stripe.Intent, error) {
	if !s.Configured() {
		return nil, ErrPaymentNotConfigured
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, stripe.CreateIntentRequest{
		Amount:   amountMinor,
		Currency: currency,
		Metadata: map[string]string{
			"integration_check": "accept_a_payment",
			"created_at":        s.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		logger.Error("Error creating payment intent", err, map[string]interface{}{
			"amount":   amountMinor,
			"currency": currency,
		})
		return nil, err
	}
	return intent, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, paymentIntentID string) (*stripe.Intent, error) {
	if !s.Configured() {
		return nil, ErrPaymentNotConfigured
	}
	return s.processor.RetrievePaymentIntent(ctx, paymentIntentID)
}

// ParseAmount reads the amount field of a payment request. Absent or null is
// ErrAmountRequired; strings are read up to the first non-numeric character;
// anything that is not a positive finite number is ErrInvalidAmount.
func ParseAmount(raw json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return decimal.Zero, ErrAmountRequired
	}

	var amount decimal.Decimal
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		prefix := leadingNumber.FindString(strings.TrimSpace(s))
		if prefix == "" {
			return decimal.Zero, ErrInvalidAmount
		}
		// normalise through float parsing so "1e2" and "5." are accepted
		f, err := strconv.ParseFloat(prefix, 64)
		if err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		amount = decimal.NewFromFloat(f)
	default:
		d, err := decimal.NewFromString(string(trimmed))
		if err != nil {
			return decimal.Zero, ErrInvalidAmount
		}
		amount = d
	}

	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// NormalizeCurrency lower-cases currency, defaults it to usd and checks it
// against SupportedCurrencies.
func NormalizeCurrency(currency string) (string, error) {
	c := strings.ToLower(strings.TrimSpace(currency))
	if c == "" {
		return defaultCurrency, nil
	}
	for _, supported := range SupportedCurrencies {
		if c == supported {
			return c, nil
		}
	}
	return "", ErrInvalidCurrency
}
