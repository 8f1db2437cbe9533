package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/pkg/payment/intent"
	"github.com/vitaboost/storefront/pkg/util"
)

// inProcessIntentClient serves checkout from the local payment service
// with the same conversion and error contract as the HTTP intent client.
type inProcessIntentClient struct {
	payments PaymentService
}

func NewInProcessIntentClient(payments PaymentService) intent.Creator {
	return &inProcessIntentClient{payments: payments}
}

func (c *inProcessIntentClient) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (*intent.Intent, error) {
	created, err := c.payments.CreateIntent(ctx, util.ToMinorUnits(amount), currency)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", intent.ErrEndpointUnavailable, err)
	}
	return &intent.Intent{ClientSecret: created.ClientSecret, ID: created.ID}, nil
}
