package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/pkg/util"
)

type CheckoutState string

const (
	CheckoutInit                    CheckoutState = "INIT"
	CheckoutAwaitingIntent          CheckoutState = "AWAITING_INTENT"
	CheckoutIntentReady             CheckoutState = "INTENT_READY"
	CheckoutIntentUnavailable       CheckoutState = "INTENT_UNAVAILABLE"
	CheckoutAwaitingPaymentConfirm  CheckoutState = "AWAITING_PAYMENT_CONFIRMATION"
	CheckoutPaymentSucceeded        CheckoutState = "PAYMENT_SUCCEEDED"
	CheckoutAwaitingOrderSubmission CheckoutState = "AWAITING_ORDER_SUBMISSION"
	CheckoutOrderPlaced             CheckoutState = "ORDER_PLACED"
	CheckoutOrderFailedAfterPayment CheckoutState = "ORDER_FAILED_AFTER_PAYMENT"
)

// ShippingForm is the shopper's contact and shipping details. Billing and
// shipping addresses are the same.
type ShippingForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// MissingFields lists the required fields that are blank, in form order.
func (f ShippingForm) MissingFields() []string {
	required := []struct {
		name  string
		value string
	}{
		{"firstName", f.FirstName},
		{"lastName", f.LastName},
		{"email", f.Email},
		{"address", f.Address},
		{"city", f.City},
		{"state", f.State},
		{"zip", f.Zip},
	}
	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}

// Totals are exact decimal amounts. Rounding happens only for display and
// payment.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals applies taxRate to the cart subtotal. Shipping is free.
func ComputeTotals(cart CartState, taxRate decimal.Decimal) Totals {
	subtotal := cart.Subtotal()
	tax := subtotal.Mul(taxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: decimal.Zero,
		Total:    subtotal.Add(tax),
	}
}

// AmountMinor is the total in cents, rounded half away from zero.
func (t Totals) AmountMinor() int64 {
	return util.ToMinorUnits(t.Total)
}

// Display renders the totals rounded to cents.
func (t Totals) Display() map[string]string {
	return map[string]string{
		"subtotal": util.FormatAmount(t.Subtotal),
		"tax":      util.FormatAmount(t.Tax),
		"shipping": util.FormatAmount(t.Shipping),
		"total":    util.FormatAmount(t.Total),
	}
}

// Checkout event types pushed to the session's event stream.
const (
	EventCheckoutState    = "checkout.state"
	EventCheckoutSnapshot = "checkout.snapshot"
)

// CheckoutEvent is published to a session's subscribers on every checkout
// state change.
type CheckoutEvent struct {
	Type            string        `json:"type"`
	SessionID       string        `json:"-"`
	State           CheckoutState `json:"state"`
	Message         string        `json:"message,omitempty"`
	Description     string        `json:"description,omitempty"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	OrderID         int64         `json:"order_id,omitempty"`
	At              time.Time     `json:"at"`
}
