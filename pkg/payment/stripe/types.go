package stripe

// IntentStatusSucceeded is the status of a confirmed, captured payment intent.
const IntentStatusSucceeded = "succeeded"

// CreateIntentRequest represents the parameters for creating a payment intent
type CreateIntentRequest struct {
	// Amount in minor units (cents)
	Amount   int64
	Currency string
	Metadata map[string]string
}

// Intent is the subset of a Stripe PaymentIntent this service reads
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Succeeded reports whether the payment was captured.
func (i *Intent) Succeeded() bool {
	return i.Status == IntentStatusSucceeded
}
