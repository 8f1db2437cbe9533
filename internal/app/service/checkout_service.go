package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/payment/intent"
	"github.com/vitaboost/storefront/pkg/payment/stripe"
	"github.com/vitaboost/storefront/pkg/util"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

var (
	ErrSubmissionInFlight = errors.New("an order submission is already in progress")
	ErrOrderAlreadyPlaced = errors.New("an order has already been placed for this payment")
	ErrPaymentUnavailable = errors.New("payment is not available for this checkout")
)

type CheckoutErrorKind string

const (
	KindValidation              CheckoutErrorKind = "validation"
	KindPaymentNotConfirmed     CheckoutErrorKind = "payment_not_confirmed"
	KindOrderFailedAfterPayment CheckoutErrorKind = "order_failed_after_payment"
)

const (
	msgOrderFailedAfterPayment = "Payment succeeded but order creation failed"
	msgMissingFields           = "Please fill in all required shipping fields"
	msgEmptyCart               = "Your cart is empty"
	msgIntentUnavailable       = "Payment is temporarily unavailable"
	msgOrderPlaced             = "Order placed successfully!"
	msgCartChangedAfterPayment = "Your cart changed after payment"
)

// CheckoutError is a checkout failure the shopper has to see. When
// PaymentCaptured is set the shopper has already been charged.
type CheckoutError struct {
	Kind            CheckoutErrorKind
	Message         string
	Description     string
	Fields          []string
	PaymentIntentID string
	PaymentCaptured bool
	Err             error
}

func (e *CheckoutError) Error() string {
	if e.Description != "" {
		return e.Message + ": " + e.Description
	}
	return e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// OrderClient is the write side of the WooCommerce client.
type OrderClient interface {
	CreateOrder(ctx context.Context, order woocommerce.OrderRequest) (*woocommerce.Order, error)
}

// PaymentVerifier confirms a payment intent with the processor.
type PaymentVerifier interface {
	VerifyPayment(ctx context.Context, paymentIntentID string) (*stripe.Intent, error)
}

// CheckoutEventPublisher fans checkout transitions out to listeners.
type CheckoutEventPublisher interface {
	PublishCheckoutEvent(event model.CheckoutEvent)
}

// IntentOutcome tells how Begin obtained (or did not obtain) an intent.
type IntentOutcome string

const (
	IntentNotNeeded   IntentOutcome = "not_needed"
	IntentCreated     IntentOutcome = "created"
	IntentReused      IntentOutcome = "reused"
	IntentUnavailable IntentOutcome = "unavailable"
	IntentPending     IntentOutcome = "pending"
)

// CheckoutView is what the checkout page renders.
type CheckoutView struct {
	State           model.CheckoutState `json:"state"`
	Outcome         IntentOutcome       `json:"intent_outcome,omitempty"`
	Totals          model.Totals        `json:"totals"`
	Display         map[string]string   `json:"display"`
	AmountCents     int64               `json:"amount_cents"`
	Currency        string              `json:"currency"`
	ItemCount       int                 `json:"item_count"`
	ClientSecret    string              `json:"client_secret,omitempty"`
	PaymentIntentID string              `json:"payment_intent_id,omitempty"`
	PublishableKey  string              `json:"publishable_key,omitempty"`
	Message         string              `json:"message,omitempty"`
	Description     string              `json:"description,omitempty"`
	OrderID         int64               `json:"order_id,omitempty"`
}

// CheckoutResult is returned for a placed order.
type CheckoutResult struct {
	OrderID         int64  `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Message         string `json:"message"`
	Description     string `json:"description"`
}

type CheckoutConfig struct {
	Currency     string
	TaxRate      decimal.Decimal
	Country      string
	OrderTimeout time.Duration
}

// CheckoutDependencies are the collaborators of the checkout service.
// Verifier and Events are optional.
type CheckoutDependencies struct {
	Carts           CartService
	Intents         intent.Creator
	Orders          OrderClient
	PlacedOrders    repository.PlacedOrderRepository
	Reconciliations ReconciliationService
	Verifier        PaymentVerifier
	Events          CheckoutEventPublisher
	PublishableKey  string
}

type CheckoutService interface {
	// Begin enters checkout: computes totals and obtains a payment intent
	// when the total is positive and changed since the last intent.
	Begin(ctx context.Context, sessionID string) (*CheckoutView, error)
	// Complete submits the order for a confirmed payment.
	Complete(ctx context.Context, sessionID, paymentIntentID string, form model.ShippingForm) (*CheckoutResult, error)
	// Abandon marks the checkout page as left. Responses still in flight no
	// longer change the checkout state.
	Abandon(sessionID string)
	Status(ctx context.Context, sessionID string) *CheckoutView
	// Forget drops checkout state for sessions whose carts were evicted.
	Forget(sessionID string)
}

type checkoutSession struct {
	mu           sync.Mutex
	state        model.CheckoutState
	generation   uint64
	totals       model.Totals
	itemCount    int
	outcome      IntentOutcome
	intent       *intent.Intent
	intentAmount int64
	pendingAmt   int64
	submitting   bool
	message      string
	description  string
	confirmedPI  string
	orderID      int64
}

type checkoutService struct {
	deps   CheckoutDependencies
	config CheckoutConfig
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*checkoutSession
}

func NewCheckoutService(deps CheckoutDependencies, config CheckoutConfig) CheckoutService {
	if config.Currency == "" {
		config.Currency = defaultCurrency
	}
	if config.Country == "" {
		config.Country = "US"
	}
	if config.OrderTimeout <= 0 {
		config.OrderTimeout = 30 * time.Second
	}
	return &checkoutService{
		deps:     deps,
		config:   config,
		now:      time.Now,
		sessions: make(map[string]*checkoutSession),
	}
}

func (s *checkoutService) session(sessionID string) *checkoutSession {
	s.mu.RLock()
	cs, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return cs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.sessions[sessionID]; ok {
		return cs
	}
	cs = &checkoutSession{state: model.CheckoutInit}
	s.sessions[sessionID] = cs
	return cs
}

func (s *checkoutService) Forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cs, ok := s.sessions[sessionID]; ok {
		cs.mu.Lock()
		// captured payments keep their guard against a second intent
		keep := cs.submitting || paymentCaptured(cs.state)
		cs.mu.Unlock()
		if !keep {
			delete(s.sessions, sessionID)
		}
	}
}

func (s *checkoutService) Begin(ctx context.Context, sessionID string) (*CheckoutView, error) {
	cart := s.deps.Carts.Session(ctx, sessionID)
	cartState := cart.State()
	totals := model.ComputeTotals(cartState, s.config.TaxRate)
	amount := totals.AmountMinor()

	cs := s.session(sessionID)
	cs.mu.Lock()

	// A captured payment is never paired with a second intent.
	if cs.submitting || paymentCaptured(cs.state) {
		view := s.viewLocked(cs)
		cs.mu.Unlock()
		return view, nil
	}

	cs.totals = totals
	cs.itemCount = cartState.ItemCount()

	if !totals.Total.IsPositive() {
		cs.intent = nil
		cs.intentAmount = 0
		cs.outcome = IntentNotNeeded
		cs.message, cs.description = "", ""
		s.transitionLocked(sessionID, cs, model.CheckoutInit)
		view := s.viewLocked(cs)
		cs.mu.Unlock()
		return view, nil
	}

	switch {
	case cs.state == model.CheckoutAwaitingIntent && cs.pendingAmt == amount:
		cs.outcome = IntentPending
		view := s.viewLocked(cs)
		cs.mu.Unlock()
		return view, nil
	case cs.intent != nil && cs.intentAmount == amount && cs.state != model.CheckoutOrderPlaced:
		cs.outcome = IntentReused
		view := s.viewLocked(cs)
		cs.mu.Unlock()
		return view, nil
	case cs.state == model.CheckoutIntentUnavailable && cs.pendingAmt == amount:
		view := s.viewLocked(cs)
		cs.mu.Unlock()
		return view, nil
	}

	cs.intent = nil
	cs.intentAmount = 0
	cs.pendingAmt = amount
	cs.orderID = 0
	cs.confirmedPI = ""
	cs.message, cs.description = "", ""
	s.transitionLocked(sessionID, cs, model.CheckoutAwaitingIntent)
	gen := cs.generation
	cs.mu.Unlock()

	created, err := s.deps.Intents.CreatePaymentIntent(ctx, totals.Total, s.config.Currency)

	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.generation != gen || cs.pendingAmt != amount {
		logger.Debug("Discarding payment intent response for a superseded checkout", map[string]interface{}{
			"session_id": sessionID,
		})
		return s.viewLocked(cs), nil
	}

	if err != nil {
		cs.outcome = IntentUnavailable
		cs.message = msgIntentUnavailable
		cs.description = "Could not initialize payment. Please try again later."
		s.transitionLocked(sessionID, cs, model.CheckoutIntentUnavailable)
		logger.Warn("Checkout continues without a payment intent", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return s.viewLocked(cs), nil
	}

	cs.intent = created
	cs.intentAmount = amount
	cs.outcome = IntentCreated
	s.transitionLocked(sessionID, cs, model.CheckoutIntentReady)
	s.transitionLocked(sessionID, cs, model.CheckoutAwaitingPaymentConfirm)
	return s.viewLocked(cs), nil
}

func (s *checkoutService) Complete(ctx context.Context, sessionID, paymentIntentID string, form model.ShippingForm) (*CheckoutResult, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, &CheckoutError{Kind: KindPaymentNotConfirmed, Message: "Payment confirmation is required"}
	}

	cs := s.session(sessionID)
	cs.mu.Lock()
	if cs.submitting {
		cs.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	if cs.state == model.CheckoutIntentUnavailable {
		cs.mu.Unlock()
		return nil, ErrPaymentUnavailable
	}
	if cs.intent != nil && cs.intent.ID != "" && cs.intent.ID != paymentIntentID {
		cs.mu.Unlock()
		return nil, &CheckoutError{
			Kind:            KindPaymentNotConfirmed,
			Message:         "Payment does not match this checkout",
			PaymentIntentID: paymentIntentID,
		}
	}
	// without a processor to ask, only the intent this checkout created
	// can be trusted
	if s.deps.Verifier == nil && (cs.intent == nil || cs.intent.ID != paymentIntentID) {
		cs.mu.Unlock()
		return nil, &CheckoutError{
			Kind:            KindPaymentNotConfirmed,
			Message:         "Payment does not match this checkout",
			PaymentIntentID: paymentIntentID,
		}
	}
	intentAmount := cs.intentAmount
	cs.submitting = true
	gen := cs.generation
	cs.mu.Unlock()

	defer func() {
		cs.mu.Lock()
		cs.submitting = false
		cs.mu.Unlock()
	}()

	placed, err := s.deps.PlacedOrders.FindByPaymentIntentID(paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check placed orders: %w", err)
	}
	if placed != nil {
		return nil, ErrOrderAlreadyPlaced
	}

	verified, err := s.verifyPayment(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	s.transition(sessionID, cs, gen, func() {
		cs.confirmedPI = paymentIntentID
	}, model.CheckoutPaymentSucceeded)

	if missing := form.MissingFields(); len(missing) > 0 {
		return nil, &CheckoutError{
			Kind:            KindValidation,
			Message:         msgMissingFields,
			Fields:          missing,
			PaymentIntentID: paymentIntentID,
			PaymentCaptured: true,
		}
	}

	cart := s.deps.Carts.Session(ctx, sessionID)
	cartState := cart.State()
	if cartState.IsEmpty() || cartState.Quantity() == 0 {
		return nil, &CheckoutError{
			Kind:            KindValidation,
			Message:         msgEmptyCart,
			PaymentIntentID: paymentIntentID,
			PaymentCaptured: true,
		}
	}

	totals := model.ComputeTotals(cartState, s.config.TaxRate)
	paid := intentAmount
	if verified != nil {
		paid = verified.Amount
	}
	if due := totals.AmountMinor(); due != paid {
		return nil, s.amountMismatch(ctx, sessionID, cs, gen, paymentIntentID, form, cartState, paid, due)
	}

	s.transition(sessionID, cs, gen, nil, model.CheckoutAwaitingOrderSubmission)

	// the payment is captured; the order call must outlive the request
	orderCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.OrderTimeout)
	defer cancel()

	order, err := s.deps.Orders.CreateOrder(orderCtx, s.buildOrder(paymentIntentID, form, cartState, totals))
	if err != nil {
		return nil, s.orderFailed(orderCtx, sessionID, cs, gen, paymentIntentID, form, cartState, paid, err)
	}

	cart.ClearCart()

	amountCents := paid
	if err := s.deps.PlacedOrders.Create(&model.PlacedOrder{
		SessionID:       sessionID,
		RemoteOrderID:   order.ID,
		PaymentIntentID: paymentIntentID,
		TotalCents:      amountCents,
		Currency:        s.config.Currency,
		CustomerEmail:   form.Email,
	}); err != nil {
		logger.Error("Order placed but not recorded locally", err, map[string]interface{}{
			"order_id":          order.ID,
			"payment_intent_id": paymentIntentID,
		})
	}

	description := fmt.Sprintf("Order #%d has been created and paid via Stripe.", order.ID)
	if s.deps.Reconciliations != nil {
		// a retry after a failed submission settles the queued record
		if err := s.deps.Reconciliations.ResolveByPaymentIntent(orderCtx, paymentIntentID, fmt.Sprintf("Order #%d created on retry", order.ID)); err != nil {
			logger.Error("Failed to settle reconciliation record", err, map[string]interface{}{
				"payment_intent_id": paymentIntentID,
			})
		}
	}
	s.transition(sessionID, cs, gen, func() {
		cs.orderID = order.ID
		cs.intent = nil
		cs.intentAmount = 0
		cs.message = msgOrderPlaced
		cs.description = description
	}, model.CheckoutOrderPlaced)

	logger.Info("Order placed", map[string]interface{}{
		"session_id":        sessionID,
		"order_id":          order.ID,
		"payment_intent_id": paymentIntentID,
		"total_cents":       amountCents,
	})

	return &CheckoutResult{
		OrderID:         order.ID,
		PaymentIntentID: paymentIntentID,
		Message:         msgOrderPlaced,
		Description:     description,
	}, nil
}

func (s *checkoutService) verifyPayment(ctx context.Context, paymentIntentID string) (*stripe.Intent, error) {
	if s.deps.Verifier == nil {
		return nil, nil
	}
	verified, err := s.deps.Verifier.VerifyPayment(ctx, paymentIntentID)
	if err != nil {
		return nil, &CheckoutError{
			Kind:            KindPaymentNotConfirmed,
			Message:         "Could not confirm payment",
			PaymentIntentID: paymentIntentID,
			Err:             err,
		}
	}
	if !verified.Succeeded() {
		return nil, &CheckoutError{
			Kind:            KindPaymentNotConfirmed,
			Message:         "Payment has not been completed",
			Description:     "Payment status is " + verified.Status,
			PaymentIntentID: paymentIntentID,
		}
	}
	return verified, nil
}

func (s *checkoutService) orderFailed(ctx context.Context, sessionID string, cs *checkoutSession, gen uint64, paymentIntentID string,
	form model.ShippingForm, cartState model.CartState, paid int64, cause error) error {
	reason := OrderFailureReason(cause)
	description := reason + " Payment Intent ID: " + paymentIntentID

	s.queueReconciliation(ctx, sessionID, paymentIntentID, form, cartState, paid, cause.Error())

	s.transition(sessionID, cs, gen, func() {
		cs.message = msgOrderFailedAfterPayment
		cs.description = description
	}, model.CheckoutOrderFailedAfterPayment)

	logger.Error("Error creating order after payment", cause, map[string]interface{}{
		"session_id":        sessionID,
		"payment_intent_id": paymentIntentID,
	})

	return &CheckoutError{
		Kind:            KindOrderFailedAfterPayment,
		Message:         msgOrderFailedAfterPayment,
		Description:     description,
		PaymentIntentID: paymentIntentID,
		PaymentCaptured: true,
		Err:             cause,
	}
}

// amountMismatch handles a captured payment whose amount no longer covers
// the cart. No order is placed; the payment waits for reconciliation and the
// shopper can restore the cart and retry.
func (s *checkoutService) amountMismatch(ctx context.Context, sessionID string, cs *checkoutSession, gen uint64, paymentIntentID string,
	form model.ShippingForm, cartState model.CartState, paid, due int64) error {
	description := fmt.Sprintf("Paid %s but the cart now totals %s. Payment Intent ID: %s",
		util.FormatAmount(util.FromMinorUnits(paid)), util.FormatAmount(util.FromMinorUnits(due)), paymentIntentID)

	s.queueReconciliation(ctx, sessionID, paymentIntentID, form, cartState, paid,
		fmt.Sprintf("cart total %d does not match captured amount %d", due, paid))

	s.transition(sessionID, cs, gen, func() {
		cs.confirmedPI = paymentIntentID
		cs.message = msgCartChangedAfterPayment
		cs.description = description
	}, model.CheckoutOrderFailedAfterPayment)

	logger.Warn("Cart total does not match captured payment", map[string]interface{}{
		"session_id":        sessionID,
		"payment_intent_id": paymentIntentID,
		"paid_cents":        paid,
		"due_cents":         due,
	})

	return &CheckoutError{
		Kind:            KindPaymentNotConfirmed,
		Message:         msgCartChangedAfterPayment,
		Description:     description,
		PaymentIntentID: paymentIntentID,
		PaymentCaptured: true,
	}
}

func (s *checkoutService) queueReconciliation(ctx context.Context, sessionID, paymentIntentID string,
	form model.ShippingForm, cartState model.CartState, paid int64, reason string) {
	if s.deps.Reconciliations == nil {
		return
	}
	lines, err := json.Marshal(orderLineItems(cartState))
	if err != nil {
		logger.Error("Failed to encode line items for reconciliation", err, map[string]interface{}{
			"payment_intent_id": paymentIntentID,
		})
	}
	if err := s.deps.Reconciliations.Record(ctx, &model.ReconciliationRecord{
		SessionID:       sessionID,
		PaymentIntentID: paymentIntentID,
		AmountCents:     paid,
		Currency:        s.config.Currency,
		CustomerEmail:   form.Email,
		CustomerName:    strings.TrimSpace(form.FirstName + " " + form.LastName),
		LineItems:       string(lines),
		FailureReason:   reason,
	}); err != nil {
		logger.Error("Failed to queue payment for reconciliation", err, map[string]interface{}{
			"payment_intent_id": paymentIntentID,
		})
	}
}

// OrderFailureReason turns an order creation error into guidance for the
// shop owner.
func OrderFailureReason(err error) string {
	if errors.Is(err, woocommerce.ErrNotConfigured) {
		return "Order creation is not configured. Set the WooCommerce Consumer Key and Secret with Read/Write permissions."
	}

	message := err.Error()
	if message == "" {
		message = "Order creation failed after payment."
	}
	status := 0
	var apiErr *woocommerce.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.StatusCode
	}

	switch {
	case strings.Contains(message, "write permissions") || strings.Contains(message, "permission"):
		return "Your WooCommerce API key needs Write permissions. Go to WordPress Admin > WooCommerce > Settings > Advanced > REST API and update your API key to have Read/Write permissions."
	case status == http.StatusUnauthorized || strings.Contains(message, "401") || strings.Contains(message, "Unauthorized"):
		return "Authentication failed. Please check that your WooCommerce API credentials (Consumer Key and Secret) are correct."
	case status == http.StatusForbidden || strings.Contains(message, "403") || strings.Contains(message, "Forbidden"):
		return "Access forbidden. Your API key may not have the required permissions. Ensure it has Read/Write access."
	default:
		return message
	}
}

func (s *checkoutService) buildOrder(paymentIntentID string, form model.ShippingForm, cartState model.CartState, totals model.Totals) woocommerce.OrderRequest {
	address := woocommerce.Address{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Address1:  form.Address,
		City:      form.City,
		State:     form.State,
		Postcode:  form.Zip,
		Country:   s.config.Country,
	}
	billing := address
	billing.Email = form.Email
	billing.Phone = form.Phone

	order := woocommerce.OrderRequest{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Stripe",
		SetPaid:            true,
		TransactionID:      paymentIntentID,
		Billing:            billing,
		Shipping:           address,
		LineItems:          orderLineItems(cartState),
		ShippingLines: []woocommerce.ShippingLine{{
			MethodID:    "free_shipping",
			MethodTitle: "Free Shipping",
			Total:       "0.00",
		}},
		FeeLines: []woocommerce.FeeLine{},
		MetaData: []woocommerce.MetaData{{
			Key:   "_stripe_payment_intent_id",
			Value: paymentIntentID,
		}},
	}
	if totals.Tax.IsPositive() {
		order.FeeLines = append(order.FeeLines, woocommerce.FeeLine{
			Name:  "Tax",
			Total: totals.Tax.StringFixed(2),
		})
	}
	return order
}

func orderLineItems(cartState model.CartState) []woocommerce.LineItem {
	lines := make([]woocommerce.LineItem, 0, len(cartState.Items))
	for _, item := range cartState.Items {
		lines = append(lines, woocommerce.LineItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

func (s *checkoutService) Abandon(sessionID string) {
	cs := s.session(sessionID)
	cs.mu.Lock()
	defer cs.mu.Unlock()

	// an in-flight submission must still report its outcome
	if cs.submitting {
		return
	}
	cs.generation++
	if paymentCaptured(cs.state) {
		return
	}
	cs.intent = nil
	cs.intentAmount = 0
	cs.pendingAmt = 0
	cs.outcome = ""
	cs.message, cs.description = "", ""
	s.transitionLocked(sessionID, cs, model.CheckoutInit)
}

func (s *checkoutService) Status(ctx context.Context, sessionID string) *CheckoutView {
	cs := s.session(sessionID)
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.state == model.CheckoutInit {
		cartState := s.deps.Carts.Session(ctx, sessionID).State()
		cs.totals = model.ComputeTotals(cartState, s.config.TaxRate)
		cs.itemCount = cartState.ItemCount()
	}
	return s.viewLocked(cs)
}

func paymentCaptured(state model.CheckoutState) bool {
	return state == model.CheckoutPaymentSucceeded || state == model.CheckoutOrderFailedAfterPayment
}

// transition applies mutate and moves to state unless the checkout was
// abandoned after gen was taken.
func (s *checkoutService) transition(sessionID string, cs *checkoutSession, gen uint64, mutate func(), state model.CheckoutState) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if cs.generation != gen {
		return
	}
	if mutate != nil {
		mutate()
	}
	s.transitionLocked(sessionID, cs, state)
}

func (s *checkoutService) transitionLocked(sessionID string, cs *checkoutSession, state model.CheckoutState) {
	from := cs.state
	cs.state = state
	logger.Debug("Checkout state changed", map[string]interface{}{
		"session_id": sessionID,
		"from":       from,
		"to":         state,
	})
	if s.deps.Events == nil {
		return
	}
	event := model.CheckoutEvent{
		Type:        model.EventCheckoutState,
		SessionID:   sessionID,
		State:       state,
		Message:     cs.message,
		Description: cs.description,
		OrderID:     cs.orderID,
		At:          s.now(),
	}
	if cs.intent != nil {
		event.PaymentIntentID = cs.intent.ID
	}
	if cs.confirmedPI != "" {
		event.PaymentIntentID = cs.confirmedPI
	}
	s.deps.Events.PublishCheckoutEvent(event)
}

func (s *checkoutService) viewLocked(cs *checkoutSession) *CheckoutView {
	view := &CheckoutView{
		State:          cs.state,
		Outcome:        cs.outcome,
		Totals:         cs.totals,
		Display:        cs.totals.Display(),
		AmountCents:    util.ToMinorUnits(cs.totals.Total),
		Currency:       s.config.Currency,
		ItemCount:      cs.itemCount,
		PublishableKey: s.deps.PublishableKey,
		Message:        cs.message,
		Description:    cs.description,
		OrderID:        cs.orderID,
	}
	if cs.intent != nil {
		view.ClientSecret = cs.intent.ClientSecret
		view.PaymentIntentID = cs.intent.ID
	}
	if cs.confirmedPI != "" {
		view.PaymentIntentID = cs.confirmedPI
	}
	return view
}
