package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vitaboost/storefront/internal/app/service"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/pkg/payment/stripe"
)

type PaymentController struct {
	paymentService service.PaymentService
	storefront     StorefrontSettings
}

// StorefrontSettings are the public checkout settings the frontend reads
// from /api/config.
type StorefrontSettings struct {
	Currency    string
	TaxRate     float64
	MaxQuantity int
}

func NewPaymentController(paymentService service.PaymentService, storefront StorefrontSettings) *PaymentController {
	return &PaymentController{
		paymentService: paymentService,
		storefront:     storefront,
	}
}

type CreatePaymentIntentRequest struct {
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
}

// CreatePaymentIntent creates a Stripe payment intent for an amount in minor
// units
// POST /api/create-payment-intent
func (ctrl *PaymentController) CreatePaymentIntent(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid payment intent request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.PaymentInvalidRequest, service.ErrAmountRequired.Error())
		return
	}

	intent, err := ctrl.paymentService.CreatePaymentIntent(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		respondPaymentError(c, err)
		return
	}

	log.Info("Payment intent created", map[string]interface{}{
		"payment_intent_id": intent.ID,
		"amount":            intent.Amount,
		"currency":          intent.Currency,
	})

	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.ID,
	})
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPaymentNotConfigured):
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.PaymentConfigError, err.Error())
	case errors.Is(err, service.ErrAmountRequired):
		apperrors.BadRequest(c, apperrors.PaymentInvalidRequest, err.Error())
	case errors.Is(err, service.ErrInvalidAmount):
		apperrors.BadRequest(c, apperrors.PaymentInvalidAmount, err.Error())
	case errors.Is(err, service.ErrInvalidCurrency):
		apperrors.BadRequest(c, apperrors.PaymentInvalidCurrency, err.Error())
	case errors.Is(err, stripe.ErrInvalidRequest):
		apperrors.BadRequest(c, apperrors.StripeInvalidRequestError, err.Error())
	case errors.Is(err, stripe.ErrAuthentication):
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.StripeAuthenticationError,
			"Stripe authentication failed. Please check your API key.")
	case errors.Is(err, stripe.ErrAPI):
		apperrors.BadGateway(c, apperrors.StripeAPIError, "Stripe API error. Please try again later.")
	default:
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.StripeError, "Failed to create payment intent")
	}
}

// GetConfig returns the public payment and checkout settings
// GET /api/config
func (ctrl *PaymentController) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"publishableKey":    ctrl.paymentService.PublishableKey(),
		"paymentsAvailable": ctrl.paymentService.Configured(),
		"currency":          ctrl.storefront.Currency,
		"taxRate":           ctrl.storefront.TaxRate,
		"maxQuantity":       ctrl.storefront.MaxQuantity,
	})
}
