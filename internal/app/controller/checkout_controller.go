package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/service"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
	ws "github.com/vitaboost/storefront/internal/websocket"
)

type CheckoutController struct {
	checkoutService service.CheckoutService
	hub             *ws.Hub
	upgrader        websocket.Upgrader
}

// NewCheckoutController accepts websocket connections from allowedOrigins,
// or from the same host when the list is empty.
func NewCheckoutController(checkoutService service.CheckoutService, hub *ws.Hub, allowedOrigins []string) *CheckoutController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &CheckoutController{
		checkoutService: checkoutService,
		hub:             hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				return err == nil && u.Host == r.Host
			},
		},
	}
}

type CompleteCheckoutRequest struct {
	PaymentIntentID string             `json:"payment_intent_id"`
	Form            model.ShippingForm `json:"form"`
}

// BeginCheckout computes totals and prepares payment
// POST /api/checkout
func (ctrl *CheckoutController) BeginCheckout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return
	}

	view, err := ctrl.checkoutService.Begin(c.Request.Context(), sessionID)
	if err != nil {
		log.Error("Failed to begin checkout", err)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetCheckout returns the current checkout view
// GET /api/checkout
func (ctrl *CheckoutController) GetCheckout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return
	}

	c.JSON(http.StatusOK, ctrl.checkoutService.Status(c.Request.Context(), sessionID))
}

// CompleteCheckout submits the order for a confirmed payment
// POST /api/checkout/complete
func (ctrl *CheckoutController) CompleteCheckout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return
	}

	var req CompleteCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid checkout request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	result, err := ctrl.checkoutService.Complete(c.Request.Context(), sessionID, req.PaymentIntentID, req.Form)
	if err != nil {
		respondCheckoutError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func respondCheckoutError(c *gin.Context, err error) {
	log := middleware.GetLoggerFromContext(c)

	var checkoutErr *service.CheckoutError
	switch {
	case errors.Is(err, service.ErrSubmissionInFlight):
		apperrors.Conflict(c, apperrors.CheckoutSubmissionInFlight, err.Error())
	case errors.Is(err, service.ErrOrderAlreadyPlaced):
		apperrors.Conflict(c, apperrors.CheckoutOrderAlreadyPlaced, err.Error())
	case errors.Is(err, service.ErrPaymentUnavailable):
		apperrors.Conflict(c, apperrors.CheckoutPaymentUnavailable, err.Error())
	case errors.As(err, &checkoutErr):
		status, code := http.StatusBadRequest, apperrors.CheckoutValidation
		switch checkoutErr.Kind {
		case service.KindPaymentNotConfirmed:
			status, code = http.StatusPaymentRequired, apperrors.CheckoutPaymentNotConfirmed
		case service.KindOrderFailedAfterPayment:
			status, code = http.StatusBadGateway, apperrors.CheckoutOrderFailedAfterPayment
		}
		apperrors.RespondWithDetails(c, status, apperrors.DetailedErrorResponse{
			Error:           code,
			Message:         checkoutErr.Message,
			Description:     checkoutErr.Description,
			Fields:          checkoutErr.Fields,
			PaymentIntentID: checkoutErr.PaymentIntentID,
			PaymentCaptured: checkoutErr.PaymentCaptured,
		})
	default:
		log.Error("Checkout failed", err)
		apperrors.InternalError(c, "")
	}
}

// AbandonCheckout marks the checkout page as left
// DELETE /api/checkout
func (ctrl *CheckoutController) AbandonCheckout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return
	}

	ctrl.checkoutService.Abandon(sessionID)
	c.JSON(http.StatusOK, ctrl.checkoutService.Status(c.Request.Context(), sessionID))
}

// CheckoutEvents streams the session's checkout state changes
// GET /api/checkout/events
func (ctrl *CheckoutController) CheckoutEvents(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	go ws.NewClient(ctrl.hub, conn, sessionID, ctrl.snapshot(sessionID)).Serve()

	log.Debug("Checkout event stream opened", map[string]interface{}{
		"session_id": sessionID,
	})
}

func (ctrl *CheckoutController) snapshot(sessionID string) func() []byte {
	return func() []byte {
		view := ctrl.checkoutService.Status(context.Background(), sessionID)
		if view == nil {
			return nil
		}
		data, err := json.Marshal(model.CheckoutEvent{
			Type:            model.EventCheckoutSnapshot,
			State:           view.State,
			Message:         view.Message,
			Description:     view.Description,
			PaymentIntentID: view.PaymentIntentID,
			OrderID:         view.OrderID,
			At:              time.Now(),
		})
		if err != nil {
			return nil
		}
		return data
	}
}
