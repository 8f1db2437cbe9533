package errors

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DetailedErrorResponse adds what a shopper needs to quote to support when a
// checkout fails, in particular whether the card was already charged.
type DetailedErrorResponse struct {
	Error           string   `json:"error"`
	Message         string   `json:"message"`
	Description     string   `json:"description,omitempty"`
	Fields          []string `json:"fields,omitempty"`
	PaymentIntentID string   `json:"payment_intent_id,omitempty"`
	PaymentCaptured bool     `json:"payment_captured"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func RespondWithDetails(c *gin.Context, statusCode int, body DetailedErrorResponse) {
	c.JSON(statusCode, body)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

// SessionRequired answers requests that reached a session route without a
// session, which only happens when the session middleware is missing.
func SessionRequired(c *gin.Context) {
	RespondWithError(c, http.StatusUnauthorized, SessionNotPresent, "Session is required")
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

// RouteNotFoundError reports an unknown route; prefix is "API route" for
// /api paths in production and "Route" elsewhere.
func RouteNotFoundError(c *gin.Context, prefix string) {
	RespondWithError(c, http.StatusNotFound, RouteNotFound,
		fmt.Sprintf("%s %s %s not found", prefix, c.Request.Method, c.Request.URL.Path))
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func BadGateway(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadGateway, errorCode, message)
}

func ServiceUnavailable(c *gin.Context, message string) {
	RespondWithError(c, http.StatusServiceUnavailable, InternalConfigError, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Something went wrong. Please try again later"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}
