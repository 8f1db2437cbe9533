package errors

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorInfo is a code plus a message safe to show to users
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError turns storage errors into a user-facing code and message.
// Driver details are hidden.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	errStrLower := strings.ToLower(err.Error())

	// Postgres 23505 and SQLite UNIQUE failures
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: getAlreadyExistsMessage(context),
		}
	}

	if strings.Contains(errStrLower, "connection refused") || strings.Contains(errStrLower, "database is locked") {
		return ErrorInfo{
			Code:    InternalDatabaseError,
			Message: "The database is temporarily unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

// Status maps the parsed code to an HTTP status.
func (i ErrorInfo) Status() int {
	switch i.Code {
	case ResourceNotFound:
		return http.StatusNotFound
	case ResourceAlreadyExists:
		return http.StatusConflict
	case InternalDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// StorageError responds with the parsed form of a persistence error.
func StorageError(c *gin.Context, err error, context string) {
	info := ParseError(err, context)
	RespondWithError(c, info.Status(), info.Code, info.Message)
}

func getNotFoundMessage(context string) string {
	switch context {
	case "reconciliation":
		return "Reconciliation record not found"
	case "order":
		return "Order not found"
	case "product":
		return "Product not found"
	default:
		return "Resource not found"
	}
}

func getAlreadyExistsMessage(context string) string {
	switch context {
	case "order":
		return "An order already exists for this payment"
	case "reconciliation":
		return "This payment is already queued for reconciliation"
	default:
		return "Resource already exists"
	}
}
