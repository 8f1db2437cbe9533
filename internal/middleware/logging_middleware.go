package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/vitaboost/storefront/pkg/logger"
)

const (
	RequestIDHeader = "X-Request-ID"
	RequestIDKey    = "request_id"
	loggerKey       = "logger"
)

// quietPaths are polled by load balancers and the SPA; they log at debug.
var quietPaths = map[string]bool{
	"/health":     true,
	"/api/config": true,
}

// LoggingMiddleware attaches a request id and a request-scoped logger, then
// logs the outcome. Session and checkout handlers add their own fields to
// the same logger, so every line of one request carries its request id.
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)

		path := c.Request.URL.Path
		log := logger.WithContext(map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       path,
			"ip":         c.ClientIP(),
		})
		c.Set(loggerKey, log)

		c.Next()

		fields := map[string]interface{}{
			"status_code": c.Writer.Status(),
			"latency_ms":  time.Since(startTime).Milliseconds(),
			"body_size":   c.Writer.Size(),
		}
		if sessionID, ok := GetSessionID(c); ok {
			fields["session_id"] = sessionID
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		status := c.Writer.Status()
		switch {
		case status >= 500:
			log.Error("Request failed", nil, fields)
		case status >= 400:
			log.Warn("Request rejected", fields)
		case isEventStream(c):
			log.Info("Checkout event stream closed", fields)
		case quietPaths[path] || strings.HasPrefix(path, "/assets/"):
			log.Debug("Request completed", fields)
		default:
			log.Info("Request completed", fields)
		}
	}
}

func isEventStream(c *gin.Context) bool {
	return strings.EqualFold(c.Request.Header.Get("Upgrade"), "websocket")
}

// GetLoggerFromContext returns the request-scoped logger, or the global
// logger outside LoggingMiddleware.
func GetLoggerFromContext(c *gin.Context) *logger.Logger {
	if log, exists := c.Get(loggerKey); exists {
		if l, ok := log.(*logger.Logger); ok {
			return l
		}
	}
	return logger.Get()
}

// GetRequestID returns the id LoggingMiddleware assigned, if any.
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
