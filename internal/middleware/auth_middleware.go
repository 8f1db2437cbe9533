package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/pkg/util"
)

// Context keys
const (
	SessionIDKey = "session_id"
	AdminKey     = "admin"
)

type AuthMiddleware struct {
	sessionSecret  string
	cookieName     string
	sessionTTL     time.Duration
	secureCookie   bool
	adminTokenHash string
}

func NewAuthMiddleware(sessionSecret, cookieName string, sessionTTL time.Duration, secureCookie bool, adminTokenHash string) *AuthMiddleware {
	return &AuthMiddleware{
		sessionSecret:  sessionSecret,
		cookieName:     cookieName,
		sessionTTL:     sessionTTL,
		secureCookie:   secureCookie,
		adminTokenHash: adminTokenHash,
	}
}

// Session resolves the shopper's anonymous session from the session cookie.
// A missing, expired or tampered cookie starts a new session.
func (m *AuthMiddleware) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if raw, err := c.Cookie(m.cookieName); err == nil && raw != "" {
			sessionID, err := util.ParseSessionToken(raw, m.sessionSecret)
			if err == nil {
				c.Set(SessionIDKey, sessionID)
				c.Next()
				return
			}
			log.Debug("Session cookie rejected", map[string]interface{}{
				"path":    c.Request.URL.Path,
				"expired": errors.Is(err, util.ErrExpiredToken),
			})
		}

		sessionID := util.NewSessionID()
		token, err := util.IssueSessionToken(sessionID, m.sessionSecret, m.sessionTTL)
		if err != nil {
			log.Error("Failed to issue session token", err)
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}

		http.SetCookie(c.Writer, &http.Cookie{
			Name:     m.cookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(m.sessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   m.secureCookie,
			SameSite: http.SameSiteLaxMode,
		})
		c.Set(SessionIDKey, sessionID)

		log.Debug("Session started", map[string]interface{}{
			"session_id": sessionID,
		})
		c.Next()
	}
}

// RequireAdmin checks "Authorization: Bearer <token>" against the configured
// bcrypt hash. Without a configured hash the admin API is closed.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		if m.adminTokenHash == "" {
			log.Warn("Admin API called but ADMIN_TOKEN_HASH is not set", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "Admin API is disabled")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		if !util.VerifyAdminToken(m.adminTokenHash, parts[1]) {
			log.Warn("Admin token rejected", map[string]interface{}{
				"path": c.Request.URL.Path,
				"ip":   c.ClientIP(),
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid admin token")
			c.Abort()
			return
		}

		c.Set(AdminKey, true)
		c.Next()
	}
}

// GetSessionID extracts the session id set by Session.
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := sessionID.(string)
	return id, ok && id != ""
}
