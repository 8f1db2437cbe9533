package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/pkg/util"
)

const (
	testSessionSecret = "test-session-secret-for-middleware"
	testCookieName    = "storefront_session"
	testAdminToken    = "operator-token"
)

func setupMiddlewareTest(t *testing.T, adminHash string) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	return router, NewAuthMiddleware(testSessionSecret, testCookieName, time.Hour, false, adminHash)
}

func sessionEcho(router *gin.Engine, m *AuthMiddleware) {
	router.GET("/test", m.Session(), func(c *gin.Context) {
		sessionID, _ := GetSessionID(c)
		c.String(http.StatusOK, sessionID)
	})
}

func TestSession_IssuesCookieOnFirstRequest(t *testing.T) {
	router, m := setupMiddlewareTest(t, "")
	sessionEcho(router, m)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	sessionID, err := util.ParseSessionToken(cookies[0].Value, testSessionSecret)
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), sessionID)
}

func TestSession_ReusesValidCookie(t *testing.T) {
	router, m := setupMiddlewareTest(t, "")
	sessionEcho(router, m)

	sessionID := util.NewSessionID()
	token, err := util.IssueSessionToken(sessionID, testSessionSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, sessionID, w.Body.String())
	assert.Empty(t, w.Result().Cookies())
}

func TestSession_ReplacesForgedCookie(t *testing.T) {
	router, m := setupMiddlewareTest(t, "")
	sessionEcho(router, m)

	sessionID := util.NewSessionID()
	token, err := util.IssueSessionToken(sessionID, "another-secret", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.AddCookie(&http.Cookie{Name: testCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEqual(t, sessionID, w.Body.String())
	assert.Len(t, w.Result().Cookies(), 1)
}

func TestRequireAdmin(t *testing.T) {
	hash, err := util.HashAdminToken(testAdminToken)
	require.NoError(t, err)

	tests := []struct {
		name       string
		hash       string
		header     string
		wantStatus int
	}{
		{name: "valid token", hash: hash, header: "Bearer " + testAdminToken, wantStatus: http.StatusOK},
		{name: "missing header", hash: hash, header: "", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", hash: hash, header: "Basic " + testAdminToken, wantStatus: http.StatusUnauthorized},
		{name: "wrong token", hash: hash, header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{name: "admin disabled", hash: "", header: "Bearer " + testAdminToken, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, m := setupMiddlewareTest(t, tt.hash)
			router.GET("/admin", m.RequireAdmin(), func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"ok": true})
			})

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
