package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())

	var seen string
	router.GET("/r", func(c *gin.Context) {
		seen = auth.GetRequestID(c.Request.Context())
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/r", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		router.ServeHTTP(w, req)
		assert.Equal(t, "abc-123", seen)
		assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	})

	t.Run("oversized replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/r", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", 500))
		router.ServeHTTP(w, req)
		assert.Len(t, seen, 36)
	})
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(RequestID(), AccessLog(zap.New(core)))
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
	assert.Equal(t, zap.ErrorLevel, entries[1].Level)
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name     string
		dev      bool
		wantHSTS bool
	}{
		{"production", false, true},
		{"development", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(NewSecurityHeaders(tt.dev).Handler())
			router.GET("/h", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/h", nil))

			assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.Equal(t, tt.wantHSTS, w.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestJWTAuth(t *testing.T) {
	jm, err := auth.NewJWTManager([]byte(strings.Repeat("k", 32)), "checkout", time.Minute)
	require.NoError(t, err)
	token, err := jm.GenerateToken("storefront", []string{"payments:write"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuth(jm, zaptest.NewLogger(t)))

	var subject string
	router.GET("/p", func(c *gin.Context) {
		subject = auth.GetAuthInfo(c.Request.Context()).Subject
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + token, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHENTICATED"`)
			}
		})
	}
	assert.Equal(t, "storefront", subject)
}

func TestRequireScope(t *testing.T) {
	jm, err := auth.NewJWTManager([]byte(strings.Repeat("k", 32)), "checkout", time.Minute)
	require.NoError(t, err)
	writer, err := jm.GenerateToken("storefront", []string{auth.ScopePaymentsWrite})
	require.NoError(t, err)
	reader, err := jm.GenerateToken("reporting", []string{"payments:read"})
	require.NoError(t, err)

	router := gin.New()
	router.Use(JWTAuth(jm, zaptest.NewLogger(t)), RequireScope(auth.ScopePaymentsWrite, http.MethodPost))
	router.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.POST("/p", func(c *gin.Context) { c.Status(http.StatusCreated) })

	tests := []struct {
		name   string
		method string
		token  string
		want   int
	}{
		{"read with read scope", http.MethodGet, reader, http.StatusOK},
		{"write with write scope", http.MethodPost, writer, http.StatusCreated},
		{"write with read scope", http.MethodPost, reader, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/p", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusForbidden {
				assert.Contains(t, w.Body.String(), `"code":"PERMISSION_DENIED"`)
			}
		})
	}
}

func TestRequireScope_Unauthenticated(t *testing.T) {
	router := gin.New()
	router.Use(RequireScope(auth.ScopePaymentsWrite))
	router.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/p", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
