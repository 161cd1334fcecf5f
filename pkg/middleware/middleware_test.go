package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/pkg/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiter_GinMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Shutdown()

	router := gin.New()
	router.Use(rl.GinMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.JSONEq(t, `{"detail":"Rate limit exceeded. Please try again later.","code":"RATE_LIMITED"}`, w.Body.String())
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// Another client has its own budget
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimiter_CleanupAndEviction(t *testing.T) {
	rl := NewRateLimiter(10, 10)
	defer rl.Shutdown()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.maxSize = 2

	rl.Allow("a")
	now = now.Add(time.Second)
	rl.Allow("b")
	now = now.Add(time.Second)
	rl.Allow("c")
	assert.Equal(t, 2, rl.Size())

	now = now.Add(rl.cleanupInterval + time.Second)
	rl.cleanup()
	assert.Zero(t, rl.Size())

	rl.Shutdown()
}

func TestTimeout_SetsDeadline(t *testing.T) {
	cfg := resilience.DefaultTimeoutConfig()
	cfg.HTTPHandler = time.Second

	router := gin.New()
	router.Use(Timeout(cfg))

	var remaining time.Duration
	router.GET("/t", func(c *gin.Context) {
		deadline, ok := c.Request.Context().Deadline()
		require.True(t, ok)
		remaining = time.Until(deadline)
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/t", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, time.Second)
}

func TestTimeout_KeepsTighterParentDeadline(t *testing.T) {
	router := gin.New()
	router.Use(Timeout(resilience.DefaultTimeoutConfig()))

	var remaining time.Duration
	router.GET("/t", func(c *gin.Context) {
		deadline, _ := c.Request.Context().Deadline()
		remaining = time.Until(deadline)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/t", nil).WithContext(ctx))
	assert.LessOrEqual(t, remaining, 100*time.Millisecond)
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery(zaptest.NewLogger(t)))
	router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"detail":"internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())
}
