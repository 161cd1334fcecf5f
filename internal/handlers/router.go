// Package handlers assembles the HTTP surface of the service.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/auth"
	"github.com/kevin07696/payment-intents/internal/handlers/customer"
	"github.com/kevin07696/payment-intents/internal/handlers/payment"
	"github.com/kevin07696/payment-intents/internal/middleware"
	"github.com/kevin07696/payment-intents/internal/services/ports"
	pkgmiddleware "github.com/kevin07696/payment-intents/pkg/middleware"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
	"github.com/kevin07696/payment-intents/pkg/shutdown"
	"go.uber.org/zap"
)

// APIPrefix is the secondary mount point of every API route.
const APIPrefix = "/api"

// RouterConfig carries the dependencies of NewRouter. Optional fields
// disable their middleware when nil.
type RouterConfig struct {
	Payments    ports.PaymentService
	Customers   ports.CustomerService
	Logger      *zap.Logger
	Health      *observability.HealthChecker
	Timeouts    *resilience.TimeoutConfig
	RateLimiter *pkgmiddleware.RateLimiter
	InFlight    *shutdown.InFlightTracker
	Auth        middleware.TokenValidator
	Development bool
}

// NewRouter builds the gin engine. API routes are served both at the root
// and under APIPrefix; probes stay outside auth and rate limiting. gin's
// global mode is left to the caller.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Timeouts == nil {
		cfg.Timeouts = resilience.DefaultTimeoutConfig()
	}

	router := gin.New()
	router.HandleMethodNotAllowed = true

	router.Use(
		pkgmiddleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.AccessLog(cfg.Logger),
		observability.GinMiddleware(),
		middleware.NewSecurityHeaders(cfg.Development).Handler(),
	)
	if cfg.InFlight != nil {
		router.Use(cfg.InFlight.GinMiddleware())
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not Found", "code": "NOT_FOUND"})
	})
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"detail": "Method Not Allowed", "code": "METHOD_NOT_ALLOWED"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", readiness(cfg.Health))

	api := []gin.HandlerFunc{pkgmiddleware.Timeout(cfg.Timeouts)}
	if cfg.RateLimiter != nil {
		api = append(api, cfg.RateLimiter.GinMiddleware())
	}
	if cfg.Auth != nil {
		api = append(api,
			middleware.JWTAuth(cfg.Auth, cfg.Logger),
			middleware.RequireScope(auth.ScopePaymentsWrite, http.MethodPost),
		)
	}

	paymentHandler := payment.NewHandler(cfg.Payments, cfg.Logger)
	customerHandler := customer.NewHandler(cfg.Customers, cfg.Logger)

	for _, prefix := range []string{"", APIPrefix} {
		group := router.Group(prefix, api...)
		paymentHandler.RegisterRoutes(group)
		customerHandler.RegisterRoutes(group)
	}

	return router
}

func readiness(hc *observability.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hc == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}

		status := hc.Check(c.Request.Context())
		if !status.Healthy() {
			c.JSON(http.StatusServiceUnavailable, status)
			return
		}
		c.JSON(http.StatusOK, status)
	}
}
