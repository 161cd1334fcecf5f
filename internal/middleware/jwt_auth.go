package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/auth"
	"go.uber.org/zap"
)

// TokenValidator validates bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.JWTClaims, error)
}

// JWTAuth requires a valid bearer token and stores its claims in the request context
func JWTAuth(validator TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			abortUnauthorized(c, "invalid authorization format: expected 'Bearer <token>'")
			return
		}

		claims, err := validator.ValidateToken(tokenString)
		if err != nil {
			logger.Warn("token verification failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", auth.GetRequestID(c.Request.Context())))
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		ctx := auth.WithAuth(c.Request.Context(), &auth.AuthInfo{
			Type:     auth.AuthTypeJWT,
			Subject:  claims.Subject,
			TokenJTI: claims.ID,
			Scopes:   claims.Scopes,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireScope rejects requests whose token lacks scope. Only the listed
// methods are checked; with none, every request is.
func RequireScope(scope string, methods ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(methods) > 0 && !slices.Contains(methods, c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if !auth.IsAuthenticated(ctx) {
			abortUnauthorized(c, "authentication required")
			return
		}
		if err := auth.RequireScope(ctx, scope); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"detail": err.Error(),
				"code":   "PERMISSION_DENIED",
			})
			return
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"detail": detail,
		"code":   "UNAUTHENTICATED",
	})
}
