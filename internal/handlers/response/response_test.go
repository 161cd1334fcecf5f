package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.NewUpstreamRejected("Your card was declined", nil), http.StatusBadRequest},
		{domain.ErrValidationAmountInvalid, http.StatusBadRequest},
		{domain.NewDuplicateRequest("Duplicate payment request", nil), http.StatusConflict},
		{domain.ErrPaymentNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrCustomerNotFound), http.StatusNotFound},
		{domain.NewUpstreamUnavailable("Failed to confirm payment", nil), http.StatusInternalServerError},
		{domain.ErrDecryptionFailed, http.StatusInternalServerError},
		{domain.NewDatabaseError("db", nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestError_Body(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "domain error",
			err:  domain.NewUpstreamRejected("Your card was declined", errors.New("card_declined")),
			want: `{"detail":"Your card was declined","code":"UPSTREAM_REJECTED"}`,
		},
		{
			name: "plain error is not exposed",
			err:  errors.New("pq: password authentication failed"),
			want: `{"detail":"internal server error","code":"INTERNAL_ERROR"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			Error(c, tt.err)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.True(t, c.IsAborted())
		})
	}
}
