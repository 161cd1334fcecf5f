// Package response writes JSON error bodies and maps domain errors to HTTP status codes.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kevin07696/payment-intents/internal/domain"
)

// ErrorBody is the JSON body of every error response
type ErrorBody struct {
	Detail string           `json:"detail"`
	Code   domain.ErrorCode `json:"code"`
}

const internalErrorMessage = "internal server error"

// StatusFor maps an error to its HTTP status code
func StatusFor(err error) int {
	switch domain.GetErrorCode(err) {
	case domain.ErrorCodeUpstreamRejected,
		domain.ErrorCodeValidationFailed,
		domain.ErrorCodeValidationAmountInvalid,
		domain.ErrorCodeValidationMissingField:
		return http.StatusBadRequest
	case domain.ErrorCodeDuplicateRequest:
		return http.StatusConflict
	case domain.ErrorCodePaymentNotFound, domain.ErrorCodeCustomerNotFound:
		return http.StatusNotFound
	default:
		// UPSTREAM_UNAVAILABLE, DECRYPTION_FAILED and internal failures
		return http.StatusInternalServerError
	}
}

// Error writes err as an ErrorBody. Errors that are not domain errors are
// reported as INTERNAL_ERROR without exposing their text.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)

	code := domain.GetErrorCode(err)
	detail := domain.GetErrorMessage(err, internalErrorMessage)
	if code == "" {
		code = domain.ErrorCodeInternalError
		detail = internalErrorMessage
	}

	c.AbortWithStatusJSON(StatusFor(err), ErrorBody{Detail: detail, Code: code})
}

// BadRequest writes a VALIDATION_FAILED error with the given detail
func BadRequest(c *gin.Context, detail string) {
	Error(c, domain.WrapError(domain.ErrorCodeValidationFailed, detail, nil))
}
