package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Processor Errors (UPSTREAM_*)
	ErrorCodeUpstreamRejected    ErrorCode = "UPSTREAM_REJECTED"
	ErrorCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	// Idempotency Errors
	ErrorCodeDuplicateRequest ErrorCode = "DUPLICATE_REQUEST"

	// Lookup Errors (*_NOT_FOUND)
	ErrorCodePaymentNotFound  ErrorCode = "PAYMENT_NOT_FOUND"
	ErrorCodeCustomerNotFound ErrorCode = "CUSTOMER_NOT_FOUND"

	// Vault Errors
	ErrorCodeDecryptionFailed ErrorCode = "DECRYPTION_FAILED"

	// Validation Errors (VALIDATION_*)
	ErrorCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationAmountInvalid ErrorCode = "VALIDATION_AMOUNT_INVALID"
	ErrorCodeValidationMissingField  ErrorCode = "VALIDATION_MISSING_FIELD"

	// Internal Errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorMessage returns the client-facing message of a DomainError, or fallback.
func GetErrorMessage(err error, fallback string) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return fallback
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodePaymentNotFound ||
		code == ErrorCodeCustomerNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeValidationFailed ||
		code == ErrorCodeValidationAmountInvalid ||
		code == ErrorCodeValidationMissingField
}

// IsUpstreamError checks if an error originated at the payment processor
func IsUpstreamError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeUpstreamRejected ||
		code == ErrorCodeUpstreamUnavailable
}

// Store sentinels. Repositories wrap these with %w; services translate them
// into coded DomainErrors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// Constructors for errors that carry request-specific context.

// NewUpstreamRejected wraps a processor rejection, keeping its user-facing message.
func NewUpstreamRejected(message string, err error) *DomainError {
	if message == "" {
		message = "payment processor rejected the request"
	}
	return WrapError(ErrorCodeUpstreamRejected, message, err)
}

// NewUpstreamUnavailable wraps a transport, timeout or unclassified processor failure.
func NewUpstreamUnavailable(message string, err error) *DomainError {
	return WrapError(ErrorCodeUpstreamUnavailable, message, err)
}

// NewDuplicateRequest reports a uniqueness conflict that could not be resolved to a winner.
func NewDuplicateRequest(message string, err error) *DomainError {
	return WrapError(ErrorCodeDuplicateRequest, message, err)
}

// NewDatabaseError wraps a store failure that is not a uniqueness conflict.
func NewDatabaseError(message string, err error) *DomainError {
	return WrapError(ErrorCodeDatabaseError, message, err)
}

// Structured error instances
var (
	ErrPaymentNotFound  = NewDomainError(ErrorCodePaymentNotFound, "Payment not found")
	ErrCustomerNotFound = NewDomainError(ErrorCodeCustomerNotFound, "Customer not found")
	ErrDecryptionFailed = NewDomainError(ErrorCodeDecryptionFailed, "Failed to decrypt customer token")

	ErrValidationFailed        = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationAmountInvalid = NewDomainError(ErrorCodeValidationAmountInvalid, "amount must be greater than zero")
	ErrValidationMissingField  = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
)
