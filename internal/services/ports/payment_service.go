package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain"
)

// CreatePaymentRequest contains parameters for creating a payment intent
type CreatePaymentRequest struct {
	UserID         string
	Currency       string // defaults to usd
	IdempotencyKey string // optional
	Amount         int64  // minor units
}

// CreatePaymentResult is what the caller needs to complete the payment client side
type CreatePaymentResult struct {
	ClientSecret string
	Status       domain.PaymentStatus
	PaymentID    int64
}

// ConfirmPaymentRequest identifies the intent to confirm
type ConfirmPaymentRequest struct {
	PaymentIntentID string
	IdempotencyKey  string // optional
}

// PaymentService defines the port for payment reconciliation
type PaymentService interface {
	// CreatePayment creates a processor intent and records it, replaying
	// the recorded result when the idempotency key was seen before.
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*CreatePaymentResult, error)

	// ConfirmPayment confirms an intent and reconciles the local row with
	// the processor's answer, creating the row if none exists.
	ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*domain.Payment, error)

	// GetPayment retrieves a payment by its local id
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
}
