// Package fixtures provides test data builders for payments and processor intents.
package fixtures

import (
	"time"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// PaymentBuilder provides fluent API for building test payments.
type PaymentBuilder struct {
	payment *domain.Payment
}

// NewPayment creates a payment builder with sensible defaults ($10.00 usd).
func NewPayment() *PaymentBuilder {
	now := time.Now().UTC()
	return &PaymentBuilder{
		payment: &domain.Payment{
			UserID:          "user_123",
			Amount:          1000,
			Currency:        "usd",
			Status:          domain.PaymentStatusRequiresPaymentMethod,
			StripePaymentID: "pi_test_123",
			ClientSecret:    domain.StringPtr("pi_test_123_secret_abc"),
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}
}

func (b *PaymentBuilder) WithID(id int64) *PaymentBuilder {
	b.payment.ID = id
	return b
}

func (b *PaymentBuilder) WithUserID(userID string) *PaymentBuilder {
	b.payment.UserID = userID
	return b
}

func (b *PaymentBuilder) WithAmount(amount int64, currency string) *PaymentBuilder {
	b.payment.Amount = amount
	b.payment.Currency = currency
	return b
}

func (b *PaymentBuilder) WithStatus(status domain.PaymentStatus) *PaymentBuilder {
	b.payment.Status = status
	return b
}

func (b *PaymentBuilder) WithIntentID(intentID string) *PaymentBuilder {
	b.payment.StripePaymentID = intentID
	return b
}

func (b *PaymentBuilder) WithClientSecret(secret string) *PaymentBuilder {
	b.payment.ClientSecret = domain.StringPtr(secret)
	return b
}

func (b *PaymentBuilder) WithIdempotencyKey(key string) *PaymentBuilder {
	b.payment.IdempotencyKey = domain.StringPtr(key)
	return b
}

func (b *PaymentBuilder) Build() *domain.Payment {
	return b.payment
}

// NewIntent returns a processor intent snapshot with the given id and status.
func NewIntent(id, status string) *ports.Intent {
	return &ports.Intent{
		ID:           id,
		Status:       status,
		ClientSecret: id + "_secret_abc",
		Amount:       1000,
		Currency:     "usd",
		Metadata:     map[string]string{domain.MetadataUserIDKey: "user_123"},
	}
}
