package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain"
)

// PaymentRepository persists payment ledger rows.
//
// Finders return domain.ErrNotFound (wrapped) when nothing matches. Insert
// and Update return domain.ErrUniqueViolation (wrapped) when a row with the
// same stripe_payment_id or idempotency_key already exists. A nil db uses the
// repository's own connection.
type PaymentRepository interface {
	FindByID(ctx context.Context, db DBTX, id int64) (*domain.Payment, error)
	FindByIdempotencyKey(ctx context.Context, db DBTX, key string) (*domain.Payment, error)
	FindByProcessorID(ctx context.Context, db DBTX, stripePaymentID string) (*domain.Payment, error)
	// Insert assigns ID, CreatedAt and UpdatedAt on success.
	Insert(ctx context.Context, db DBTX, payment *domain.Payment) error
	// Update overwrites status. Idempotency key, amount, currency and client
	// secret are written only where the stored row has none, in the same
	// statement. payment is replaced with the row as stored.
	Update(ctx context.Context, db DBTX, payment *domain.Payment) error
}
