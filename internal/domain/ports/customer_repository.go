package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain"
)

// CustomerRepository persists customer token rows.
type CustomerRepository interface {
	// Upsert inserts or replaces stripe_customer_id and encrypted_token for
	// customer.UserID as one atomic write, filling ID and CreatedAt.
	Upsert(ctx context.Context, db DBTX, customer *domain.Customer) error
	FindByUserID(ctx context.Context, db DBTX, userID string) (*domain.Customer, error)
}
