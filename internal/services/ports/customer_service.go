package ports

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain"
)

// CustomerService defines the port for the customer token vault
type CustomerService interface {
	// UpsertCustomer seals stripeCustomerID and stores it for userID,
	// replacing any previous mapping.
	UpsertCustomer(ctx context.Context, userID, stripeCustomerID string) (*domain.CustomerRecord, error)

	// GetCustomer returns the stored mapping with the token opened
	GetCustomer(ctx context.Context, userID string) (*domain.CustomerRecord, error)
}
