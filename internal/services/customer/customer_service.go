package customer

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	svcports "github.com/kevin07696/payment-intents/internal/services/ports"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
	"go.uber.org/zap"
)

// customerService implements the CustomerService port
type customerService struct {
	txManager ports.TransactionManager
	customers ports.CustomerRepository
	cipher    ports.TokenCipher
	timeouts  *resilience.TimeoutConfig
	logger    *zap.Logger
}

// NewCustomerService creates a new customer token vault service
func NewCustomerService(
	txManager ports.TransactionManager,
	customers ports.CustomerRepository,
	cipher ports.TokenCipher,
	timeouts *resilience.TimeoutConfig,
	logger *zap.Logger,
) svcports.CustomerService {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &customerService{
		txManager: txManager,
		customers: customers,
		cipher:    cipher,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// UpsertCustomer seals the processor customer id and stores it for the user
func (s *customerService) UpsertCustomer(ctx context.Context, userID, stripeCustomerID string) (*domain.CustomerRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.WrapError(domain.ErrorCodeValidationMissingField, "user_id is required", nil)
	}
	if strings.TrimSpace(stripeCustomerID) == "" {
		return nil, domain.WrapError(domain.ErrorCodeValidationMissingField, "stripe_customer_id is required", nil)
	}

	sealed, err := s.cipher.Encrypt(stripeCustomerID)
	if err != nil {
		s.logger.Error("Failed to encrypt customer token", zap.String("user_id", userID), zap.Error(err))
		observability.RecordVaultOperation("upsert", "error")
		return nil, domain.WrapError(domain.ErrorCodeInternalError, "Failed to store customer", err)
	}

	customer := &domain.Customer{
		UserID:           userID,
		StripeCustomerID: stripeCustomerID,
		EncryptedToken:   sealed,
	}

	ctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	err = s.txManager.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.customers.Upsert(ctx, tx, customer)
	})
	if err != nil {
		s.logger.Error("Failed to upsert customer", zap.String("user_id", userID), zap.Error(err))
		observability.RecordVaultOperation("upsert", "error")
		return nil, domain.NewDatabaseError("Failed to store customer", err)
	}

	s.logger.Info("Customer token stored", zap.String("user_id", userID), zap.Int64("customer_id", customer.ID))
	observability.RecordVaultOperation("upsert", "ok")

	return &domain.CustomerRecord{
		UserID:           customer.UserID,
		StripeCustomerID: customer.StripeCustomerID,
		DecryptedToken:   stripeCustomerID,
		CreatedAt:        customer.CreatedAt,
	}, nil
}

// GetCustomer loads the user's mapping and opens the sealed token
func (s *customerService) GetCustomer(ctx context.Context, userID string) (*domain.CustomerRecord, error) {
	ctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	customer, err := s.customers.FindByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			observability.RecordVaultOperation("get", "not_found")
			return nil, domain.ErrCustomerNotFound
		}
		s.logger.Error("Failed to get customer", zap.String("user_id", userID), zap.Error(err))
		observability.RecordVaultOperation("get", "error")
		return nil, domain.NewDatabaseError("Failed to look up customer", err)
	}

	token, err := s.cipher.Decrypt(customer.EncryptedToken)
	if err != nil {
		s.logger.Warn("Stored customer token could not be decrypted",
			zap.String("user_id", userID),
			zap.Int64("customer_id", customer.ID),
			zap.Error(err),
		)
		observability.RecordVaultOperation("get", "decrypt_failed")
		return nil, domain.WrapError(domain.ErrorCodeDecryptionFailed, domain.ErrDecryptionFailed.Message, err)
	}

	observability.RecordVaultOperation("get", "ok")
	return &domain.CustomerRecord{
		UserID:           customer.UserID,
		StripeCustomerID: customer.StripeCustomerID,
		DecryptedToken:   token,
		CreatedAt:        customer.CreatedAt,
	}, nil
}
