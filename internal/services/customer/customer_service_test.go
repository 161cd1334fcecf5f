package customer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/payment-intents/internal/adapters/memory"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/services/customer"
	svcports "github.com/kevin07696/payment-intents/internal/services/ports"
	"github.com/kevin07696/payment-intents/internal/testutil/mocks"
	"github.com/kevin07696/payment-intents/pkg/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testKey = "gR2S4YVd_FqjUKPTy3lNMHvrYb2n0V5xsV6pQNwbabE="

func newTestService(t *testing.T) (svcports.CustomerService, *memory.Store) {
	cipher, err := crypto.NewTokenCipher(testKey)
	require.NoError(t, err)
	store := memory.NewStore()
	return customer.NewCustomerService(store, store, cipher, nil, zaptest.NewLogger(t)), store
}

func TestUpsertCustomer_RoundTrip(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.UpsertCustomer(ctx, "user_1", "cus_123")
	require.NoError(t, err)
	assert.Equal(t, "user_1", rec.UserID)
	assert.Equal(t, "cus_123", rec.StripeCustomerID)
	assert.Equal(t, "cus_123", rec.DecryptedToken)
	assert.False(t, rec.CreatedAt.IsZero())

	stored, err := store.FindByUserID(ctx, nil, "user_1")
	require.NoError(t, err)
	assert.NotEqual(t, "cus_123", stored.EncryptedToken)

	got, err := svc.GetCustomer(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", got.DecryptedToken)
}

func TestUpsertCustomer_ReplacesToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	first, err := svc.UpsertCustomer(ctx, "user_1", "cus_old")
	require.NoError(t, err)
	_, err = svc.UpsertCustomer(ctx, "user_1", "cus_new")
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", got.StripeCustomerID)
	assert.Equal(t, "cus_new", got.DecryptedToken)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)

	stored, err := store.FindByUserID(ctx, nil, "user_1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.ID)
}

func TestUpsertCustomer_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.UpsertCustomer(context.Background(), "", "cus_1")
	assert.Equal(t, domain.ErrorCodeValidationMissingField, domain.GetErrorCode(err))

	_, err = svc.UpsertCustomer(context.Background(), "user_1", " ")
	assert.Equal(t, domain.ErrorCodeValidationMissingField, domain.GetErrorCode(err))
}

func TestGetCustomer_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetCustomer(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeCustomerNotFound, domain.GetErrorCode(err))
	assert.Equal(t, "Customer not found", domain.GetErrorMessage(err, ""))
}

func TestGetCustomer_UndecryptableToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, nil, &domain.Customer{
		UserID:           "user_1",
		StripeCustomerID: "cus_1",
		EncryptedToken:   "plain-text-not-a-token",
	}))

	_, err := svc.GetCustomer(ctx, "user_1")
	require.Error(t, err)
	assert.Equal(t, domain.ErrorCodeDecryptionFailed, domain.GetErrorCode(err))
	assert.ErrorIs(t, err, crypto.ErrInvalidToken)
}

func TestGetCustomer_AfterKeyRotation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	oldCipher, err := crypto.NewTokenCipher(testKey)
	require.NoError(t, err)
	oldSvc := customer.NewCustomerService(store, store, oldCipher, nil, zaptest.NewLogger(t))
	_, err = oldSvc.UpsertCustomer(ctx, "user_1", "cus_1")
	require.NoError(t, err)

	newKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	rotated, err := crypto.NewTokenCipher(newKey, testKey)
	require.NoError(t, err)
	svc := customer.NewCustomerService(store, store, rotated, nil, zaptest.NewLogger(t))

	got, err := svc.GetCustomer(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_1", got.DecryptedToken)
}

func TestCustomerService_StoreFailures(t *testing.T) {
	cipher, err := crypto.NewTokenCipher(testKey)
	require.NoError(t, err)
	repo := new(mocks.MockCustomerRepository)
	svc := customer.NewCustomerService(mocks.MockTransactionManager{}, repo, cipher, nil, zaptest.NewLogger(t))

	repo.On("Upsert", mock.Anything, nil, mock.Anything).Return(errors.New("connection reset")).Once()
	repo.On("FindByUserID", mock.Anything, nil, "user_1").Return(nil, errors.New("connection reset")).Once()

	_, err = svc.UpsertCustomer(context.Background(), "user_1", "cus_1")
	assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))

	_, err = svc.GetCustomer(context.Background(), "user_1")
	assert.Equal(t, domain.ErrorCodeDatabaseError, domain.GetErrorCode(err))
	repo.AssertExpectations(t)
}
