// Package mocks provides shared mock implementations for testing.
package mocks

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockTransactionManager runs fn with a nil transaction.
type MockTransactionManager struct{}

func (MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// MockPaymentRepository mocks ports.PaymentRepository.
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, db ports.DBTX, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, db, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*domain.Payment, error) {
	args := m.Called(ctx, db, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByProcessorID(ctx context.Context, db ports.DBTX, stripePaymentID string) (*domain.Payment, error) {
	args := m.Called(ctx, db, stripePaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentRepository) Insert(ctx context.Context, db ports.DBTX, payment *domain.Payment) error {
	args := m.Called(ctx, db, payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) Update(ctx context.Context, db ports.DBTX, payment *domain.Payment) error {
	args := m.Called(ctx, db, payment)
	return args.Error(0)
}

// MockCustomerRepository mocks ports.CustomerRepository.
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Upsert(ctx context.Context, db ports.DBTX, customer *domain.Customer) error {
	args := m.Called(ctx, db, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByUserID(ctx context.Context, db ports.DBTX, userID string) (*domain.Customer, error) {
	args := m.Called(ctx, db, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Customer), args.Error(1)
}
