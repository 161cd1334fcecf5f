package mocks

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain"
	svcports "github.com/kevin07696/payment-intents/internal/services/ports"
	"github.com/stretchr/testify/mock"
)

// MockPaymentService mocks the payment service port for handler tests.
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreatePayment(ctx context.Context, req *svcports.CreatePaymentRequest) (*svcports.CreatePaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*svcports.CreatePaymentResult), args.Error(1)
}

func (m *MockPaymentService) ConfirmPayment(ctx context.Context, req *svcports.ConfirmPaymentRequest) (*domain.Payment, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *MockPaymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

// MockCustomerService mocks the customer service port for handler tests.
type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) UpsertCustomer(ctx context.Context, userID, stripeCustomerID string) (*domain.CustomerRecord, error) {
	args := m.Called(ctx, userID, stripeCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerRecord), args.Error(1)
}

func (m *MockCustomerService) GetCustomer(ctx context.Context, userID string) (*domain.CustomerRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CustomerRecord), args.Error(1)
}
