package mocks

import (
	"context"

	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/stretchr/testify/mock"
)

// MockProcessorGateway mocks ports.ProcessorGateway.
type MockProcessorGateway struct {
	mock.Mock
}

func (m *MockProcessorGateway) CreateIntent(ctx context.Context, params ports.CreateIntentParams) (*ports.Intent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Intent), args.Error(1)
}

func (m *MockProcessorGateway) ConfirmIntent(ctx context.Context, params ports.ConfirmIntentParams) (*ports.Intent, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Intent), args.Error(1)
}
