// Package stripe adapts the Stripe payment intents API to ports.ProcessorGateway.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	stripeapi "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/kevin07696/payment-intents/pkg/observability"
	"github.com/kevin07696/payment-intents/pkg/resilience"
)

const (
	opCreateIntent  = "create_intent"
	opConfirmIntent = "confirm_intent"
)

// Config contains configuration for the Stripe gateway
type Config struct {
	APIKey string
	// BaseURL overrides the API host, e.g. for stripe-mock or tests
	BaseURL string
	// MaxConcurrency bounds in-flight processor calls
	MaxConcurrency int64
	Breaker        resilience.BreakerConfig
}

// DefaultConfig returns default gateway configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:         apiKey,
		MaxConcurrency: 32,
		Breaker:        resilience.DefaultBreakerConfig(),
	}
}

// Gateway implements ports.ProcessorGateway on top of stripe-go.
//
// Calls acquire a slot from a weighted semaphore, so a slow processor only
// ever ties up MaxConcurrency goroutines. Once a call is dispatched it runs
// on a context detached from the request; only the HTTP client timeout ends it.
type Gateway struct {
	client  *stripeapi.Client
	slots   *semaphore.Weighted
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewGateway creates a Stripe gateway. httpClient carries the call timeout.
func NewGateway(cfg *Config, httpClient *http.Client, logger *zap.Logger) *Gateway {
	backendConfig := &stripeapi.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     logger.Named("stripe").Sugar(),
	}
	if cfg.BaseURL != "" {
		backendConfig.URL = stripeapi.String(cfg.BaseURL)
	}

	breakerCfg := cfg.Breaker
	breakerCfg.IsFailure = func(err error) bool {
		var procErr *ports.ProcessorError
		return !errors.As(err, &procErr)
	}
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		observability.SetProcessorBreakerState(int(to))
		logger.Warn("Processor circuit breaker state changed",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	return &Gateway{
		client:  stripeapi.NewClient(cfg.APIKey, stripeapi.WithBackends(stripeapi.NewBackendsWithConfig(backendConfig))),
		slots:   semaphore.NewWeighted(maxConcurrency),
		breaker: resilience.NewBreaker(breakerCfg),
		logger:  logger,
	}
}

// CreateIntent creates a payment intent tagged with the user id
func (g *Gateway) CreateIntent(ctx context.Context, params ports.CreateIntentParams) (*ports.Intent, error) {
	req := &stripeapi.PaymentIntentCreateParams{
		Amount:   stripeapi.Int64(params.Amount),
		Currency: stripeapi.String(params.Currency),
	}
	req.AddMetadata(domain.MetadataUserIDKey, params.UserID)
	if params.IdempotencyKey != "" {
		req.SetIdempotencyKey(params.IdempotencyKey)
	}

	return g.do(ctx, opCreateIntent, func(callCtx context.Context) (*stripeapi.PaymentIntent, error) {
		return g.client.V1PaymentIntents.Create(callCtx, req)
	})
}

// confirmKeyPrefix scopes confirmation keys so a client may reuse its create key
const confirmKeyPrefix = "confirm:"

// ConfirmIntent confirms an existing payment intent
func (g *Gateway) ConfirmIntent(ctx context.Context, params ports.ConfirmIntentParams) (*ports.Intent, error) {
	req := &stripeapi.PaymentIntentConfirmParams{}
	if params.IdempotencyKey != "" {
		req.SetIdempotencyKey(confirmKeyPrefix + params.IdempotencyKey)
	}

	return g.do(ctx, opConfirmIntent, func(callCtx context.Context) (*stripeapi.PaymentIntent, error) {
		return g.client.V1PaymentIntents.Confirm(callCtx, params.IntentID, req)
	})
}

func (g *Gateway) do(ctx context.Context, op string, call func(context.Context) (*stripeapi.PaymentIntent, error)) (*ports.Intent, error) {
	if err := g.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%s: waiting for processor slot: %w", op, err)
	}
	defer g.slots.Release(1)
	defer observability.ProcessorCallStarted()()

	callCtx := context.WithoutCancel(ctx)
	start := time.Now()

	var pi *stripeapi.PaymentIntent
	err := g.breaker.Call(func() error {
		var callErr error
		pi, callErr = call(callCtx)
		return classifyError(callErr)
	})
	elapsed := time.Since(start)

	if err != nil {
		var procErr *ports.ProcessorError
		if errors.As(err, &procErr) {
			observability.RecordProcessorCall(op, "rejected", elapsed)
			g.logger.Info("Processor rejected request",
				zap.String("operation", op),
				zap.String("type", procErr.Type),
				zap.String("code", procErr.Code),
				zap.String("decline_code", procErr.DeclineCode),
				zap.Int("http_status", procErr.HTTPStatus),
			)
			return nil, err
		}
		observability.RecordProcessorCall(op, "unavailable", elapsed)
		g.logger.Error("Processor call failed",
			zap.String("operation", op),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	observability.RecordProcessorCall(op, "ok", elapsed)
	g.logger.Debug("Processor call succeeded",
		zap.String("operation", op),
		zap.String("intent_id", pi.ID),
		zap.String("status", string(pi.Status)),
		zap.Duration("elapsed", elapsed),
	)
	return toIntent(pi), nil
}

func toIntent(pi *stripeapi.PaymentIntent) *ports.Intent {
	metadata := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		metadata[k] = v
	}
	return &ports.Intent{
		ID:           pi.ID,
		Status:       string(pi.Status),
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     metadata,
	}
}

var _ ports.ProcessorGateway = (*Gateway)(nil)
