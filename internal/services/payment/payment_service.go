package payment

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
)

const (
	opCreate  = "create"
	opConfirm = "confirm"
)

// Client-facing messages
const (
	msgCreateFailed       = "Failed to create payment intent"
	msgConfirmFailed      = "Failed to confirm payment"
	msgDuplicateCreate    = "Duplicate payment request"
	msgDuplicateConfirm   = "Duplicate payment confirmation"
	msgPersistFailed      = "Failed to record payment"
	msgLookupFailed       = "Failed to look up payment"
	msgUserIDRequired     = "user_id is required"
	msgIntentIDRequired   = "payment_intent_id is required"
	msgCurrencyNotAllowed = "currency must be a three-letter ISO code"
)

// Service reconciles processor payment intents with the local payment ledger.
//
// The service holds no in-process locks. Concurrent writers for the same
// idempotency key or intent are serialized by the store's unique indexes; the
// loser re-reads the winner's row. No store transaction is held open across a
// processor call.
type Service struct {
	txManager ports.TransactionManager
	payments  ports.PaymentRepository
	gateway   ports.ProcessorGateway
	timeouts  *resilience.TimeoutConfig
	logger    ports.Logger
}

var _ svcports.PaymentService = (*Service)(nil)

// NewService creates a new payment reconciliation service
func NewService(
	txManager ports.TransactionManager,
	payments ports.PaymentRepository,
	gateway ports.ProcessorGateway,
	timeouts *resilience.TimeoutConfig,
	logger ports.Logger,
) *Service {
	if timeouts == nil {
		timeouts = resilience.DefaultTimeoutConfig()
	}
	return &Service{
		txManager: txManager,
		payments:  payments,
		gateway:   gateway,
		timeouts:  timeouts,
		logger:    logger,
	}
}

// CreatePayment creates a processor intent for the request and records it.
func (s *Service) CreatePayment(ctx context.Context, req *svcports.CreatePaymentRequest) (*svcports.CreatePaymentResult, error) {
	currency, err := validateCreate(req)
	if err != nil {
		return nil, err
	}
	key := req.IdempotencyKey

	// Replay
	if key != "" {
		existing, err := s.lookupByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("returning existing payment for idempotency key",
				ports.String("idempotency_key", key),
				ports.Int64("payment_id", existing.ID))
			observability.RecordReconciliation(opCreate, observability.OutcomeReplayed)
			return createResult(existing, existing.ClientSecretValue()), nil
		}
	}

	intent, err := s.gateway.CreateIntent(ctx, ports.CreateIntentParams{
		UserID:         req.UserID,
		Currency:       currency,
		IdempotencyKey: key,
		Amount:         req.Amount,
	})
	if err != nil {
		return nil, s.gatewayFailure(opCreate, msgCreateFailed, err)
	}

	payment := &domain.Payment{
		UserID:          req.UserID,
		Amount:          req.Amount,
		Currency:        currency,
		Status:          domain.PaymentStatus(intent.Status),
		StripePaymentID: intent.ID,
		ClientSecret:    domain.StringPtr(intent.ClientSecret),
		IdempotencyKey:  domain.StringPtr(key),
	}

	// The intent exists at the processor now; record it even if the caller has gone away.
	pctx, cancel := s.timeouts.PersistContext(ctx)
	defer cancel()

	err = s.txManager.WithTransaction(pctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.payments.Insert(ctx, tx, payment)
	})
	if err != nil {
		if !errors.Is(err, domain.ErrUniqueViolation) {
			s.logger.Error("failed to record payment intent",
				ports.String("stripe_payment_id", intent.ID),
				ports.Err(err))
			observability.RecordReconciliation(opCreate, observability.OutcomeStoreError)
			return nil, domain.NewDatabaseError(msgPersistFailed, err)
		}

		winner, lookupErr := s.resolveConflict(pctx, key, "")
		if lookupErr != nil {
			return nil, lookupErr
		}
		if winner == nil {
			s.logger.Warn("duplicate payment request without a recorded winner",
				ports.String("stripe_payment_id", intent.ID),
				ports.String("idempotency_key", key))
			observability.RecordReconciliation(opCreate, observability.OutcomeDuplicate)
			return nil, domain.NewDuplicateRequest(msgDuplicateCreate, err)
		}

		s.logger.Info("concurrent create resolved to existing payment",
			ports.Int64("payment_id", winner.ID),
			ports.String("idempotency_key", key))
		observability.RecordReconciliation(opCreate, observability.OutcomeRaceResolved)
		return createResult(winner, intent.ClientSecret), nil
	}

	s.logger.Info("payment intent created",
		ports.Int64("payment_id", payment.ID),
		ports.String("stripe_payment_id", payment.StripePaymentID),
		ports.String("status", string(payment.Status)),
		ports.String("amount", payment.MajorAmount().StringFixed(2)),
		ports.String("currency", payment.Currency))
	observability.RecordReconciliation(opCreate, observability.OutcomeCreated)
	observability.RecordPaymentRecorded(payment.Currency, payment.MajorAmount(), string(payment.Status))

	return createResult(payment, intent.ClientSecret), nil
}

// ConfirmPayment confirms the intent with the processor and reconciles the
// local row with the processor's answer.
func (s *Service) ConfirmPayment(ctx context.Context, req *svcports.ConfirmPaymentRequest) (*domain.Payment, error) {
	if req == nil || strings.TrimSpace(req.PaymentIntentID) == "" {
		return nil, domain.WrapError(domain.ErrorCodeValidationMissingField, msgIntentIDRequired, nil)
	}
	intentID := req.PaymentIntentID
	key := req.IdempotencyKey

	// Replay. A row recorded under the key by CreatePayment for this same
	// intent that has not been confirmed yet is confirmed instead.
	var candidate *domain.Payment
	if key != "" {
		existing, err := s.lookupByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if existing.StripePaymentID != intentID || !existing.Status.AwaitsConfirmation() {
				s.logger.Info("returning existing confirmation for idempotency key",
					ports.String("idempotency_key", key),
					ports.Int64("payment_id", existing.ID))
				observability.RecordReconciliation(opConfirm, observability.OutcomeReplayed)
				return existing, nil
			}
			candidate = existing
		}
	}

	if candidate == nil {
		var err error
		candidate, err = s.lookupByIntent(ctx, intentID)
		if err != nil {
			return nil, err
		}
	}

	intent, err := s.gateway.ConfirmIntent(ctx, ports.ConfirmIntentParams{
		IntentID:       intentID,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, s.gatewayFailure(opConfirm, msgConfirmFailed, err)
	}
	status := domain.PaymentStatus(intent.Status)

	pctx, cancel := s.timeouts.PersistContext(ctx)
	defer cancel()

	var (
		payment *domain.Payment
		outcome string
	)
	if candidate != nil {
		candidate.Backfill(status, intent.Amount, strings.ToLower(intent.Currency), intent.ClientSecret, key)
		payment, outcome = candidate, observability.OutcomeUpdated
		err = s.txManager.WithTransaction(pctx, func(ctx context.Context, tx pgx.Tx) error {
			return s.payments.Update(ctx, tx, payment)
		})
	} else {
		payment = &domain.Payment{
			UserID:          intent.Metadata[domain.MetadataUserIDKey],
			Amount:          intent.Amount,
			Currency:        strings.ToLower(intent.Currency),
			Status:          status,
			StripePaymentID: intent.ID,
			ClientSecret:    domain.StringPtr(intent.ClientSecret),
			IdempotencyKey:  domain.StringPtr(key),
		}
		outcome = observability.OutcomeSynthesized
		err = s.txManager.WithTransaction(pctx, func(ctx context.Context, tx pgx.Tx) error {
			return s.payments.Insert(ctx, tx, payment)
		})
	}

	if err != nil {
		if !errors.Is(err, domain.ErrUniqueViolation) {
			s.logger.Error("failed to record payment confirmation",
				ports.String("stripe_payment_id", intent.ID),
				ports.Err(err))
			observability.RecordReconciliation(opConfirm, observability.OutcomeStoreError)
			return nil, domain.NewDatabaseError(msgPersistFailed, err)
		}

		// With no key the conflicting writer raced on stripe_payment_id.
		winner, lookupErr := s.resolveConflict(pctx, key, intent.ID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if winner == nil {
			s.logger.Warn("duplicate payment confirmation without a recorded winner",
				ports.String("stripe_payment_id", intent.ID),
				ports.String("idempotency_key", key))
			observability.RecordReconciliation(opConfirm, observability.OutcomeDuplicate)
			return nil, domain.NewDuplicateRequest(msgDuplicateConfirm, err)
		}

		s.logger.Info("concurrent confirmation resolved to existing payment",
			ports.Int64("payment_id", winner.ID),
			ports.String("stripe_payment_id", intent.ID))
		observability.RecordReconciliation(opConfirm, observability.OutcomeRaceResolved)
		return winner, nil
	}

	s.logger.Info("payment confirmed",
		ports.Int64("payment_id", payment.ID),
		ports.String("stripe_payment_id", payment.StripePaymentID),
		ports.String("status", string(payment.Status)),
		ports.Bool("terminal", payment.Status.IsTerminal()),
		ports.String("outcome", outcome))
	observability.RecordReconciliation(opConfirm, outcome)
	if outcome == observability.OutcomeSynthesized {
		observability.RecordPaymentRecorded(payment.Currency, payment.MajorAmount(), string(payment.Status))
	} else {
		observability.RecordPaymentStatus(string(payment.Status))
	}

	return payment, nil
}

// GetPayment retrieves a payment by id
func (s *Service) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	qctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	payment, err := s.payments.FindByID(qctx, nil, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		s.logger.Error("failed to get payment", ports.Int64("payment_id", id), ports.Err(err))
		return nil, domain.NewDatabaseError(msgLookupFailed, err)
	}
	return payment, nil
}

// lookupByKey returns nil, nil when no payment carries key
func (s *Service) lookupByKey(ctx context.Context, key string) (*domain.Payment, error) {
	qctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	payment, err := s.payments.FindByIdempotencyKey(qctx, nil, key)
	return s.optional(payment, err)
}

// lookupByIntent returns nil, nil when the intent has no local row yet
func (s *Service) lookupByIntent(ctx context.Context, intentID string) (*domain.Payment, error) {
	qctx, cancel := s.timeouts.QueryContext(ctx)
	defer cancel()

	payment, err := s.payments.FindByProcessorID(qctx, nil, intentID)
	return s.optional(payment, err)
}

// resolveConflict re-reads the row that won a uniqueness race. The key is
// preferred; intentID is used only when no key was supplied.
func (s *Service) resolveConflict(ctx context.Context, key, intentID string) (*domain.Payment, error) {
	switch {
	case key != "":
		return s.lookupByKey(ctx, key)
	case intentID != "":
		return s.lookupByIntent(ctx, intentID)
	default:
		return nil, nil
	}
}

func (s *Service) optional(payment *domain.Payment, err error) (*domain.Payment, error) {
	if err == nil {
		return payment, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	s.logger.Error("payment lookup failed", ports.Err(err))
	return nil, domain.NewDatabaseError(msgLookupFailed, err)
}

// gatewayFailure maps a processor failure onto the upstream error codes.
// Only errors the processor classified itself count as rejections.
func (s *Service) gatewayFailure(op, fallback string, err error) error {
	var procErr *ports.ProcessorError
	if errors.As(err, &procErr) {
		s.logger.Warn("payment processor rejected request",
			ports.String("operation", op),
			ports.String("code", procErr.Code),
			ports.String("decline_code", procErr.DeclineCode),
			ports.Int("http_status", procErr.HTTPStatus))
		observability.RecordReconciliation(op, observability.OutcomeUpstreamRejected)
		return domain.NewUpstreamRejected(procErr.Message, err)
	}

	s.logger.Error("payment processor unavailable",
		ports.String("operation", op),
		ports.Err(err))
	observability.RecordReconciliation(op, observability.OutcomeUpstreamUnavailable)
	return domain.NewUpstreamUnavailable(fallback, err)
}

func validateCreate(req *svcports.CreatePaymentRequest) (string, error) {
	if req == nil || strings.TrimSpace(req.UserID) == "" {
		return "", domain.WrapError(domain.ErrorCodeValidationMissingField, msgUserIDRequired, nil)
	}
	if req.Amount <= 0 {
		return "", domain.ErrValidationAmountInvalid
	}
	currency := domain.NormalizeCurrency(req.Currency)
	if !isCurrencyCode(currency) {
		return "", domain.WrapError(domain.ErrorCodeValidationFailed, msgCurrencyNotAllowed, nil)
	}
	return currency, nil
}

func isCurrencyCode(currency string) bool {
	if len(currency) != 3 {
		return false
	}
	for _, r := range currency {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func createResult(p *domain.Payment, clientSecret string) *svcports.CreatePaymentResult {
	return &svcports.CreatePaymentResult{
		PaymentID:    p.ID,
		ClientSecret: clientSecret,
		Status:       p.Status,
	}
}
