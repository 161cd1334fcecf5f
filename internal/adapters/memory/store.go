// Package memory provides a process-local store with the same uniqueness
// guarantees as the PostgreSQL schema. It backs STORE_DRIVER=memory and tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// Store keeps payments and customers in maps guarded by one mutex.
type Store struct {
	now func() time.Time

	payments      map[int64]*domain.Payment
	byKey         map[string]int64
	byIntent      map[string]int64
	customers     map[string]*domain.Customer
	mu            sync.RWMutex
	nextPaymentID int64
	nextCustID    int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:       time.Now,
		payments:  make(map[int64]*domain.Payment),
		byKey:     make(map[string]int64),
		byIntent:  make(map[string]int64),
		customers: make(map[string]*domain.Customer),
	}
}

// WithTransaction runs fn with a nil tx. Each write is atomic on its own.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error {
	return fn(ctx, nil)
}

// Ping always succeeds
func (s *Store) Ping(context.Context) error {
	return nil
}

// FindByID retrieves a payment by its surrogate id
func (s *Store) FindByID(_ context.Context, _ ports.DBTX, id int64) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("get payment by id: %w", domain.ErrNotFound)
	}
	return clonePayment(p), nil
}

// FindByIdempotencyKey retrieves a payment by its idempotency key
func (s *Store) FindByIdempotencyKey(_ context.Context, _ ports.DBTX, key string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[key]
	if !ok {
		return nil, fmt.Errorf("get payment by idempotency key: %w", domain.ErrNotFound)
	}
	return clonePayment(s.payments[id]), nil
}

// FindByProcessorID retrieves a payment by the processor's intent id
func (s *Store) FindByProcessorID(_ context.Context, _ ports.DBTX, stripePaymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byIntent[stripePaymentID]
	if !ok {
		return nil, fmt.Errorf("get payment by stripe payment id: %w", domain.ErrNotFound)
	}
	return clonePayment(s.payments[id]), nil
}

// Insert creates a payment, rejecting duplicate intent ids and keys
func (s *Store) Insert(_ context.Context, _ ports.DBTX, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byIntent[payment.StripePaymentID]; ok {
		return fmt.Errorf("insert payment: stripe_payment_id %q: %w", payment.StripePaymentID, domain.ErrUniqueViolation)
	}
	if payment.HasIdempotencyKey() {
		if _, ok := s.byKey[*payment.IdempotencyKey]; ok {
			return fmt.Errorf("insert payment: idempotency_key %q: %w", *payment.IdempotencyKey, domain.ErrUniqueViolation)
		}
	}

	s.nextPaymentID++
	now := s.now().UTC()
	payment.ID = s.nextPaymentID
	payment.CreatedAt = now
	payment.UpdatedAt = now

	stored := clonePayment(payment)
	s.payments[stored.ID] = stored
	s.byIntent[stored.StripePaymentID] = stored.ID
	if stored.HasIdempotencyKey() {
		s.byKey[*stored.IdempotencyKey] = stored.ID
	}
	return nil
}

// Update overwrites status and back-fills the remaining columns only where
// the stored row has none. payment is replaced with the stored row.
func (s *Store) Update(_ context.Context, _ ports.DBTX, payment *domain.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.payments[payment.ID]
	if !ok {
		return fmt.Errorf("update payment: %w", domain.ErrNotFound)
	}

	updated := clonePayment(current)
	updated.Status = payment.Status
	if !current.HasIdempotencyKey() && payment.HasIdempotencyKey() {
		key := *payment.IdempotencyKey
		if _, taken := s.byKey[key]; taken {
			return fmt.Errorf("update payment: idempotency_key %q: %w", key, domain.ErrUniqueViolation)
		}
		updated.IdempotencyKey = domain.StringPtr(key)
		s.byKey[key] = updated.ID
	}
	if updated.Amount == 0 {
		updated.Amount = payment.Amount
	}
	if updated.Currency == "" {
		updated.Currency = payment.Currency
	}
	if updated.ClientSecretValue() == "" && payment.ClientSecretValue() != "" {
		updated.ClientSecret = domain.StringPtr(payment.ClientSecretValue())
	}
	updated.UpdatedAt = s.now().UTC()

	s.payments[updated.ID] = updated
	*payment = *clonePayment(updated)
	return nil
}

// Upsert inserts or replaces the customer's token columns
func (s *Store) Upsert(_ context.Context, _ ports.DBTX, customer *domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.customers[customer.UserID]; ok {
		existing.StripeCustomerID = customer.StripeCustomerID
		existing.EncryptedToken = customer.EncryptedToken
		customer.ID = existing.ID
		customer.CreatedAt = existing.CreatedAt
		return nil
	}

	s.nextCustID++
	customer.ID = s.nextCustID
	customer.CreatedAt = s.now().UTC()
	stored := *customer
	s.customers[customer.UserID] = &stored
	return nil
}

// FindByUserID retrieves a customer by application user id
func (s *Store) FindByUserID(_ context.Context, _ ports.DBTX, userID string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[userID]
	if !ok {
		return nil, fmt.Errorf("get customer by user id: %w", domain.ErrNotFound)
	}
	out := *c
	return &out, nil
}

// CountPayments returns the number of stored payment rows
func (s *Store) CountPayments() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.payments)
}

func clonePayment(p *domain.Payment) *domain.Payment {
	out := *p
	if p.ClientSecret != nil {
		v := *p.ClientSecret
		out.ClientSecret = &v
	}
	if p.IdempotencyKey != nil {
		v := *p.IdempotencyKey
		out.IdempotencyKey = &v
	}
	return &out
}

var (
	_ ports.PaymentRepository  = (*Store)(nil)
	_ ports.CustomerRepository = (*Store)(nil)
	_ ports.TransactionManager = (*Store)(nil)
)
