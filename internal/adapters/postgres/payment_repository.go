package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

const paymentColumns = `id, user_id, amount, currency, status, stripe_payment_id,
	client_secret, idempotency_key, created_at, updated_at`

// PaymentRepository implements ports.PaymentRepository on PostgreSQL
type PaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

func (r *PaymentRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// FindByID retrieves a payment by its surrogate id
func (r *PaymentRepository) FindByID(ctx context.Context, db ports.DBTX, id int64) (*domain.Payment, error) {
	row := r.conn(db).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("get payment by id: %w", err)
	}
	return payment, nil
}

// FindByIdempotencyKey retrieves a payment by its idempotency key
func (r *PaymentRepository) FindByIdempotencyKey(ctx context.Context, db ports.DBTX, key string) (*domain.Payment, error) {
	row := r.conn(db).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("get payment by idempotency key: %w", err)
	}
	return payment, nil
}

// FindByProcessorID retrieves a payment by the processor's intent id
func (r *PaymentRepository) FindByProcessorID(ctx context.Context, db ports.DBTX, stripePaymentID string) (*domain.Payment, error) {
	row := r.conn(db).QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE stripe_payment_id = $1`, stripePaymentID)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, fmt.Errorf("get payment by stripe payment id: %w", err)
	}
	return payment, nil
}

// Insert creates a payment row
func (r *PaymentRepository) Insert(ctx context.Context, db ports.DBTX, payment *domain.Payment) error {
	err := r.conn(db).QueryRow(ctx, `
		INSERT INTO payments (user_id, amount, currency, status, stripe_payment_id, client_secret, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		payment.UserID,
		payment.Amount,
		payment.Currency,
		string(payment.Status),
		payment.StripePaymentID,
		nullText(payment.ClientSecret),
		nullText(payment.IdempotencyKey),
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", classify(err))
	}
	return nil
}

// Update sets status and back-fills the key, amount, currency and client
// secret only where the stored row has none. The stored row is scanned back
// into payment. stripe_payment_id is never part of the SET list.
func (r *PaymentRepository) Update(ctx context.Context, db ports.DBTX, payment *domain.Payment) error {
	row := r.conn(db).QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
			idempotency_key = COALESCE(idempotency_key, $3),
			amount = CASE WHEN amount = 0 THEN $4 ELSE amount END,
			currency = CASE WHEN currency = '' THEN $5 ELSE currency END,
			client_secret = COALESCE(NULLIF(client_secret, ''), $6),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+paymentColumns,
		payment.ID,
		string(payment.Status),
		nullText(payment.IdempotencyKey),
		payment.Amount,
		payment.Currency,
		nullText(payment.ClientSecret),
	)
	stored, err := scanPayment(row)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	*payment = *stored
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		p            domain.Payment
		status       string
		clientSecret pgtype.Text
		key          pgtype.Text
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Amount,
		&p.Currency,
		&status,
		&p.StripePaymentID,
		&clientSecret,
		&key,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	p.Status = domain.PaymentStatus(status)
	p.ClientSecret = textPtr(clientSecret)
	p.IdempotencyKey = textPtr(key)
	return &p, nil
}

var _ ports.PaymentRepository = (*PaymentRepository)(nil)
