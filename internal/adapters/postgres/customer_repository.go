package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kevin07696/payment-intents/internal/domain"
	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// CustomerRepository implements ports.CustomerRepository on PostgreSQL
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) conn(db ports.DBTX) ports.DBTX {
	if db != nil {
		return db
	}
	return r.pool
}

// Upsert replaces both token columns in a single statement
func (r *CustomerRepository) Upsert(ctx context.Context, db ports.DBTX, customer *domain.Customer) error {
	err := r.conn(db).QueryRow(ctx, `
		INSERT INTO customers (user_id, stripe_customer_id, encrypted_token)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET stripe_customer_id = EXCLUDED.stripe_customer_id,
			encrypted_token = EXCLUDED.encrypted_token
		RETURNING id, created_at`,
		customer.UserID,
		customer.StripeCustomerID,
		customer.EncryptedToken,
	).Scan(&customer.ID, &customer.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", classify(err))
	}
	return nil
}

// FindByUserID retrieves a customer by application user id
func (r *CustomerRepository) FindByUserID(ctx context.Context, db ports.DBTX, userID string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.conn(db).QueryRow(ctx, `
		SELECT id, user_id, stripe_customer_id, encrypted_token, created_at
		FROM customers WHERE user_id = $1`, userID,
	).Scan(&c.ID, &c.UserID, &c.StripeCustomerID, &c.EncryptedToken, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get customer by user id: %w", classify(err))
	}
	return &c, nil
}

var _ ports.CustomerRepository = (*CustomerRepository)(nil)
