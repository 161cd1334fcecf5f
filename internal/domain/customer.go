package domain

import "time"

// Customer is the stored mapping from an application user to a processor
// customer id. EncryptedToken holds the sealed form of that id.
type Customer struct {
	CreatedAt        time.Time `json:"created_at"`
	UserID           string    `json:"user_id"`
	StripeCustomerID string    `json:"stripe_customer_id"`
	EncryptedToken   string    `json:"-"`
	ID               int64     `json:"id"`
}

// CustomerRecord is a customer row with its token decrypted.
type CustomerRecord struct {
	CreatedAt        time.Time `json:"created_at"`
	UserID           string    `json:"user_id"`
	StripeCustomerID string    `json:"stripe_customer_id"`
	DecryptedToken   string    `json:"decrypted_token"`
}
