package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus mirrors the processor's payment intent status vocabulary.
// The service records whatever the processor last reported; it does not
// enforce transitions between these values.
type PaymentStatus string

const (
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresAction        PaymentStatus = "requires_action"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusRequiresCapture       PaymentStatus = "requires_capture"
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusCanceled              PaymentStatus = "canceled"
	PaymentStatusFailed                PaymentStatus = "failed"
)

// IsTerminal reports whether the processor will not move the intent further.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled || s == PaymentStatusFailed
}

// AwaitsConfirmation reports whether the intent has not been confirmed yet.
func (s PaymentStatus) AwaitsConfirmation() bool {
	return s == PaymentStatusRequiresPaymentMethod || s == PaymentStatusRequiresConfirmation
}

// DefaultCurrency is applied when a create request omits the currency.
const DefaultCurrency = "usd"

// MetadataUserIDKey is the intent metadata tag carrying the owning user.
const MetadataUserIDKey = "user_id"

// zeroDecimalCurrencies are charged in whole units by the processor.
var zeroDecimalCurrencies = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true, "jpy": true,
	"kmf": true, "krw": true, "mga": true, "pyg": true, "rwf": true,
	"ugx": true, "vnd": true, "vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// Payment is the local ledger row for one processor payment intent.
//
// Amount, Currency and StripePaymentID never change once written. Status is
// overwritten with the latest processor value on every confirmation.
type Payment struct {
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	ClientSecret    *string       `json:"client_secret,omitempty"`
	IdempotencyKey  *string       `json:"-"`
	UserID          string        `json:"user_id"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `json:"status"`
	StripePaymentID string        `json:"stripe_payment_id"`
	ID              int64         `json:"id"`
	Amount          int64         `json:"amount"`
}

// ClientSecretValue returns the client secret or "" when none is stored.
func (p *Payment) ClientSecretValue() string {
	if p.ClientSecret == nil {
		return ""
	}
	return *p.ClientSecret
}

// HasIdempotencyKey reports whether a non-empty key is recorded.
func (p *Payment) HasIdempotencyKey() bool {
	return p.IdempotencyKey != nil && *p.IdempotencyKey != ""
}

// Backfill applies a processor snapshot to an existing row. Status is always
// taken from the snapshot; the remaining fields are only filled when unset.
func (p *Payment) Backfill(status PaymentStatus, amount int64, currency, clientSecret, idempotencyKey string) {
	p.Status = status
	if !p.HasIdempotencyKey() && idempotencyKey != "" {
		p.IdempotencyKey = StringPtr(idempotencyKey)
	}
	if p.Amount == 0 {
		p.Amount = amount
	}
	if p.Currency == "" {
		p.Currency = currency
	}
	if (p.ClientSecret == nil || *p.ClientSecret == "") && clientSecret != "" {
		p.ClientSecret = StringPtr(clientSecret)
	}
}

// MajorAmount converts the minor-unit amount into the currency's major unit.
func (p *Payment) MajorAmount() decimal.Decimal {
	return MinorToMajor(p.Amount, p.Currency)
}

// MinorToMajor converts an amount in minor units (cents) to major units.
func MinorToMajor(amount int64, currency string) decimal.Decimal {
	if zeroDecimalCurrencies[strings.ToLower(currency)] {
		return decimal.NewFromInt(amount)
	}
	return decimal.New(amount, -2)
}

// NormalizeCurrency lower-cases the code and applies the default.
func NormalizeCurrency(currency string) string {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return DefaultCurrency
	}
	return currency
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
