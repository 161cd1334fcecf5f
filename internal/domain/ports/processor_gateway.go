package ports

import (
	"context"
	"fmt"
)

// Intent is the processor's view of a payment intent.
type Intent struct {
	Metadata     map[string]string
	ID           string
	Status       string
	ClientSecret string
	Currency     string
	Amount       int64
}

// CreateIntentParams describes a new payment intent
type CreateIntentParams struct {
	UserID         string
	Currency       string
	IdempotencyKey string
	Amount         int64
}

// ConfirmIntentParams identifies the intent to confirm
type ConfirmIntentParams struct {
	IntentID       string
	IdempotencyKey string
}

// ProcessorGateway talks to the external payment processor.
//
// A processor-classified failure is returned as *ProcessorError. Any other
// error (transport, timeout, open circuit) means the outcome is unknown.
type ProcessorGateway interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	ConfirmIntent(ctx context.Context, params ConfirmIntentParams) (*Intent, error)
}

// ProcessorError is a failure the processor reported in its own vocabulary.
type ProcessorError struct {
	Err         error
	Type        string
	Code        string
	DeclineCode string
	// Message is safe to show to the end user.
	Message    string
	HTTPStatus int
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error (type=%s code=%s status=%d): %s", e.Type, e.Code, e.HTTPStatus, e.Message)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}
