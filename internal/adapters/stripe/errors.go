package stripe

import (
	"errors"
	"net/http"

	stripeapi "github.com/stripe/stripe-go/v82"

	"github.com/kevin07696/payment-intents/internal/domain/ports"
)

// classifyError turns Stripe's user-correctable 4xx responses into
// *ports.ProcessorError. 401, 403, 429 and 5xx responses, transport errors
// and timeouts are returned as-is. 401 and 403 mean our own credentials are
// wrong, which the caller cannot fix.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var stripeErr *stripeapi.Error
	if !errors.As(err, &stripeErr) {
		return err
	}

	status := stripeErr.HTTPStatusCode
	switch {
	case status == 0,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return err
	}
	if stripeErr.Type == stripeapi.ErrorTypeAPI {
		return err
	}

	return &ports.ProcessorError{
		Err:         err,
		Type:        string(stripeErr.Type),
		Code:        string(stripeErr.Code),
		DeclineCode: string(stripeErr.DeclineCode),
		Message:     stripeErr.Msg,
		HTTPStatus:  status,
	}
}
