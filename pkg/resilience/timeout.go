package resilience

import (
	"context"
	"time"
)

// TimeoutConfig defines the request timeout hierarchy.
//
//	HTTP Handler (30s)
//	  Processor call (20s, enforced by the HTTP client)
//	  Persist after processor call (5s, detached from the request)
//	  Database query (2s)
type TimeoutConfig struct {
	HTTPHandler time.Duration
	Processor   time.Duration
	Persist     time.Duration
	Query       time.Duration
}

// DefaultTimeoutConfig returns production timeout values
func DefaultTimeoutConfig() *TimeoutConfig {
	return &TimeoutConfig{
		HTTPHandler: 30 * time.Second,
		Processor:   20 * time.Second,
		Persist:     5 * time.Second,
		Query:       2 * time.Second,
	}
}

// HandlerContext creates a context with timeout for HTTP handlers
func (tc *TimeoutConfig) HandlerContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.HTTPHandler)
}

// QueryContext creates a context with timeout for a single lookup
func (tc *TimeoutConfig) QueryContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, tc.Query)
}

// PersistContext detaches from parent's cancellation so an outcome obtained
// from the processor is still written after the client goes away.
// Values such as request ids are kept.
func (tc *TimeoutConfig) PersistContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), tc.Persist)
}
