package resilience

import (
	"errors"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker
type CircuitState int

const (
	// StateClosed - requests flow normally
	StateClosed CircuitState = iota
	// StateOpen - requests fail immediately
	StateOpen
	// StateHalfOpen - a limited number of probe requests are let through
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrCircuitOpen is returned when circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyRequests is returned when too many requests in half-open state
	ErrTooManyRequests = errors.New("too many requests in half-open state")
)

// BreakerConfig configures circuit breaker behavior
type BreakerConfig struct {
	// IsFailure decides whether an error counts against the breaker.
	// Nil treats every non-nil error as a failure.
	IsFailure func(error) bool
	// OnStateChange is called with the breaker lock held; it must not call back into the breaker.
	OnStateChange func(from, to CircuitState)
	// MaxFailures is the number of consecutive failures before opening
	MaxFailures uint32
	// Cooldown is how long the circuit stays open before probing
	Cooldown time.Duration
	// MaxRequestsHalfOpen is max concurrent probes in half-open state
	MaxRequestsHalfOpen uint32
}

// DefaultBreakerConfig returns sensible defaults
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxFailures:         5,
		Cooldown:            30 * time.Second,
		MaxRequestsHalfOpen: 1,
	}
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	lastStateChange  time.Time
	now              func() time.Time
	config           BreakerConfig
	mu               sync.Mutex
	state            CircuitState
	failures         uint32
	requestsHalfOpen uint32
}

// NewBreaker creates a new circuit breaker
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxRequestsHalfOpen == 0 {
		config.MaxRequestsHalfOpen = 1
	}
	return &Breaker{
		state:           StateClosed,
		lastStateChange: time.Now(),
		now:             time.Now,
		config:          config,
	}
}

// Call executes fn if the breaker allows it and records the outcome
func (b *Breaker) Call(fn func() error) error {
	if err := b.beforeCall(); err != nil {
		return err
	}

	err := fn()
	b.afterCall(err)
	return err
}

func (b *Breaker) beforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil

	case StateOpen:
		if b.now().Sub(b.lastStateChange) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.requestsHalfOpen++
		return nil

	case StateHalfOpen:
		if b.requestsHalfOpen >= b.config.MaxRequestsHalfOpen {
			return ErrTooManyRequests
		}
		b.requestsHalfOpen++
		return nil

	default:
		return ErrCircuitOpen
	}
}

func (b *Breaker) afterCall(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && b.countsAsFailure(err) {
		b.failures++
		switch b.state {
		case StateClosed:
			if b.failures >= b.config.MaxFailures {
				b.setState(StateOpen)
			}
		case StateHalfOpen:
			b.setState(StateOpen)
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.setState(StateClosed)
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) countsAsFailure(err error) bool {
	if b.config.IsFailure == nil {
		return true
	}
	return b.config.IsFailure(err)
}

func (b *Breaker) setState(next CircuitState) {
	if b.state == next {
		return
	}
	prev := b.state
	b.state = next
	b.lastStateChange = b.now()
	b.failures = 0
	b.requestsHalfOpen = 0

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(prev, next)
	}
}

// State returns the current circuit state
func (b *Breaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count
func (b *Breaker) Failures() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}
