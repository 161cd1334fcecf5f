package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{MaxFailures: 3, Cooldown: time.Minute})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Call(func() error { return errBoom }), errBoom)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := NewBreaker(BreakerConfig{MaxFailures: 3, Cooldown: time.Minute})

	_ = b.Call(func() error { return errBoom })
	_ = b.Call(func() error { return errBoom })
	assert.Equal(t, uint32(2), b.Failures())

	assert.NoError(t, b.Call(func() error { return nil }))
	assert.Equal(t, uint32(0), b.Failures())
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_IgnoresNonFailures(t *testing.T) {
	rejected := errors.New("card declined")
	b := NewBreaker(BreakerConfig{
		MaxFailures: 1,
		Cooldown:    time.Minute,
		IsFailure:   func(err error) bool { return !errors.Is(err, rejected) },
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, b.Call(func() error { return rejected }), rejected)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	now := time.Now()
	var transitions []string
	b := NewBreaker(BreakerConfig{
		MaxFailures: 1,
		Cooldown:    10 * time.Second,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	b.now = func() time.Time { return now }

	_ = b.Call(func() error { return errBoom })
	assert.Equal(t, StateOpen, b.State())

	now = now.Add(11 * time.Second)
	assert.NoError(t, b.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker(BreakerConfig{MaxFailures: 1, Cooldown: time.Second})
	b.now = func() time.Time { return now }

	_ = b.Call(func() error { return errBoom })
	now = now.Add(2 * time.Second)
	_ = b.Call(func() error { return errBoom })

	assert.Equal(t, StateOpen, b.State())
}
