package security

import (
	"errors"
	"testing"
	"time"

	"github.com/kevin07696/payment-intents/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAdapter_ConvertsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("payment created",
		ports.String("stripe_payment_id", "pi_1"),
		ports.Int64("payment_id", 42),
		ports.Duration("latency", time.Second),
		ports.Err(errors.New("boom")),
		ports.Bool("replayed", true),
	)
	logger.Debug("debug")
	logger.Warn("warn")
	logger.Error("error")

	require.Equal(t, 4, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "payment created", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "pi_1", fields["stripe_payment_id"])
	assert.Equal(t, int64(42), fields["payment_id"])
	assert.Equal(t, time.Second, fields["latency"])
	assert.Equal(t, "boom", fields["error"])
	assert.Equal(t, true, fields["replayed"])
}
