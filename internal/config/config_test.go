package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/payments")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/payments", cfg.Database.ConnectionString())
	assert.Equal(t, 20*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, int64(32), cfg.Stripe.MaxConcurrency)
	assert.Equal(t, "ENCRYPTION_KEY", cfg.Vault.KeyPath)
	assert.Equal(t, "env", cfg.Secrets.Backend)
	assert.True(t, cfg.Logger.Development)
	assert.Empty(t, cfg.Auth.JWTSecret)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STRIPE_TIMEOUT", "5")
	t.Setenv("STRIPE_MAX_CONCURRENCY", "4")
	t.Setenv("ENCRYPTION_PREVIOUS_KEY_PATHS", "OLD_KEY_1, OLD_KEY_2,")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.Database.Driver)
	assert.Equal(t, 5*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, int64(4), cfg.Stripe.MaxConcurrency)
	assert.Equal(t, []string{"OLD_KEY_1", "OLD_KEY_2"}, cfg.Vault.PreviousKeyPaths)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres without credentials",
			env:     map[string]string{},
			wantErr: "DATABASE_URL or DB_PASSWORD is required",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STORE_DRIVER": "mysql"},
			wantErr: "unsupported STORE_DRIVER",
		},
		{
			name:    "memory in production",
			env:     map[string]string{"STORE_DRIVER": "memory", "ENVIRONMENT": "production", "STRIPE_API_KEY": "sk_live_x"},
			wantErr: "not allowed in production",
		},
		{
			name:    "placeholder key in production",
			env:     map[string]string{"DB_PASSWORD": "x", "ENVIRONMENT": "production"},
			wantErr: "STRIPE_API_KEY must be set in production",
		},
		{
			name:    "vault without address",
			env:     map[string]string{"STORE_DRIVER": "memory", "SECRET_MANAGER": "vault"},
			wantErr: "VAULT_ADDR is required",
		},
		{
			name:    "unknown secret manager",
			env:     map[string]string{"STORE_DRIVER": "memory", "SECRET_MANAGER": "gcp"},
			wantErr: "unsupported SECRET_MANAGER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConnectionString_Discrete(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "d", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=require", db.ConnectionString())
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("D1", "250ms")
	t.Setenv("D2", "3")
	t.Setenv("D3", "garbage")
	assert.Equal(t, 250*time.Millisecond, getEnvAsDuration("D1", time.Second))
	assert.Equal(t, 3*time.Second, getEnvAsDuration("D2", time.Second))
	assert.Equal(t, time.Second, getEnvAsDuration("D3", time.Second))
}
