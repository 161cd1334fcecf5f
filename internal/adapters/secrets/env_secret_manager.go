package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/kevin07696/payment-intents/internal/adapters/ports"
)

// envSecretManager reads secrets from environment variables. The path is the
// variable name. Default backend, suitable for containers with injected env.
type envSecretManager struct {
	lookup func(string) (string, bool)
}

// NewEnvSecretManager creates a secret manager backed by the process environment
func NewEnvSecretManager() ports.SecretManagerAdapter {
	return &envSecretManager{lookup: os.LookupEnv}
}

// GetSecret returns the value of the environment variable named by path
func (m *envSecretManager) GetSecret(_ context.Context, path string) (*ports.Secret, error) {
	value, ok := m.lookup(path)
	if !ok || strings.TrimSpace(value) == "" {
		return nil, fmt.Errorf("secret not found: %s", path)
	}
	return &ports.Secret{Value: value, Version: "env"}, nil
}

// GetSecretVersion is unsupported for environment variables
func (m *envSecretManager) GetSecretVersion(_ context.Context, path string, version string) (*ports.Secret, error) {
	return nil, fmt.Errorf("secret versions not supported by env backend: %s@%s", path, version)
}
