package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Metadata  map[string]string
	Value     string
	Version   string
	CreatedAt string
}

// SecretManagerAdapter retrieves secrets from a secret management backend.
// Path format depends on implementation:
//   - env:   environment variable name, e.g. "ENCRYPTION_KEY"
//   - file:  path relative to the secrets directory
//   - aws:   secret name or ARN
//   - vault: path under the KV mount, e.g. "payment-intents/encryption-key"
type SecretManagerAdapter interface {
	// GetSecret retrieves the current version of a secret
	GetSecret(ctx context.Context, path string) (*Secret, error)

	// GetSecretVersion retrieves a specific version of a secret.
	// Backends without versioning return an error.
	GetSecretVersion(ctx context.Context, path string, version string) (*Secret, error)
}
