package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/kevin07696/payment-intents/internal/adapters/ports"
	"github.com/kevin07696/payment-intents/internal/adapters/secrets"
	"github.com/kevin07696/payment-intents/internal/config"
	"github.com/kevin07696/payment-intents/pkg/crypto"
	"go.uber.org/zap"
)

// initSecretManager builds the backend named by SECRET_MANAGER:
//   - env:   keys are read from environment variables (default)
//   - file:  keys are files under SECRETS_DIR
//   - vault: HashiCorp Vault KV, token or AppRole auth
//   - aws:   AWS Secrets Manager
func initSecretManager(ctx context.Context, cfg *config.SecretsConfig, logger *zap.Logger) (ports.SecretManagerAdapter, error) {
	switch cfg.Backend {
	case "env":
		return secrets.NewEnvSecretManager(), nil

	case "file":
		logger.Warn("Using file secret manager - NOT for production use!",
			zap.String("dir", cfg.FileDir),
		)
		return secrets.NewLocalSecretManager(cfg.FileDir, logger), nil

	case "vault":
		vaultCfg := secrets.DefaultVaultConfig(cfg.VaultAddress)
		vaultCfg.MountPath = cfg.VaultMountPath
		vaultCfg.CacheTTL = cfg.CacheTTL
		if cfg.VaultRoleID != "" {
			vaultCfg.AuthMethod = "approle"
			vaultCfg.RoleID = cfg.VaultRoleID
			vaultCfg.SecretID = cfg.VaultSecretID
		} else {
			vaultCfg.Token = cfg.VaultToken
		}
		return secrets.NewVaultAdapter(ctx, vaultCfg, logger)

	case "aws":
		awsCfg := secrets.DefaultAWSSecretsManagerConfig(cfg.AWSRegion)
		awsCfg.Endpoint = cfg.AWSEndpoint
		awsCfg.CacheTTL = cfg.CacheTTL
		return secrets.NewAWSSecretsManagerAdapter(ctx, awsCfg, logger)

	default:
		return nil, fmt.Errorf("unsupported secret manager %q", cfg.Backend)
	}
}

// initTokenCipher loads the vault keys and builds the customer token cipher.
// Outside production a missing primary key falls back to the development key.
func initTokenCipher(ctx context.Context, cfg *config.Config, sm ports.SecretManagerAdapter, logger *zap.Logger) (*crypto.TokenCipher, error) {
	primary, err := sm.GetSecret(ctx, cfg.Vault.KeyPath)
	var primaryKey string
	switch {
	case err == nil:
		primaryKey = primary.Value
	case cfg.IsProduction():
		return nil, fmt.Errorf("load encryption key %q: %w", cfg.Vault.KeyPath, err)
	default:
		logger.Warn("Encryption key not found - using development key",
			zap.String("key_path", cfg.Vault.KeyPath),
			zap.Error(err),
		)
		primaryKey = config.DefaultEncryptionKey
	}

	previous := make([]string, 0, len(cfg.Vault.PreviousKeyPaths))
	var errs []error
	for _, path := range cfg.Vault.PreviousKeyPaths {
		secret, err := sm.GetSecret(ctx, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("load previous key %q: %w", path, err))
			continue
		}
		previous = append(previous, secret.Value)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	cipher, err := crypto.NewTokenCipher(primaryKey, previous...)
	if err != nil {
		return nil, fmt.Errorf("build token cipher: %w", err)
	}

	logger.Info("Customer token cipher initialized",
		zap.String("secret_manager", cfg.Secrets.Backend),
		zap.Int("previous_keys", len(previous)),
	)
	return cipher, nil
}
