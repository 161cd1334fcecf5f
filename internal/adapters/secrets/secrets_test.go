package secrets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/payment-intents/internal/adapters/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestEnvSecretManager(t *testing.T) {
	m := &envSecretManager{lookup: func(k string) (string, bool) {
		if k == "ENCRYPTION_KEY" {
			return "abc", true
		}
		return "", false
	}}

	s, err := m.GetSecret(context.Background(), "ENCRYPTION_KEY")
	require.NoError(t, err)
	assert.Equal(t, "abc", s.Value)

	_, err = m.GetSecret(context.Background(), "MISSING")
	assert.Error(t, err)

	_, err = m.GetSecretVersion(context.Background(), "ENCRYPTION_KEY", "2")
	assert.Error(t, err)
}

func TestLocalSecretManager(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "encryption-key"), []byte("plain-key\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "encryption-key.2"), []byte(`{"value":"json-key","tags":{"owner":"payments"}}`), 0o600))

	m := NewLocalSecretManager(dir, zaptest.NewLogger(t))

	s, err := m.GetSecret(context.Background(), "encryption-key")
	require.NoError(t, err)
	assert.Equal(t, "plain-key", s.Value)

	s, err = m.GetSecretVersion(context.Background(), "encryption-key", "2")
	require.NoError(t, err)
	assert.Equal(t, "json-key", s.Value)
	assert.Equal(t, "payments", s.Metadata["owner"])

	_, err = m.GetSecret(context.Background(), "missing")
	assert.Error(t, err)

	_, err = m.GetSecret(context.Background(), "../../etc/passwd")
	assert.Error(t, err)
}

func TestSecretCache_Expiry(t *testing.T) {
	c := newSecretCache(true, 20*time.Millisecond)
	c.set("k", &ports.Secret{Value: "v"})
	require.NotNil(t, c.get("k"))
	assert.Nil(t, c.get("missing"))

	time.Sleep(40 * time.Millisecond)
	assert.Nil(t, c.get("k"))

	disabled := newSecretCache(false, time.Minute)
	disabled.set("k", &ports.Secret{Value: "v"})
	assert.Nil(t, disabled.get("k"))
}

func TestParseVaultSecret_KVv2(t *testing.T) {
	secret := &vault.Secret{Data: map[string]interface{}{
		"data": map[string]interface{}{"value": "the-key", "owner": "payments"},
		"metadata": map[string]interface{}{
			"version":      json.Number("3"),
			"created_time": "2025-01-01T00:00:00Z",
		},
	}}

	s, err := parseVaultSecret(secret, "v2")
	require.NoError(t, err)
	assert.Equal(t, "the-key", s.Value)
	assert.Equal(t, "3", s.Version)
	assert.Equal(t, "payments", s.Metadata["owner"])

	_, err = parseVaultSecret(&vault.Secret{Data: map[string]interface{}{}}, "v2")
	assert.Error(t, err)

	s, err = parseVaultSecret(&vault.Secret{Data: map[string]interface{}{"key": "v1-value"}}, "v1")
	require.NoError(t, err)
	assert.Equal(t, "v1-value", s.Value)
}

func TestVaultAdapter_GetSecret(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/v1/secret/data/payment-intents/encryption-key", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"value":"vault-key"},"metadata":{"version":1}}}`))
	}))
	defer server.Close()

	cfg := DefaultVaultConfig(server.URL)
	cfg.Token = "root"
	m, err := NewVaultAdapter(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		s, err := m.GetSecret(context.Background(), "payment-intents/encryption-key")
		require.NoError(t, err)
		assert.Equal(t, "vault-key", s.Value)
	}
	assert.Equal(t, int32(1), hits.Load(), "second read should come from cache")
}
