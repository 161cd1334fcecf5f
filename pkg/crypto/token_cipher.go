// Package crypto seals customer tokens with XChaCha20-Poly1305.
package crypto

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// tokenPrefix versions the sealed format
const tokenPrefix = "v1."

var (
	// ErrInvalidToken is returned for any token that cannot be opened
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidKey is returned when a key is not 32 bytes of URL-safe base64
	ErrInvalidKey = errors.New("encryption key must be 32 bytes encoded as URL-safe base64")
)

// TokenCipher encrypts with a primary key and decrypts with the primary key
// or any previous key, so keys can be rotated without rewriting rows first.
type TokenCipher struct {
	primary  cipherKey
	previous []cipherKey
}

type cipherKey struct {
	aead cipher.AEAD
}

// NewTokenCipher builds a cipher from base64-encoded keys.
func NewTokenCipher(primaryKey string, previousKeys ...string) (*TokenCipher, error) {
	primary, err := parseKey(primaryKey)
	if err != nil {
		return nil, fmt.Errorf("primary key: %w", err)
	}

	tc := &TokenCipher{primary: primary}
	for i, k := range previousKeys {
		if strings.TrimSpace(k) == "" {
			continue
		}
		prev, err := parseKey(k)
		if err != nil {
			return nil, fmt.Errorf("previous key %d: %w", i, err)
		}
		tc.previous = append(tc.previous, prev)
	}
	return tc, nil
}

// GenerateKey returns a new random key in the format NewTokenCipher accepts
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(key), nil
}

// Encrypt seals plaintext under the primary key
func (c *TokenCipher) Encrypt(plaintext string) (string, error) {
	aead := c.primary.aead
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt under any known key
func (c *TokenCipher) Decrypt(token string) (string, error) {
	encoded, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return "", ErrInvalidToken
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidToken
	}

	for _, key := range c.keys() {
		nonceSize := key.aead.NonceSize()
		if len(sealed) < nonceSize+key.aead.Overhead() {
			return "", ErrInvalidToken
		}
		plaintext, err := key.aead.Open(nil, sealed[:nonceSize], sealed[nonceSize:], nil)
		if err == nil {
			return string(plaintext), nil
		}
	}
	return "", ErrInvalidToken
}

func (c *TokenCipher) keys() []cipherKey {
	return append([]cipherKey{c.primary}, c.previous...)
}

func parseKey(encoded string) (cipherKey, error) {
	encoded = strings.TrimSpace(encoded)
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(encoded)
	}
	if err != nil || len(raw) != chacha20poly1305.KeySize {
		return cipherKey{}, ErrInvalidKey
	}

	aead, err := chacha20poly1305.NewX(raw)
	if err != nil {
		return cipherKey{}, fmt.Errorf("init cipher: %w", err)
	}
	return cipherKey{aead: aead}, nil
}
