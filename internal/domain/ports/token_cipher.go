package ports

// TokenCipher seals and opens customer tokens.
// Decrypt fails for any input that Encrypt did not produce under a known key.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}
