// Package vault implements the credential vault: symmetric
// encryption of per-landlord Daraja secrets at rest, detection of
// already-encrypted values for legacy-plaintext tolerance, and masked
// display strings.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/kodisha/rentcore/internal/domain"
	"golang.org/x/crypto/hkdf"
)

// minCiphertextLen is a lower bound on the length of a base64-encoded
// AES-GCM payload; the 12-byte nonce and 16-byte tag alone already
// encode to 40 characters.
const minCiphertextLen = 24

// Vault encrypts and decrypts landlord Daraja secrets with AES-256-GCM.
// The AES key is derived from a process-wide secret via HKDF so the raw
// configured value never doubles as the key material directly.
type Vault struct {
	aead cipher.AEAD
}

// New derives a Vault from the configured ENCRYPTION_KEY secret. secret
// must be non-empty; startup-level enforcement of "required outside
// development" lives in internal/config, not here.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, fmt.Errorf("vault: secret must not be empty")
	}

	key := make([]byte, 32)
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("rentcore-daraja-credential-vault"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("vault: deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("vault: %w", err)
	}

	return &Vault{aead: aead}, nil
}

// Encrypt returns base64-encoded ciphertext for plaintext. A fresh random
// nonce is prepended to the sealed output on every call, so
// Encrypt(Decrypt(c)) != c in general even though Decrypt(Encrypt(p)) == p
// always holds.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("vault: generating nonce: %w", err)
	}
	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Corrupted or foreign ciphertext returns
// ErrCredentialCorrupted (wrapped with the underlying cause); callers are
// expected to fall back to treating the input as legacy plaintext.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCredentialCorrupted, err)
	}

	nonceSize := v.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", domain.ErrCredentialCorrupted)
	}

	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := v.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrCredentialCorrupted, err)
	}

	return string(plaintext), nil
}

// IsEncrypted heuristically reports whether s looks like vault
// ciphertext: base64-shaped and at least minCiphertextLen bytes long.
// Legacy plaintext Daraja secrets (consumer keys, passkeys) are short
// alphanumeric strings that rarely satisfy both conditions.
func IsEncrypted(s string) bool {
	if len(s) < minCiphertextLen {
		return false
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return false
	}
	return true
}

// Mask returns a display-safe form of s: the first and last `visible`
// characters, with everything between replaced by bullet characters. It
// is the caller's responsibility to only return this to a caller
// authenticated as the owning landlord.
func Mask(s string, visible int) string {
	if visible <= 0 {
		visible = 4
	}
	if len(s) <= visible*2 {
		return strings.Repeat("•", len(s))
	}
	mid := len(s) - visible*2
	return s[:visible] + strings.Repeat("•", mid) + s[len(s)-visible:]
}
