package vault

import (
	"errors"
	"testing"

	"github.com/kodisha/rentcore/internal/domain"
)

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	v, err := New("a-test-secret-that-is-long-enough")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	plaintext := "sk_live_consumer_secret_123"
	ciphertext, err := v.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}

	got, err := v.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if got != plaintext {
		t.Errorf("Decrypt(Encrypt(p)) = %q, want %q", got, plaintext)
	}
}

func TestEncrypt_FreshNonceEachCall(t *testing.T) {
	v, _ := New("a-test-secret-that-is-long-enough")

	c1, _ := v.Encrypt("same plaintext")
	c2, _ := v.Encrypt("same plaintext")

	if c1 == c2 {
		t.Errorf("expected distinct ciphertexts for the same plaintext, got identical output")
	}
}

func TestDecrypt_CorruptedCiphertext(t *testing.T) {
	v, _ := New("a-test-secret-that-is-long-enough")

	_, err := v.Decrypt("not-valid-base64-ciphertext!!")
	if !errors.Is(err, domain.ErrCredentialCorrupted) {
		t.Errorf("expected ErrCredentialCorrupted, got %v", err)
	}
}

func TestDecrypt_WrongKeyFailsClosed(t *testing.T) {
	v1, _ := New("secret-one-long-enough-for-hkdf")
	v2, _ := New("secret-two-long-enough-for-hkdf")

	ciphertext, _ := v1.Encrypt("super secret passkey")

	if _, err := v2.Decrypt(ciphertext); !errors.Is(err, domain.ErrCredentialCorrupted) {
		t.Errorf("expected decryption under a different key to fail, got err=%v", err)
	}
}

func TestIsEncrypted(t *testing.T) {
	v, _ := New("a-test-secret-that-is-long-enough")
	ciphertext, _ := v.Encrypt("value")

	if !IsEncrypted(ciphertext) {
		t.Errorf("expected IsEncrypted(ciphertext) = true")
	}
	if IsEncrypted("plainConsumerKey123") {
		t.Errorf("expected IsEncrypted(short plaintext) = false")
	}
}

func TestMask(t *testing.T) {
	got := Mask("abcd1234efgh5678", 4)
	if got[:4] != "abcd" || got[len(got)-4:] != "5678" {
		t.Errorf("Mask() = %q, expected to keep first/last 4 chars visible", got)
	}

	short := Mask("abc", 4)
	if short != "•••" {
		t.Errorf("Mask(short) = %q, want all bullets", short)
	}
}
