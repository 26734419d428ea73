package crypto

import (
	"strings"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("p", 32))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	tests := []string{
		"provider-oauth-token",
		"",
		"token with spaces and unicode: héllo wörld",
		strings.Repeat("x", 4096),
	}
	for _, plaintext := range tests {
		ciphertext, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		if ciphertext == plaintext && plaintext != "" {
			t.Error("ciphertext equals plaintext")
		}

		got, err := enc.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Errorf("round trip lost data: got %q, want %q", got, plaintext)
		}
	}
}

func TestEncryptNonDeterministic(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("p", 32))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	a, err := enc.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := enc.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if a == b {
		t.Error("two encryptions of the same input must differ (fresh nonce)")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	enc1, err := NewEncryptor(strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}
	enc2, err := NewEncryptor(strings.Repeat("b", 32))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	ciphertext, err := enc1.Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := enc2.Decrypt(ciphertext); err == nil {
		t.Error("decrypting with the wrong key must fail")
	}
}

func TestDecryptGarbage(t *testing.T) {
	enc, err := NewEncryptor(strings.Repeat("a", 32))
	if err != nil {
		t.Fatalf("NewEncryptor: %v", err)
	}

	for _, input := range []string{"not-base64!!!", "YWJj"} {
		if _, err := enc.Decrypt(input); err == nil {
			t.Errorf("Decrypt(%q) succeeded, want error", input)
		}
	}
}
