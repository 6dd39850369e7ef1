package hashing

import (
	"bytes"
	"strings"
	"testing"
)

func TestXORHasher_DeriveAndVerify(t *testing.T) {
	t.Parallel()
	h := NewXORHasher()

	passwords := []string{
		"pass1",                      // minimum accepted length
		"пароль-ключ",                // non-ASCII
		"日本語のパスワード",                  // multi-byte runes
		strings.Repeat("x", 64),      // maximum accepted length
		"with spaces and sym!@#$%^&", // punctuation
	}

	for _, password := range passwords {
		hash, salt, err := h.HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword(%q) error: %v", password, err)
		}
		if len(salt) != len([]byte(password)) {
			t.Fatalf("salt length %d, want password byte length %d", len(salt), len([]byte(password)))
		}
		if len(hash) != 32 {
			t.Fatalf("hash length %d, want 32 (sha256)", len(hash))
		}
		if !Verify(h, password, salt, hash) {
			t.Fatalf("Verify failed for the original password %q", password)
		}
		if Verify(h, password+"?", salt, hash) {
			t.Fatalf("Verify succeeded for a different password")
		}
	}
}

func TestXORHasher_SaltLengthMismatch(t *testing.T) {
	t.Parallel()
	h := NewXORHasher()

	hash, salt, err := h.HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	// A password of a different byte length can never reproduce the hash.
	if got := h.Hash("longer-secret", salt); got != nil {
		t.Fatalf("expected nil hash for mismatched length, got %x", got)
	}
	if Verify(h, "longer-secret", salt, hash) {
		t.Fatalf("Verify succeeded despite length mismatch")
	}
}

func TestXORHasher_Deterministic(t *testing.T) {
	t.Parallel()
	h := NewXORHasher()

	salt := []byte("0123456789")
	a := h.Hash("password01", salt)
	b := h.Hash("password01", salt)
	if !bytes.Equal(a, b) {
		t.Fatalf("same password and salt produced different hashes")
	}
}

func TestArgon2Hasher_DeriveAndVerify(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher()

	for _, password := range []string{"pass1", "пароль", strings.Repeat("y", 64)} {
		hash, salt, err := h.HashPassword(password)
		if err != nil {
			t.Fatalf("HashPassword(%q) error: %v", password, err)
		}
		if len(salt) != argonSaltLen {
			t.Fatalf("salt length %d, want %d", len(salt), argonSaltLen)
		}
		if len(hash) != argonKeyLen {
			t.Fatalf("hash length %d, want %d", len(hash), argonKeyLen)
		}
		if !Verify(h, password, salt, hash) {
			t.Fatalf("Verify failed for the original password %q", password)
		}
		if Verify(h, password+"!", salt, hash) {
			t.Fatalf("Verify succeeded for a different password")
		}
	}
}

func TestArgon2Hasher_SaltsDiffer(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher()

	hashA, saltA, err := h.HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	hashB, saltB, err := h.HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if bytes.Equal(saltA, saltB) {
		t.Fatalf("two derivations produced the same salt")
	}
	if bytes.Equal(hashA, hashB) {
		t.Fatalf("two derivations under different salts produced the same hash")
	}
}
