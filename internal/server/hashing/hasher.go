// Package hashing derives and verifies password hashes with a per-user salt.
//
// Two schemes are available behind the same Hasher contract: the legacy
// XOR+SHA-256 construction kept for compatibility with existing rows, and
// argon2id, which is the default for new deployments.
package hashing

import "crypto/subtle"

// Hasher derives a (hash, salt) pair from a password and re-derives the
// hash for verification. Implementations must be safe for concurrent use.
type Hasher interface {
	// HashPassword generates a fresh random salt and returns the digest of
	// the password under that salt.
	HashPassword(password string) (hash, salt []byte, err error)

	// Hash re-derives the digest of password under a caller-supplied salt.
	// A nil result means the password cannot possibly match under this
	// scheme (for example a salt/password length mismatch).
	Hash(password string, salt []byte) []byte
}

// Verify re-derives the digest of password under salt using h and compares
// it against the stored hash in constant time with respect to hash length.
func Verify(h Hasher, password string, salt, hash []byte) bool {
	derived := h.Hash(password, salt)
	if derived == nil || len(derived) != len(hash) {
		return false
	}
	return subtle.ConstantTimeCompare(derived, hash) == 1
}
