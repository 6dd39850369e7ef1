package hashing

import (
	"crypto/sha256"

	"github.com/dmitrijs2005/authwall/internal/common"
)

// XORHasher implements the legacy scheme: the salt is sized to the
// password's UTF-8 byte length, XORed into the password bytes, and the
// result digested with SHA-256.
//
// This construction is not a standard KDF and survives only so that rows
// hashed by earlier releases keep verifying. New deployments should use
// Argon2Hasher.
type XORHasher struct{}

func NewXORHasher() *XORHasher {
	return &XORHasher{}
}

func (h *XORHasher) HashPassword(password string) (hash, salt []byte, err error) {
	data := []byte(password)
	salt = common.GenerateRandByteArray(len(data))
	return h.Hash(password, salt), salt, nil
}

// Hash returns nil when the salt length does not match the password's byte
// length; such a pair can never verify because salts are generated at the
// password's exact length.
func (h *XORHasher) Hash(password string, salt []byte) []byte {
	data := []byte(password)
	if len(data) != len(salt) {
		return nil
	}
	mixed := make([]byte, len(data))
	for i := range data {
		mixed[i] = data[i] ^ salt[i]
	}
	sum := sha256.Sum256(mixed)
	return sum[:]
}
