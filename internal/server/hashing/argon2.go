package hashing

import (
	"github.com/dmitrijs2005/authwall/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Argon2Hasher derives password hashes with argon2id. This is the default
// scheme for new rows.
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{}
}

func (h *Argon2Hasher) HashPassword(password string) (hash, salt []byte, err error) {
	salt = common.GenerateRandByteArray(argonSaltLen)
	return h.Hash(password, salt), salt, nil
}

func (h *Argon2Hasher) Hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}
