// Package revocation manages per-identity revocation secrets. A token embeds
// the digest of the secret current at issue time; replacing the secret
// invalidates every token issued before.
package revocation

import (
	"crypto/subtle"
	"encoding/hex"

	"github.com/dmitrijs2005/keuthlie/internal/shared"
	"golang.org/x/crypto/sha3"
)

// SecretSize is the length of a revocation secret in bytes.
const SecretSize = 64

// NewSecret returns SecretSize fresh random bytes.
func NewSecret() ([]byte, error) {
	return shared.GenerateRandBytes(SecretSize)
}

// Digest returns the lowercase hex SHA3-512 digest of secret.
func Digest(secret []byte) string {
	sum := sha3.Sum512(secret)
	return hex.EncodeToString(sum[:])
}

// Matches reports whether digestHex is the digest of secret. The comparison
// runs in constant time over the encoded digests.
func Matches(secret []byte, digestHex string) bool {
	want := Digest(secret)
	if len(want) != len(digestHex) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(digestHex)) == 1
}
