// Package cryptox implements one-way credential hashing with argon2id.
//
// Hashes are stored in the PHC string format
//
//	$argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
//
// so every stored credential carries the parameters it was created with and
// keeps verifying after the configured parameters change.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/keuthlie/internal/shared"
	"golang.org/x/crypto/argon2"
)

const algorithmID = "argon2id"

var (
	ErrInvalidHash         = errors.New("invalid argon2id hash")
	ErrIncompatibleVersion = errors.New("incompatible argon2 version")
)

// Params are the argon2id cost parameters. Memory is in KiB.
type Params struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultParams matches the hashes already present in the identity store.
var DefaultParams = Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2 hashes and verifies passwords. It is safe for concurrent use.
type Argon2 struct {
	params Params
}

// NewArgon2 validates p and returns a hasher using it for new hashes.
func NewArgon2(p Params) (*Argon2, error) {
	switch {
	case p.Memory < 8*uint32(p.Parallelism) || p.Memory == 0:
		return nil, fmt.Errorf("argon2 memory too small: %d KiB", p.Memory)
	case p.Time == 0:
		return nil, errors.New("argon2 time must be positive")
	case p.Parallelism == 0:
		return nil, errors.New("argon2 parallelism must be positive")
	case p.SaltLength < 8:
		return nil, errors.New("argon2 salt must be at least 8 bytes")
	case p.KeyLength < 16:
		return nil, errors.New("argon2 key must be at least 16 bytes")
	}
	return &Argon2{params: p}, nil
}

// Hash returns the PHC-encoded argon2id hash of password with a fresh salt.
func (a *Argon2) Hash(password string) (string, error) {
	salt, err := shared.GenerateRandBytes(int(a.params.SaltLength))
	if err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, a.params.Time, a.params.Memory, a.params.Parallelism, a.params.KeyLength)

	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		a.params.Memory, a.params.Time, a.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the encoded hash.
// An error is returned only when encoded cannot be parsed.
func (a *Argon2) Verify(encoded, password string) (bool, error) {
	p, salt, key, err := decode(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

// NeedsUpgrade reports whether encoded was produced with weaker parameters
// than the ones this hasher is configured with.
func (a *Argon2) NeedsUpgrade(encoded string) (bool, error) {
	p, _, key, err := decode(encoded)
	if err != nil {
		return false, err
	}
	return p.Memory < a.params.Memory ||
		p.Time < a.params.Time ||
		p.Parallelism < a.params.Parallelism ||
		uint32(len(key)) != a.params.KeyLength, nil
}

func decode(encoded string) (Params, []byte, []byte, error) {
	var p Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return p, nil, nil, ErrInvalidHash
	}

	version, err := strconv.Atoi(strings.TrimPrefix(parts[2], "v="))
	if err != nil || !strings.HasPrefix(parts[2], "v=") {
		return p, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return p, nil, nil, ErrIncompatibleVersion
	}

	for _, kv := range strings.Split(parts[3], ",") {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return p, nil, nil, ErrInvalidHash
		}
		n, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return p, nil, nil, ErrInvalidHash
		}
		switch name {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return p, nil, nil, ErrInvalidHash
			}
			p.Parallelism = uint8(n)
		default:
			return p, nil, nil, ErrInvalidHash
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return p, nil, nil, ErrInvalidHash
	}

	salt, err := decodeB64(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	key, err := decodeB64(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, ErrInvalidHash
	}
	p.SaltLength = uint32(len(salt))
	p.KeyLength = uint32(len(key))

	return p, salt, key, nil
}

// decodeB64 accepts both the unpadded PHC encoding and padded standard base64.
func decodeB64(s string) ([]byte, error) {
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
