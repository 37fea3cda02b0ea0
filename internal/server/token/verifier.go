package token

import (
	"context"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/server/revocation"
)

// Verifier checks tokens against the process public key and the identity's
// current revocation secret.
type Verifier struct {
	key *rsa.PublicKey
}

func NewVerifier(key *rsa.PublicKey) *Verifier {
	return &Verifier{key: key}
}

// Verify returns the identity id carried by token. The signature is checked
// before the store is consulted, so forged tokens never cause a lookup.
// Reasons for rejection match common.ErrInvalidToken; store failures do not.
func (v *Verifier) Verify(ctx context.Context, secrets SecretSource, token string) (string, error) {
	fields, err := decode(token)
	if err != nil {
		return "", err
	}

	if fields[0] != Version {
		return "", ErrUnsupportedVersion
	}

	payload := strings.Join(fields[:payloadFields], Delimiter)
	if !v.signatureValid(payload, fields[payloadFields]) {
		return "", ErrInvalidSignature
	}

	identityID, digest := fields[2], fields[3]

	secret, err := secrets.RevocationSecret(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrUnknownIdentity
		}
		return "", fmt.Errorf("load revocation secret: %w", err)
	}

	if !revocation.Matches(secret, digest) {
		return "", ErrRevokedToken
	}

	return identityID, nil
}

func (v *Verifier) signatureValid(payload, sigHex string) (ok bool) {
	if v.key == nil {
		return false
	}
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) == 0 {
		return false
	}
	return signingMethod.Verify(payload, sig, v.key) == nil
}
