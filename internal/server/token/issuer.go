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
	"github.com/dmitrijs2005/keuthlie/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

var signingMethod = jwt.SigningMethodRS512

// Issuer signs tokens with the process private key.
type Issuer struct {
	issuerID string
	key      *rsa.PrivateKey
}

// NewIssuer returns an Issuer writing issuerID into every token. An empty id
// means common.DefaultIssuerID; an id containing Delimiter is rejected.
func NewIssuer(issuerID string, key *rsa.PrivateKey) (*Issuer, error) {
	if issuerID == "" {
		issuerID = common.DefaultIssuerID
	}
	if strings.Contains(issuerID, Delimiter) {
		return nil, fmt.Errorf("%w: issuer id %q", ErrDelimiterInField, issuerID)
	}
	return &Issuer{issuerID: issuerID, key: key}, nil
}

// Issue reads the identity's current secret from secrets and returns a token
// bound to it.
func (i *Issuer) Issue(ctx context.Context, secrets SecretSource, identityID string) (string, error) {
	secret, err := secrets.RevocationSecret(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", ErrIdentityNotFound
		}
		return "", err
	}
	return i.Sign(identityID, secret)
}

// Sign builds a token for identityID bound to secret.
func (i *Issuer) Sign(identityID string, secret []byte) (string, error) {
	if i.key == nil {
		return "", fmt.Errorf("%w: no private key", ErrSigning)
	}

	nonce, err := shared.MakeRandHexString(nonceSize)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	payload, err := encode(Version, i.issuerID, identityID, revocation.Digest(secret), nonce)
	if err != nil {
		return "", err
	}

	sig, err := signingMethod.Sign(payload, i.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigning, err)
	}

	return payload + Delimiter + hex.EncodeToString(sig), nil
}
