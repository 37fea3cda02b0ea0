package token

import "context"

// SecretSource yields the current revocation secret of an identity. It
// returns common.ErrorNotFound when the identity or its secret is absent.
type SecretSource interface {
	RevocationSecret(ctx context.Context, id string) ([]byte, error)
}
