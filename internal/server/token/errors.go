package token

import (
	"errors"

	"github.com/dmitrijs2005/keuthlie/internal/common"
)

// Issuing errors.
var (
	ErrIdentityNotFound = errors.New("identity has no revocation secret")
	ErrSigning          = errors.New("token signing failed")
	ErrDelimiterInField = errors.New("token field contains delimiter")
)

// verifyError is a verification failure reason. Every reason also matches
// common.ErrInvalidToken, which is all callers outside the server see.
type verifyError struct {
	reason string
}

func (e *verifyError) Error() string { return e.reason }

func (e *verifyError) Is(target error) bool {
	return target == common.ErrInvalidToken
}

// Verification failure reasons.
var (
	ErrMalformedToken     error = &verifyError{"malformed token"}
	ErrUnsupportedVersion error = &verifyError{"unsupported token version"}
	ErrInvalidSignature   error = &verifyError{"invalid token signature"}
	ErrUnknownIdentity    error = &verifyError{"unknown identity"}
	ErrRevokedToken       error = &verifyError{"revoked token"}
)
