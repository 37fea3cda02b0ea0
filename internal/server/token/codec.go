// Package token issues and verifies keuthlie authentication tokens.
//
// A token is six fields joined by Delimiter:
//
//	version$issuerId$identityId$secretDigest$nonce$signature
//
// The signature covers the first five fields joined by Delimiter.
package token

import (
	"fmt"
	"strings"
)

const (
	Delimiter = "$"
	Version   = "00"

	payloadFields = 5
	tokenFields   = payloadFields + 1
	nonceSize     = 32
)

// encode joins fields with Delimiter, refusing any field that contains it.
func encode(fields ...string) (string, error) {
	for i, f := range fields {
		if strings.Contains(f, Delimiter) {
			return "", fmt.Errorf("%w: field %d", ErrDelimiterInField, i)
		}
	}
	return strings.Join(fields, Delimiter), nil
}

// decode splits a token into exactly tokenFields fields.
func decode(token string) ([]string, error) {
	fields := strings.Split(token, Delimiter)
	if len(fields) != tokenFields {
		return nil, ErrMalformedToken
	}
	return fields, nil
}
