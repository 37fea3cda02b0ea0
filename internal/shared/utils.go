// Package shared provides utility functions for working with
// random bytes, random strings and secure memory wiping.
package shared

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// randReader is a seam for tests that need the random source to fail.
var randReader io.Reader = rand.Reader

// GenerateRandBytes returns size bytes read from the cryptographic random source.
func GenerateRandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := io.ReadFull(randReader, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MakeRandHexString generates a random hexadecimal string of the given size.
// The size parameter specifies the number of random bytes to generate before
// encoding them as a hexadecimal string, so the final string length is twice
// the size.
//
// Example:
//
//	s, err := MakeRandHexString(32)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(s) // e.g., "9f2d4c3a5e6b1a7d..."
//
// It returns an error if the random number generator fails.
func MakeRandHexString(size int) (string, error) {
	b, err := GenerateRandBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// This is useful for removing sensitive data such as passwords
// from memory after use.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
