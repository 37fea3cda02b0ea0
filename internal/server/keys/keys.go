// Package keys loads the RSA keypair used to sign and verify tokens. Keys are
// read once at startup from a local PEM file or an s3://bucket/key object.
package keys

import (
	"context"
	"crypto/rsa"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/keuthlie/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

const s3Scheme = "s3://"

// Source yields raw PEM bytes.
type Source interface {
	Load(ctx context.Context) ([]byte, error)
}

// FileSource reads PEM from the local filesystem.
type FileSource struct {
	Path string
}

func (f FileSource) Load(_ context.Context) ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", f.Path, err)
	}
	return b, nil
}

// KeyPair is the process key material.
type KeyPair struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Loader resolves key locations to sources.
type Loader struct {
	S3 S3Options
}

// Source returns the Source for location, which is either a file path or
// an s3://bucket/key URL.
func (l Loader) Source(ctx context.Context, location string) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("empty key location")
	}
	if !strings.HasPrefix(location, s3Scheme) {
		return FileSource{Path: location}, nil
	}

	bucket, key, ok := strings.Cut(strings.TrimPrefix(location, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 key location %q", location)
	}

	client, err := newS3Client(ctx, l.S3)
	if err != nil {
		return nil, err
	}
	return &S3Source{Client: client, Bucket: bucket, Key: key}, nil
}

// LoadPair reads and parses the private and public keys.
func (l Loader) LoadPair(ctx context.Context, privateLocation, publicLocation string) (*KeyPair, error) {
	priv, err := l.load(ctx, privateLocation)
	if err != nil {
		return nil, err
	}
	defer shared.WipeByteArray(priv)

	pub, err := l.load(ctx, publicLocation)
	if err != nil {
		return nil, err
	}
	return ParsePair(priv, pub)
}

func (l Loader) load(ctx context.Context, location string) ([]byte, error) {
	src, err := l.Source(ctx, location)
	if err != nil {
		return nil, err
	}
	return src.Load(ctx)
}

// ParsePair parses a PKCS#1 or PKCS#8 private key and a PKIX, PKCS#1 or
// certificate public key, and checks that they belong together.
func ParsePair(privatePEM, publicPEM []byte) (*KeyPair, error) {
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, fmt.Errorf("public key does not match private key")
	}
	return &KeyPair{Private: priv, Public: pub}, nil
}
