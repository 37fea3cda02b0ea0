package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	keyOnce sync.Once
	testKey *rsa.PrivateKey
)

func privateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

type memSecrets struct {
	m       map[string][]byte
	err     error
	lookups int
}

func (s *memSecrets) RevocationSecret(_ context.Context, id string) ([]byte, error) {
	s.lookups++
	if s.err != nil {
		return nil, s.err
	}
	secret, ok := s.m[id]
	if !ok || secret == nil {
		return nil, common.ErrorNotFound
	}
	return secret, nil
}

func setup(t *testing.T) (*Issuer, *Verifier, *memSecrets) {
	k := privateKey(t)
	secrets := &memSecrets{m: map[string][]byte{
		"0190a0b4-7a5e-7c3e-9f00-000000000001": []byte("first-secret"),
	}}
	iss, err := NewIssuer("", k)
	require.NoError(t, err)
	return iss, NewVerifier(&k.PublicKey), secrets
}

const id = "0190a0b4-7a5e-7c3e-9f00-000000000001"

func TestIssueVerify_RoundTrip(t *testing.T) {
	iss, ver, secrets := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)

	fields := strings.Split(tok, Delimiter)
	require.Len(t, fields, 6)
	assert.Equal(t, Version, fields[0])
	assert.Equal(t, common.DefaultIssuerID, fields[1])
	assert.Equal(t, id, fields[2])
	assert.Len(t, fields[3], 128)
	assert.Len(t, fields[4], 64)

	got, err := ver.Verify(ctx, secrets, tok)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestIssue_NoncesDiffer(t *testing.T) {
	iss, _, secrets := setup(t)
	a, err := iss.Issue(context.Background(), secrets, id)
	require.NoError(t, err)
	b, err := iss.Issue(context.Background(), secrets, id)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestIssue_Errors(t *testing.T) {
	iss, _, secrets := setup(t)
	ctx := context.Background()

	_, err := iss.Issue(ctx, secrets, "nobody")
	assert.ErrorIs(t, err, ErrIdentityNotFound)

	secrets.m["bad$id"] = []byte("s")
	_, err = iss.Issue(ctx, secrets, "bad$id")
	assert.ErrorIs(t, err, ErrDelimiterInField)

	noKey, err := NewIssuer("x", nil)
	require.NoError(t, err)
	_, err = noKey.Issue(ctx, secrets, id)
	assert.ErrorIs(t, err, ErrSigning)

	boom := errors.New("conn reset")
	secrets.err = boom
	_, err = iss.Issue(ctx, secrets, id)
	assert.ErrorIs(t, err, boom)
}

func TestVerify_RevokedAfterRotate(t *testing.T) {
	iss, ver, secrets := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)

	secrets.m[id] = []byte("rotated-secret")

	_, err = ver.Verify(ctx, secrets, tok)
	assert.ErrorIs(t, err, ErrRevokedToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	fresh, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)
	got, err := ver.Verify(ctx, secrets, fresh)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_UnknownIdentity(t *testing.T) {
	iss, ver, secrets := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)
	delete(secrets.m, id)

	_, err = ver.Verify(ctx, secrets, tok)
	assert.ErrorIs(t, err, ErrUnknownIdentity)
}

func TestVerify_FlippedSignatureByte(t *testing.T) {
	iss, ver, secrets := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)

	b := []byte(tok)
	last := len(b) - 1
	if b[last] == '0' {
		b[last] = '1'
	} else {
		b[last] = '0'
	}
	secrets.lookups = 0

	assert.NotPanics(t, func() {
		_, err = ver.Verify(ctx, secrets, string(b))
	})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	assert.Zero(t, secrets.lookups)
}

func TestVerify_TamperedPayload(t *testing.T) {
	iss, ver, secrets := setup(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, secrets, id)
	require.NoError(t, err)

	forged := strings.Replace(tok, id, "0190a0b4-7a5e-7c3e-9f00-000000000002", 1)
	_, err = ver.Verify(ctx, secrets, forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_OtherKeyRejected(t *testing.T) {
	iss, _, secrets := setup(t)
	other, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	tok, err := iss.Issue(context.Background(), secrets, id)
	require.NoError(t, err)

	_, err = NewVerifier(&other.PublicKey).Verify(context.Background(), secrets, tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_MalformedInputs(t *testing.T) {
	_, ver, secrets := setup(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrMalformedToken},
		{"too few fields", "00$keuthlie$id$digest$nonce", ErrMalformedToken},
		{"too many fields", "00$a$b$c$d$e$f", ErrMalformedToken},
		{"bad version", "01$keuthlie$id$digest$nonce$abcd", ErrUnsupportedVersion},
		{"non-hex signature", "00$keuthlie$id$digest$nonce$zz", ErrInvalidSignature},
		{"empty signature", "00$keuthlie$id$digest$nonce$", ErrInvalidSignature},
		{"short signature", "00$keuthlie$id$digest$nonce$abcd", ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			assert.NotPanics(t, func() {
				_, err = ver.Verify(ctx, secrets, tt.token)
			})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, common.ErrInvalidToken)
		})
	}
	assert.Zero(t, secrets.lookups)
}

func TestVerify_NilPublicKey(t *testing.T) {
	iss, _, secrets := setup(t)
	tok, err := iss.Issue(context.Background(), secrets, id)
	require.NoError(t, err)

	_, err = NewVerifier(nil).Verify(context.Background(), secrets, tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerify_StoreFailureIsNotInvalidToken(t *testing.T) {
	iss, ver, secrets := setup(t)
	tok, err := iss.Issue(context.Background(), secrets, id)
	require.NoError(t, err)

	secrets.err = errors.New("timeout")
	_, err = ver.Verify(context.Background(), secrets, tok)
	require.Error(t, err)
	assert.False(t, errors.Is(err, common.ErrInvalidToken))
}

func TestEncode_RejectsDelimiter(t *testing.T) {
	_, err := encode("00", "iss", "a$b")
	assert.ErrorIs(t, err, ErrDelimiterInField)

	s, err := encode("a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a$b", s)
}

func TestNewIssuer_RejectsDelimiterInIssuerID(t *testing.T) {
	_, err := NewIssuer("keuthlie$eu", privateKey(t))
	assert.ErrorIs(t, err, ErrDelimiterInField)
}
