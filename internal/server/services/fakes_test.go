package services

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/cryptox"
	"github.com/dmitrijs2005/keuthlie/internal/dbx"
	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/dmitrijs2005/keuthlie/internal/server/config"
	"github.com/dmitrijs2005/keuthlie/internal/server/keys"
	"github.com/dmitrijs2005/keuthlie/internal/server/models"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/identities"
	"github.com/stretchr/testify/require"
)

// memIdentities is an in-memory identities.Repository.
type memIdentities struct {
	byID     map[string]*models.Identity
	calls    int
	rehashes int

	createErr    error
	getErr       error
	setSecretErr error
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byID: map[string]*models.Identity{}}
}

var _ identities.Repository = (*memIdentities)(nil)

func (m *memIdentities) Create(_ context.Context, identity *models.Identity) error {
	m.calls++
	if m.createErr != nil {
		return m.createErr
	}
	for _, v := range m.byID {
		if v.UserName == identity.UserName {
			return common.ErrUsernameTaken
		}
		if v.Email == identity.Email {
			return common.ErrEmailInUse
		}
	}
	cp := *identity
	cp.CreatedAt = time.Now()
	identity.CreatedAt = cp.CreatedAt
	m.byID[identity.ID] = &cp
	return nil
}

func (m *memIdentities) UsernameTaken(_ context.Context, username string) (bool, error) {
	m.calls++
	for _, v := range m.byID {
		if v.UserName == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memIdentities) EmailInUse(_ context.Context, email string) (bool, error) {
	m.calls++
	for _, v := range m.byID {
		if v.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memIdentities) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, v := range m.byID {
		if v.Email == email {
			cp := *v
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memIdentities) GetByID(_ context.Context, id string) (*models.Identity, error) {
	m.calls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	v, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *memIdentities) RevocationSecret(_ context.Context, id string) ([]byte, error) {
	m.calls++
	v, ok := m.byID[id]
	if !ok || v.RevocationSecret == nil {
		return nil, common.ErrorNotFound
	}
	return v.RevocationSecret, nil
}

func (m *memIdentities) SetRevocationSecret(_ context.Context, id string, secret []byte) error {
	m.calls++
	if m.setSecretErr != nil {
		return m.setSecretErr
	}
	v, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	v.RevocationSecret = secret
	return nil
}

func (m *memIdentities) UpdateCredentials(_ context.Context, id string, creds models.Credentials) error {
	m.calls++
	v, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	v.PassHash = creds.PassHash
	v.RevocationSecret = creds.RevocationSecret
	return nil
}

func (m *memIdentities) UpdatePassHash(_ context.Context, id, passhash string) error {
	m.calls++
	m.rehashes++
	v, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	v.PassHash = passhash
	return nil
}

type fakeRepoManager struct {
	repo *memIdentities
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Identities(dbx.DBTX) identities.Repository  { return f.repo }

var (
	keyOnce sync.Once
	keyPair *keys.KeyPair
)

func testKeys(t *testing.T) *keys.KeyPair {
	t.Helper()
	keyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		keyPair = &keys.KeyPair{Private: k, Public: &k.PublicKey}
	})
	return keyPair
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.AllowedServices = []string{"echoir"}
	cfg.Argon2 = cryptox.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	return cfg
}

func newTestService(t *testing.T) (*AuthService, sqlmock.Sqlmock, *memIdentities) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := newMemIdentities()
	svc, err := NewAuthService(db, &fakeRepoManager{repo: repo}, testConfig(), testKeys(t), logging.Nop())
	require.NoError(t, err)
	return svc, mock, repo
}
