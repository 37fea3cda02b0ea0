package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/cryptox"
	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/dmitrijs2005/keuthlie/internal/server/revocation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	password    = "correct horse battery"
	newPassword = "staple staple staple"
)

func expectTx(mock sqlmock.Sqlmock, commit bool) {
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func register(t *testing.T, svc *AuthService, mock sqlmock.Sqlmock, username, email string) string {
	t.Helper()
	expectTx(mock, true)
	id, err := svc.Register(context.Background(), username, email, password)
	require.NoError(t, err)
	return id
}

func TestRegister_Success(t *testing.T) {
	svc, mock, repo := newTestService(t)

	id := register(t, svc, mock, "alice", "alice@example.org")

	require.Len(t, repo.byID, 1)
	stored := repo.byID[id]
	assert.Equal(t, "alice", stored.UserName)
	assert.Equal(t, "alice@example.org", stored.Email)
	assert.True(t, strings.HasPrefix(stored.PassHash, "$argon2id$v=19$"))
	assert.Len(t, stored.RevocationSecret, revocation.SecretSize)
	assert.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14], "uuid version 7")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_PasswordTooShortTouchesNoStore(t *testing.T) {
	svc, mock, repo := newTestService(t)

	for _, pw := range []string{"", "short", "12345678", "ééééééé€"} {
		_, err := svc.Register(context.Background(), "bob", "bob@example.org", pw)
		assert.ErrorIs(t, err, common.ErrPasswordTooShort, pw)
	}

	assert.Zero(t, repo.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_NineRunesAccepted(t *testing.T) {
	svc, mock, _ := newTestService(t)
	expectTx(mock, true)

	_, err := svc.Register(context.Background(), "carol", "carol@example.org", "ééééééééé")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateUsernameLeavesStoreUnchanged(t *testing.T) {
	svc, mock, repo := newTestService(t)
	id := register(t, svc, mock, "alice", "alice@example.org")
	before := *repo.byID[id]

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "alice", "other@example.org", password)
	assert.ErrorIs(t, err, common.ErrUsernameTaken)

	require.Len(t, repo.byID, 1)
	assert.Equal(t, before, *repo.byID[id])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, mock, repo := newTestService(t)
	register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "alice2", "alice@example.org", password)
	assert.ErrorIs(t, err, common.ErrEmailInUse)
	assert.Len(t, repo.byID, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_UniqueViolationOnInsert(t *testing.T) {
	svc, mock, repo := newTestService(t)
	repo.createErr = common.ErrUsernameTaken

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "racer", "racer@example.org", password)
	assert.ErrorIs(t, err, common.ErrUsernameTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_InsertFailureRollsBack(t *testing.T) {
	svc, mock, repo := newTestService(t)
	repo.createErr = errors.New("disk full")

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "dave", "dave@example.org", password)
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "disk full")
	assert.Empty(t, repo.byID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_SecretInitFailureRollsBack(t *testing.T) {
	svc, mock, repo := newTestService(t)
	repo.setSecretErr = errors.New("timeout")

	expectTx(mock, false)
	_, err := svc.Register(context.Background(), "erin", "erin@example.org", password)
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegister_BeginFailure(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	_, err := svc.Register(context.Background(), "frank", "frank@example.org", password)
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestLogin_Success(t *testing.T) {
	svc, mock, _ := newTestService(t)
	id := register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, true)
	res, err := svc.Login(context.Background(), "alice@example.org", password, "echoir")
	require.NoError(t, err)
	assert.Equal(t, id, res.ID)
	assert.Len(t, strings.Split(res.Token, "$"), 6)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_Failures(t *testing.T) {
	svc, mock, _ := newTestService(t)
	register(t, svc, mock, "alice", "alice@example.org")

	tests := []struct {
		name     string
		email    string
		password string
		service  string
		want     error
	}{
		{"unknown email", "nobody@example.org", password, "echoir", common.ErrInvalidCredentials},
		{"wrong password", "alice@example.org", "not the password", "echoir", common.ErrInvalidCredentials},
		{"service not allowed", "alice@example.org", password, "elsewhere", common.ErrServiceNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectTx(mock, false)
			_, err := svc.Login(context.Background(), tt.email, tt.password, tt.service)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_UpgradesWeakHash(t *testing.T) {
	svc, mock, repo := newTestService(t)
	ctx := context.Background()
	id := register(t, svc, mock, "alice", "alice@example.org")

	weak, err := cryptox.NewArgon2(cryptox.Params{Memory: 4 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	oldHash, err := weak.Hash(password)
	require.NoError(t, err)
	repo.byID[id].PassHash = oldHash
	secret := append([]byte(nil), repo.byID[id].RevocationSecret...)

	expectTx(mock, true)
	first, err := svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.rehashes)
	upgraded := repo.byID[id].PassHash
	assert.NotEqual(t, oldHash, upgraded)
	stale, err := svc.hasher.NeedsUpgrade(upgraded)
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Equal(t, secret, repo.byID[id].RevocationSecret)

	got, err := svc.VerifyToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	expectTx(mock, true)
	_, err = svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)
	assert.Equal(t, 1, repo.rehashes)
	assert.Equal(t, upgraded, repo.byID[id].PassHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_NoUpgradeOnRejectedLogin(t *testing.T) {
	svc, mock, repo := newTestService(t)
	id := register(t, svc, mock, "alice", "alice@example.org")

	weak, err := cryptox.NewArgon2(cryptox.Params{Memory: 4 * 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	oldHash, err := weak.Hash(password)
	require.NoError(t, err)
	repo.byID[id].PassHash = oldHash

	expectTx(mock, false)
	_, err = svc.Login(context.Background(), "alice@example.org", "not the password", "echoir")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Zero(t, repo.rehashes)
	assert.Equal(t, oldHash, repo.byID[id].PassHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_ShortPasswordNoQuery(t *testing.T) {
	svc, mock, repo := newTestService(t)

	_, err := svc.Login(context.Background(), "alice@example.org", "short", "echoir")
	assert.ErrorIs(t, err, common.ErrPasswordTooShort)
	assert.Zero(t, repo.calls)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	svc, mock, repo := newTestService(t)
	repo.getErr = errors.New("connection reset")

	expectTx(mock, false)
	_, err := svc.Login(context.Background(), "alice@example.org", password, "echoir")
	assert.ErrorIs(t, err, common.ErrorInternal)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyToken(t *testing.T) {
	svc, mock, _ := newTestService(t)
	id := register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, true)
	res, err := svc.Login(context.Background(), "alice@example.org", password, "echoir")
	require.NoError(t, err)

	got, err := svc.VerifyToken(context.Background(), res.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = svc.VerifyToken(context.Background(), "garbage")
	assert.Equal(t, common.ErrInvalidToken, err)
}

func TestScenario_RegisterLoginVerifyRevoke(t *testing.T) {
	svc, mock, _ := newTestService(t)
	ctx := context.Background()

	id := register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, true)
	first, err := svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)

	got, err := svc.VerifyToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	expectTx(mock, true)
	revoked, err := svc.RevokeAll(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, id, revoked)

	_, err = svc.VerifyToken(ctx, first.Token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	expectTx(mock, true)
	second, err := svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)

	got, err = svc.VerifyToken(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAll_InvalidToken(t *testing.T) {
	svc, mock, _ := newTestService(t)

	expectTx(mock, false)
	_, err := svc.RevokeAll(context.Background(), "00$keuthlie$x$y$z$00")
	assert.Equal(t, common.ErrInvalidToken, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangePassword(t *testing.T) {
	svc, mock, repo := newTestService(t)
	ctx := context.Background()
	id := register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, true)
	login, err := svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)
	oldHash := repo.byID[id].PassHash

	expectTx(mock, true)
	changed, err := svc.ChangePassword(ctx, login.Token, password, newPassword)
	require.NoError(t, err)
	assert.Equal(t, id, changed.ID)
	assert.NotEqual(t, oldHash, repo.byID[id].PassHash)

	_, err = svc.VerifyToken(ctx, login.Token)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	got, err := svc.VerifyToken(ctx, changed.Token)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	expectTx(mock, false)
	_, err = svc.Login(ctx, "alice@example.org", password, "echoir")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	expectTx(mock, true)
	_, err = svc.Login(ctx, "alice@example.org", newPassword, "echoir")
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangePassword_Rejections(t *testing.T) {
	svc, mock, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, mock, "alice", "alice@example.org")

	expectTx(mock, true)
	login, err := svc.Login(ctx, "alice@example.org", password, "echoir")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, login.Token, password, "short")
	assert.ErrorIs(t, err, common.ErrPasswordTooShort)

	expectTx(mock, false)
	_, err = svc.ChangePassword(ctx, login.Token, "wrong password!", newPassword)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	expectTx(mock, false)
	_, err = svc.ChangePassword(ctx, "not-a-token", password, newPassword)
	assert.Equal(t, common.ErrInvalidToken, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewAuthService_RejectsIssuerWithDelimiter(t *testing.T) {
	cfg := testConfig()
	cfg.IssuerID = "keuthlie$eu"

	_, err := NewAuthService(nil, &fakeRepoManager{repo: newMemIdentities()}, cfg, testKeys(t), logging.Nop())
	assert.Error(t, err)
}
