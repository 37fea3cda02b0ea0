// Package services contains server-side business logic. AuthService runs
// the registration, login and token flows against the identity store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/cryptox"
	"github.com/dmitrijs2005/keuthlie/internal/dbx"
	"github.com/dmitrijs2005/keuthlie/internal/logging"
	"github.com/dmitrijs2005/keuthlie/internal/server/config"
	"github.com/dmitrijs2005/keuthlie/internal/server/keys"
	"github.com/dmitrijs2005/keuthlie/internal/server/models"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/identities"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/keuthlie/internal/server/revocation"
	"github.com/dmitrijs2005/keuthlie/internal/server/token"
	"github.com/google/uuid"
)

// LoginResult is what a successful login or password change hands back.
type LoginResult struct {
	ID    string
	Token string
}

// AuthService is built once at startup and shared by every request.
type AuthService struct {
	db                *sql.DB
	repomanager       repomanager.RepositoryManager
	hasher            *cryptox.Argon2
	issuer            *token.Issuer
	verifier          *token.Verifier
	secrets           *revocation.Manager
	allowedServices   map[string]struct{}
	minPasswordLength int
	queryTimeout      time.Duration
	dummyHash         string
	logger            logging.Logger
	newID             func() (string, error)
}

func newUUIDv7() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewAuthService constructs an AuthService from server config and key material.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, kp *keys.KeyPair, logger logging.Logger) (*AuthService, error) {
	hasher, err := cryptox.NewArgon2(cfg.Argon2)
	if err != nil {
		return nil, err
	}

	// verified against on unknown e-mails so both login failures cost one argon2 run
	dummy, err := hasher.Hash("keuthlie-timing-equaliser")
	if err != nil {
		return nil, err
	}

	issuer, err := token.NewIssuer(cfg.IssuerID, kp.Private)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedServices))
	for _, s := range cfg.AllowedServices {
		allowed[s] = struct{}{}
	}

	return &AuthService{
		db:                db,
		repomanager:       m,
		hasher:            hasher,
		issuer:            issuer,
		verifier:          token.NewVerifier(kp.Public),
		secrets:           revocation.NewManager(),
		allowedServices:   allowed,
		minPasswordLength: cfg.MinPasswordLength,
		queryTimeout:      cfg.QueryTimeout,
		dummyHash:         dummy,
		logger:            logger.With("module", "auth"),
		newID:             newUUIDv7,
	}, nil
}

func (s *AuthService) checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) <= s.minPasswordLength {
		return common.ErrPasswordTooShort
	}
	return nil
}

func (s *AuthService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// internal logs err with detail and returns the opaque common.ErrorInternal.
func (s *AuthService) internal(ctx context.Context, flow string, err error) error {
	s.logger.Error(ctx, "flow failed", "flow", flow, "error", err)
	return common.ErrorInternal
}

// Register creates an identity and returns its id. The username and e-mail
// must be unused and the password longer than the configured minimum.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (string, error) {
	if err := s.checkPasswordLength(password); err != nil {
		return "", err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		taken, err := repo.UsernameTaken(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return common.ErrUsernameTaken
		}

		inUse, err := repo.EmailInUse(ctx, email)
		if err != nil {
			return err
		}
		if inUse {
			return common.ErrEmailInUse
		}

		hash, err := s.hasher.Hash(password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		newID, err := s.newID()
		if err != nil {
			return fmt.Errorf("generate id: %w", err)
		}

		identity := &models.Identity{ID: newID, UserName: username, Email: email, PassHash: hash}
		if err := repo.Create(ctx, identity); err != nil {
			return err
		}

		if err := s.secrets.Initialize(ctx, repo, identity.ID); err != nil {
			return err
		}

		id = identity.ID
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info(ctx, "identity registered", "id", id)
		return id, nil
	case errors.Is(err, common.ErrUsernameTaken), errors.Is(err, common.ErrEmailInUse):
		return "", err
	default:
		return "", s.internal(ctx, "register", err)
	}
}

// Login checks the credentials and returns a token for the identity. The
// service must be on the allow-list. A passhash created with weaker argon2
// parameters than configured is rehashed in the same transaction.
func (s *AuthService) Login(ctx context.Context, email, password, service string) (*LoginResult, error) {
	if err := s.checkPasswordLength(password); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res *LoginResult
	err := dbx.WithTx(ctx, s.db, dbx.RepeatableRead, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		identity, err := repo.GetByEmail(ctx, email)
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(s.dummyHash, password)
			return common.ErrInvalidCredentials
		}
		if err != nil {
			return err
		}

		ok, err := s.hasher.Verify(identity.PassHash, password)
		if err != nil {
			return fmt.Errorf("verify password hash: %w", err)
		}
		if !ok {
			return common.ErrInvalidCredentials
		}

		if _, allowed := s.allowedServices[service]; !allowed {
			return common.ErrServiceNotAllowed
		}

		if err := s.upgradeHash(ctx, repo, identity, password); err != nil {
			return err
		}

		tok, err := s.issuer.Issue(ctx, repo, identity.ID)
		if err != nil {
			return err
		}

		res = &LoginResult{ID: identity.ID, Token: tok}
		return nil
	})

	switch {
	case err == nil:
		return res, nil
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrServiceNotAllowed):
		return nil, err
	default:
		return nil, s.internal(ctx, "login", err)
	}
}

func (s *AuthService) upgradeHash(ctx context.Context, repo identities.Repository, identity *models.Identity, password string) error {
	stale, err := s.hasher.NeedsUpgrade(identity.PassHash)
	if err != nil {
		return fmt.Errorf("inspect password hash: %w", err)
	}
	if !stale {
		return nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := repo.UpdatePassHash(ctx, identity.ID, hash); err != nil {
		return err
	}

	s.logger.Info(ctx, "password hash upgraded", "id", identity.ID)
	return nil
}

// VerifyToken returns the identity id a token was issued to. Any rejection
// is reported as common.ErrInvalidToken.
func (s *AuthService) VerifyToken(ctx context.Context, tok string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	id, err := s.verifier.Verify(ctx, s.repomanager.Identities(s.db), tok)
	if err != nil {
		return "", s.tokenError(ctx, "verify", err)
	}
	return id, nil
}

func (s *AuthService) tokenError(ctx context.Context, flow string, err error) error {
	if errors.Is(err, common.ErrInvalidToken) {
		s.logger.Debug(ctx, "token rejected", "flow", flow, "reason", err.Error())
		return common.ErrInvalidToken
	}
	return s.internal(ctx, flow, err)
}

// ChangePassword replaces the password of the token's identity and rotates
// its revocation secret in one statement, so every earlier token stops
// verifying. It returns a token bound to the new secret.
func (s *AuthService) ChangePassword(ctx context.Context, tok, password, newPassword string) (*LoginResult, error) {
	if err := s.checkPasswordLength(newPassword); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var res *LoginResult
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		id, err := s.verifier.Verify(ctx, repo, tok)
		if err != nil {
			return err
		}

		identity, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		ok, err := s.hasher.Verify(identity.PassHash, password)
		if err != nil {
			return fmt.Errorf("verify password hash: %w", err)
		}
		if !ok {
			return common.ErrInvalidCredentials
		}

		hash, err := s.hasher.Hash(newPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		secret, err := s.secrets.Fresh()
		if err != nil {
			return err
		}

		if err := repo.UpdateCredentials(ctx, id, models.Credentials{PassHash: hash, RevocationSecret: secret}); err != nil {
			return err
		}

		newTok, err := s.issuer.Sign(id, secret)
		if err != nil {
			return err
		}

		res = &LoginResult{ID: id, Token: newTok}
		return nil
	})

	switch {
	case err == nil:
		s.logger.Info(ctx, "password changed", "id", res.ID)
		return res, nil
	case errors.Is(err, common.ErrInvalidCredentials):
		return nil, err
	default:
		return nil, s.tokenError(ctx, "change_password", err)
	}
}

// RevokeAll rotates the revocation secret of the token's identity,
// invalidating every token issued to it including this one.
func (s *AuthService) RevokeAll(ctx context.Context, tok string) (string, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var id string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Identities(tx)

		var err error
		id, err = s.verifier.Verify(ctx, repo, tok)
		if err != nil {
			return err
		}

		return s.secrets.Rotate(ctx, repo, id)
	})
	if err != nil {
		return "", s.tokenError(ctx, "revoke", err)
	}

	s.logger.Info(ctx, "tokens revoked", "id", id)
	return id, nil
}
