// Package identities provides the PostgreSQL-backed identity store.
package identities

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/dmitrijs2005/keuthlie/internal/dbx"
	"github.com/dmitrijs2005/keuthlie/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation    = "23505"
	usernameConstraint = "keuthlie_auth_username_key"
	emailConstraint    = "keuthlie_auth_email_key"
)

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the identity without a revocation secret; callers initialise
// the secret in the same transaction. Unique violations are reported as
// common.ErrUsernameTaken or common.ErrEmailInUse.
func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) error {
	query :=
		`INSERT INTO keuthlie_auth (id, username, email, passhash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		identity.ID, identity.UserName, identity.Email, identity.PassHash).Scan(&identity.CreatedAt)
	if err != nil {
		return translateInsertError(err)
	}

	return nil
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM keuthlie_auth WHERE username = $1)`, username)
}

func (r *PostgresRepository) EmailInUse(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM keuthlie_auth WHERE email = $1)`, email)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query :=
		`SELECT id, username, email, passhash, revocation_secret, created_at FROM keuthlie_auth
		 WHERE email = $1`

	return r.getOne(ctx, query, email)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	query :=
		`SELECT id, username, email, passhash, revocation_secret, created_at FROM keuthlie_auth
		 WHERE id = $1`

	return r.getOne(ctx, query, id)
}

// RevocationSecret returns the identity's current secret, or
// common.ErrorNotFound when there is no identity or no secret on record.
func (r *PostgresRepository) RevocationSecret(ctx context.Context, id string) ([]byte, error) {
	query := `SELECT revocation_secret FROM keuthlie_auth WHERE id = $1`

	var secret []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&secret)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if len(secret) == 0 {
		return nil, common.ErrorNotFound
	}

	return secret, nil
}

func (r *PostgresRepository) SetRevocationSecret(ctx context.Context, id string, secret []byte) error {
	query :=
		`UPDATE keuthlie_auth SET revocation_secret = $2
		 WHERE id = $1`

	return r.updateOne(ctx, query, id, secret)
}

// UpdateCredentials replaces passhash and revocation_secret in one statement,
// so no reader can observe one without the other.
func (r *PostgresRepository) UpdateCredentials(ctx context.Context, id string, creds models.Credentials) error {
	query :=
		`UPDATE keuthlie_auth SET passhash = $2, revocation_secret = $3
		 WHERE id = $1`

	return r.updateOne(ctx, query, id, creds.PassHash, creds.RevocationSecret)
}

// UpdatePassHash rewrites passhash only. The revocation secret, and with it
// every issued token, is left alone.
func (r *PostgresRepository) UpdatePassHash(ctx context.Context, id, passhash string) error {
	query :=
		`UPDATE keuthlie_auth SET passhash = $2
		 WHERE id = $1`

	return r.updateOne(ctx, query, id, passhash)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg string) (*models.Identity, error) {
	identity := &models.Identity{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&identity.ID, &identity.UserName, &identity.Email, &identity.PassHash,
		&identity.RevocationSecret, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return identity, nil
}

func (r *PostgresRepository) updateOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return common.ErrUsernameTaken
		case emailConstraint:
			return common.ErrEmailInUse
		}
	}
	return fmt.Errorf("db error: %w", err)
}
