// Package sessions stores authctl tokens in the local SQLite database.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/keuthlie/internal/common"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get returns the saved session for server or common.ErrorNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, server string) (*Session, error) {
	s := &Session{Server: server}
	err := r.db.QueryRowContext(ctx,
		`SELECT identity_id, token, updated_at FROM sessions WHERE server = ?`, server).
		Scan(&s.IdentityID, &s.Token, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session[%s]: %w", server, err)
	}
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (server, identity_id, token, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(server) DO UPDATE SET
			identity_id = excluded.identity_id,
			token = excluded.token,
			updated_at = excluded.updated_at
	`, s.Server, s.IdentityID, s.Token)
	if err != nil {
		return fmt.Errorf("failed to save session[%s]: %w", s.Server, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, server string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE server = ?`, server)
	if err != nil {
		return fmt.Errorf("failed to delete session[%s]: %w", server, err)
	}
	return nil
}
