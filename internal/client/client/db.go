package client

import (
	"context"
	"database/sql"
	"path/filepath"

	"github.com/dmitrijs2005/keuthlie/internal/client/migrations"
	"github.com/dmitrijs2005/keuthlie/internal/filex"
	"github.com/dmitrijs2005/keuthlie/internal/client/repositories/sessions"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores of the CLI.
type Repositories struct {
	DB       *sql.DB
	Sessions sessions.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if needed) the SQLite database at path and
// applies the embedded migrations.
func InitDatabase(ctx context.Context, path string) (*Repositories, error) {
	if dir := filepath.Dir(path); dir != "." {
		if _, err := filex.EnsureDir(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Repositories{DB: db, Sessions: sessions.NewSQLiteRepository(db)}, nil
}
