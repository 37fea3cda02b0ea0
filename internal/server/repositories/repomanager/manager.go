package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/keuthlie/internal/dbx"
	"github.com/dmitrijs2005/keuthlie/internal/server/repositories/identities"
)

// RepositoryManager vends repositories bound to a pool or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db dbx.DBTX) identities.Repository
}
