package identities

import (
	"context"

	"github.com/dmitrijs2005/keuthlie/internal/server/models"
)

// Repository is the identity store as seen by the auth flows. Implementations
// are bound to a dbx.DBTX, so the same code runs on the pool or inside a
// transaction.
type Repository interface {
	Create(ctx context.Context, identity *models.Identity) error
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailInUse(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	RevocationSecret(ctx context.Context, id string) ([]byte, error)
	SetRevocationSecret(ctx context.Context, id string, secret []byte) error
	UpdateCredentials(ctx context.Context, id string, creds models.Credentials) error
	UpdatePassHash(ctx context.Context, id, passhash string) error
}
