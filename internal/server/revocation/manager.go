package revocation

import (
	"context"
	"fmt"
)

// SecretWriter persists a new secret for an identity. It returns
// common.ErrorNotFound when the identity does not exist.
type SecretWriter interface {
	SetRevocationSecret(ctx context.Context, id string, secret []byte) error
}

// Manager creates and rotates revocation secrets.
type Manager struct {
	newSecret func() ([]byte, error)
}

func NewManager() *Manager {
	return &Manager{newSecret: NewSecret}
}

// Initialize stores the first secret of a freshly created identity. It must
// run in the same transaction as the insert.
func (m *Manager) Initialize(ctx context.Context, store SecretWriter, id string) error {
	return m.replace(ctx, store, id)
}

// Rotate replaces the identity's secret, revoking all outstanding tokens.
func (m *Manager) Rotate(ctx context.Context, store SecretWriter, id string) error {
	return m.replace(ctx, store, id)
}

// Fresh returns a new secret without storing it, for flows that write it
// together with other columns.
func (m *Manager) Fresh() ([]byte, error) {
	s, err := m.newSecret()
	if err != nil {
		return nil, fmt.Errorf("generate revocation secret: %w", err)
	}
	return s, nil
}

func (m *Manager) replace(ctx context.Context, store SecretWriter, id string) error {
	secret, err := m.Fresh()
	if err != nil {
		return err
	}
	return store.SetRevocationSecret(ctx, id, secret)
}
