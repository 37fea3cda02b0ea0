package sessions

import (
	"context"
	"time"
)

// Session is the last token obtained from a server.
type Session struct {
	Server     string
	IdentityID string
	Token      string
	UpdatedAt  time.Time
}

// Repository persists one session per server URL.
type Repository interface {
	Get(ctx context.Context, server string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, server string) error
}
