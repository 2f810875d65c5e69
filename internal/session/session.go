package session

import (
	"context"
	"errors"
	"time"

	"github.com/tattva-health/portal-service/internal/auth"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrInvalidToken    = errors.New("invalid session token")
)

// Session is the server-held half of a login. The client only carries a
// signed token naming ID.
type Session struct {
	ID        string         `json:"id"`
	Principal auth.Principal `json:"principal"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// Store persists sessions until they expire or are deleted.
// Get returns ErrSessionNotFound for missing or expired sessions.
// PurgeExpired removes sessions whose expiry is not after now.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
