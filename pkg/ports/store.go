package ports

import (
	"context"

	"github.com/aretw0/muster/pkg/domain"
)

// SessionStore holds the coordination Session of each scope.
type SessionStore interface {
	// Save stores the session for a given scope.
	Save(ctx context.Context, scope string, session *domain.Session) error

	// Load retrieves the session for a given scope.
	// Returns domain.ErrSessionNotFound if the scope never started a session.
	Load(ctx context.Context, scope string) (*domain.Session, error)

	// Delete removes the session for a given scope.
	Delete(ctx context.Context, scope string) error

	// List returns the scopes that currently hold a session.
	List(ctx context.Context) ([]string, error)
}
