// Package auth provides session-based identity. The application core
// consumes the Provider interface; the local implementation keeps
// accounts in the store with bcrypt password hashes and persists the
// active session in the system keyring.
package auth

import (
	"context"

	"github.com/ymori/salesdesk/internal/model"
)

// EventKind classifies a session change.
type EventKind int

const (
	EventLogin EventKind = iota
	EventLogout
)

// Event is pushed to the application when the session changes.
type Event struct {
	Kind EventKind
	User *model.User // nil on logout
}

// Provider is the session identity contract.
type Provider interface {
	// CurrentUser returns the signed-in user, or ErrNotFound-wrapped
	// error when no session is active.
	CurrentUser(ctx context.Context) (*model.User, error)

	// SignIn authenticates by email and password and opens a session.
	SignIn(ctx context.Context, email, password string) (*model.User, error)

	// SignUp provisions a new account and opens a session for it.
	SignUp(ctx context.Context, email, password, name string, role model.Role) (*model.User, error)

	// SignOut closes the active session.
	SignOut(ctx context.Context) error

	// UpdateEmail changes the signed-in user's own email address.
	UpdateEmail(ctx context.Context, newEmail string) error

	// Events returns the channel session changes are pushed on.
	Events() <-chan Event
}
