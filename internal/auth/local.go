package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
)

// Local implements Provider over the users table.
type Local struct {
	store    store.Store
	sessions SessionStore
	events   chan Event

	mu      sync.Mutex
	current *model.User
}

// NewLocal creates a local auth provider. It restores a persisted
// session if the session store holds one.
func NewLocal(ctx context.Context, s store.Store, sessions SessionStore) (*Local, error) {
	l := &Local{
		store:    s,
		sessions: sessions,
		events:   make(chan Event, 4),
	}

	userID, err := sessions.Load()
	if err != nil {
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	if userID != "" {
		u, err := s.GetUserByID(ctx, userID)
		if err == nil {
			l.current = u
		}
		// A stale session id is ignored; the user signs in again.
	}

	return l, nil
}

// CurrentUser returns the signed-in user.
func (l *Local) CurrentUser(ctx context.Context) (*model.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.current == nil {
		return nil, errs.NotFound("session", "current")
	}
	u := *l.current
	return &u, nil
}

// SignIn authenticates by email and password and opens a session.
func (l *Local) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	u, err := l.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, errs.Unauthorized("sign in")
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, errs.Unauthorized("sign in")
	}

	if err := l.sessions.Save(u.ID); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	l.mu.Lock()
	l.current = u
	l.mu.Unlock()

	l.send(Event{Kind: EventLogin, User: u})
	return u, nil
}

// SignUp provisions a new account and opens a session for it.
func (l *Local) SignUp(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return nil, errs.Validation("email", "must not be blank")
	case len(password) < 8:
		return nil, errs.Validation("password", "must be at least 8 characters")
	case strings.TrimSpace(name) == "":
		return nil, errs.Validation("name", "must not be blank")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	u := model.User{
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
	}
	if err := l.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	created, err := l.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("reading new account: %w", err)
	}

	if err := l.sessions.Save(created.ID); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}

	l.mu.Lock()
	l.current = created
	l.mu.Unlock()

	l.send(Event{Kind: EventLogin, User: created})
	return created, nil
}

// SignOut closes the active session.
func (l *Local) SignOut(ctx context.Context) error {
	if err := l.sessions.Clear(); err != nil {
		return err
	}

	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()

	l.send(Event{Kind: EventLogout})
	return nil
}

// UpdateEmail changes the signed-in user's own email address.
func (l *Local) UpdateEmail(ctx context.Context, newEmail string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" {
		return errs.Validation("email", "must not be blank")
	}

	l.mu.Lock()
	current := l.current
	l.mu.Unlock()

	if current == nil {
		return errs.Unauthorized("update email")
	}

	u := *current
	u.Email = newEmail
	if err := l.store.UpdateUser(ctx, u); err != nil {
		return fmt.Errorf("updating email: %w", err)
	}

	l.mu.Lock()
	l.current = &u
	l.mu.Unlock()

	return nil
}

// SetRole changes another user's role. Admin only; a user cannot change
// their own role even as admin's target.
func (l *Local) SetRole(ctx context.Context, actor policy.Actor, userID string, role model.Role) error {
	if actor.Role != model.RoleAdmin {
		return errs.Unauthorized("set role")
	}

	if _, err := l.store.GetUserByID(ctx, userID); err != nil {
		return fmt.Errorf("looking up user %s: %w", userID, err)
	}

	if err := l.store.UpdateUserRole(ctx, userID, role); err != nil {
		return fmt.Errorf("updating role for %s: %w", userID, err)
	}
	return nil
}

// Events returns the channel session changes are pushed on.
func (l *Local) Events() <-chan Event {
	return l.events
}

// send pushes an event without blocking.
func (l *Local) send(e Event) {
	select {
	case l.events <- e:
	default:
	}
}
