package auth_test

import (
	"errors"
	"testing"

	"github.com/ymori/salesdesk/internal/auth"
	"github.com/ymori/salesdesk/internal/errs"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/tests/testutil"
)

func TestSignUpSignInSignOut(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	provider, err := auth.NewLocal(ctx, s, &auth.MemorySessionStore{})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	u, err := provider.SignUp(ctx, "sato@example.com", "correct horse", "sato", model.RoleSales)
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if u.Role != model.RoleSales {
		t.Fatalf("role: got %s", u.Role)
	}

	current, err := provider.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.Email != "sato@example.com" {
		t.Fatalf("current: %+v", current)
	}

	if err := provider.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if _, err := provider.CurrentUser(ctx); err == nil {
		t.Fatal("CurrentUser after sign out should fail")
	}

	if _, err := provider.SignIn(ctx, "sato@example.com", "wrong"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("bad password: got %v, want ErrUnauthorized", err)
	}
	if _, err := provider.SignIn(ctx, "sato@example.com", "correct horse"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
}

func TestSessionRestore(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)
	sessions := &auth.MemorySessionStore{}

	provider, err := auth.NewLocal(ctx, s, sessions)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	if _, err := provider.SignUp(ctx, "a@example.com", "password123", "a", model.RoleSales); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// A new provider over the same session store restores the session.
	restored, err := auth.NewLocal(ctx, s, sessions)
	if err != nil {
		t.Fatalf("NewLocal (restore): %v", err)
	}
	u, err := restored.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser after restore: %v", err)
	}
	if u.Email != "a@example.com" {
		t.Fatalf("restored user: %+v", u)
	}
}

func TestSetRole_adminOnly(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := testutil.Ctx(t)

	provider, err := auth.NewLocal(ctx, s, &auth.MemorySessionStore{})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}

	target := testutil.SeedUser(t, s, "target", model.RoleSales)
	admin := testutil.SeedUser(t, s, "boss", model.RoleAdmin)

	nonAdmin := policy.Actor{UserID: target.ID, Role: model.RoleSales}
	if err := provider.SetRole(ctx, nonAdmin, target.ID, model.RoleManager); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("non-admin: got %v, want ErrUnauthorized", err)
	}

	asAdmin := policy.Actor{UserID: admin.ID, Role: model.RoleAdmin}
	if err := provider.SetRole(ctx, asAdmin, target.ID, model.RoleManager); err != nil {
		t.Fatalf("admin SetRole: %v", err)
	}

	updated, err := s.GetUserByID(ctx, target.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Fatalf("role: got %s", updated.Role)
	}
}
