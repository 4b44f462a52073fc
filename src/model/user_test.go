package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/username/settlementdash/backend/src/database"
	"golang.org/x/crypto/bcrypt"
)

func newTestStore(t *testing.T) *UserStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.db")
	if err := database.RunMigrations(path); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func TestUserStore_VerifyAndUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	u, err := store.CreateOrUpdateUser(ctx, " analyst ", "first-secret")
	if err != nil {
		t.Fatalf("CreateOrUpdateUser: %v", err)
	}
	if u.Username != "analyst" || u.ID == 0 {
		t.Fatalf("unexpected user %+v", u)
	}

	if !store.Verify(ctx, "analyst", "first-secret") {
		t.Error("Verify rejected the correct secret")
	}
	if store.Verify(ctx, "analyst", "wrong-secret") {
		t.Error("Verify accepted a wrong secret")
	}
	if store.Verify(ctx, "nobody", "first-secret") {
		t.Error("Verify accepted an unknown user")
	}

	u2, err := store.CreateOrUpdateUser(ctx, "analyst", "second-secret")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if u2.ID != u.ID {
		t.Errorf("update created a new row: %d != %d", u2.ID, u.ID)
	}
	if store.Verify(ctx, "analyst", "first-secret") {
		t.Error("old secret still valid after update")
	}
	if !store.Verify(ctx, "analyst", "second-secret") {
		t.Error("new secret rejected")
	}
}

func TestUserStore_CreateRejectsWeakInput(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.CreateOrUpdateUser(context.Background(), "", "long-enough"); err == nil {
		t.Error("expected error for empty username")
	}
	if _, err := store.CreateOrUpdateUser(context.Background(), "bob", "short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestGetUserByUsername_NotFound(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.GetUserByUsername(context.Background(), "ghost"); err != ErrUserNotFound {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUserStore_UnknownUserCostsTheSame(t *testing.T) {
	store := newTestStore(t)
	cost, err := bcrypt.Cost(store.dummyHash)
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != bcryptCost {
		t.Errorf("dummy hash cost = %d, want %d", cost, bcryptCost)
	}
	if store.Verify(context.Background(), "ghost", "whatever-secret") {
		t.Error("unknown user verified")
	}
}
