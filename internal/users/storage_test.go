package users

import (
	"context"
	"errors"
	"testing"

	"chefai/internal/cache"
)

func TestFindOrCreateByEmail(t *testing.T) {
	ctx := context.Background()
	store := NewStorage(cache.NewFileCache(t.TempDir()))

	user, err := store.FindOrCreateByEmail(ctx, " Test@Example.com ")
	if err != nil {
		t.Fatalf("expected user to be created, got error: %v", err)
	}
	if len(user.Email) != 1 || user.Email[0] != "test@example.com" {
		t.Fatalf("unexpected email list: %#v", user.Email)
	}

	again, err := store.FindOrCreateByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("expected existing user, got error: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("second sign in created a new user: got %s want %s", again.ID, user.ID)
	}

	byID, err := store.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("expected user by id, got error: %v", err)
	}
	if byID.PrimaryEmail() != "test@example.com" {
		t.Fatalf("unexpected primary email %q", byID.PrimaryEmail())
	}
}

func TestGetMissingUser(t *testing.T) {
	ctx := context.Background()
	store := NewStorage(cache.NewInMemoryCache())

	if _, err := store.GetByID(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindOrCreateByID(t *testing.T) {
	ctx := context.Background()
	store := NewStorage(cache.NewFileCache(t.TempDir()))

	existing, err := store.FindOrCreateByEmail(ctx, "first@example.com")
	if err != nil {
		t.Fatalf("expected user to be created, got error: %v", err)
	}

	user, err := store.FindOrCreateByID(ctx, "clerk_123", []string{"First@example.com"})
	if err != nil {
		t.Fatalf("expected user to be linked, got error: %v", err)
	}
	if user.ID != existing.ID {
		t.Fatalf("clerk sign in should reuse the account with the same email: got %s want %s", user.ID, existing.ID)
	}
	if user.ClerkID != "clerk_123" {
		t.Fatalf("expected clerk id to be recorded, got %q", user.ClerkID)
	}

	again, err := store.FindOrCreateByID(ctx, "clerk_123", nil)
	if err != nil {
		t.Fatalf("expected lookup by clerk id, got error: %v", err)
	}
	if again.ID != existing.ID {
		t.Fatalf("clerk lookup returned wrong user: got %s want %s", again.ID, existing.ID)
	}

	if _, err := store.FindOrCreateByID(ctx, "clerk_404", nil); err == nil {
		t.Fatal("expected error for unknown clerk user without email")
	}
}

func TestFindOrCreateByIDIndexesSecondaryEmails(t *testing.T) {
	ctx := context.Background()
	store := NewStorage(cache.NewInMemoryCache())

	other, err := store.FindOrCreateByEmail(ctx, "taken@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	user, err := store.FindOrCreateByID(ctx, "clerk_9", []string{"main@example.com", " Work@Example.com ", "taken@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(user.Email) != 3 || user.PrimaryEmail() != "main@example.com" {
		t.Fatalf("unexpected emails %v", user.Email)
	}

	byWork, err := store.GetByEmail(ctx, "work@example.com")
	if err != nil || byWork.ID != user.ID {
		t.Fatalf("secondary email should resolve to the clerk user, got %v %v", byWork, err)
	}
	byTaken, err := store.GetByEmail(ctx, "taken@example.com")
	if err != nil || byTaken.ID != other.ID {
		t.Fatalf("owned email must stay with its account, got %v %v", byTaken, err)
	}
}

func TestCreateLosesIndexRace(t *testing.T) {
	ctx := context.Background()
	c := cache.NewInMemoryCache()
	store := NewStorage(c)

	winner, err := store.FindOrCreateByEmail(ctx, "race@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loser := User{ID: "loser", Email: []string{"race@example.com"}}
	got, err := store.create(ctx, loser, emailPrefix+"race@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != winner.ID {
		t.Fatalf("expected index winner %s, got %s", winner.ID, got.ID)
	}
	if _, err := store.GetByID(ctx, "loser"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected orphaned user to be removed, got %v", err)
	}
}

func TestContextWithUser(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != nil {
		t.Fatal("expected no user in empty context")
	}
	u := &User{ID: "u1"}
	if got := FromContext(ContextWithUser(ctx, u)); got != u {
		t.Fatalf("FromContext() = %v, want %v", got, u)
	}
}
