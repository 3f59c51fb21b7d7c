package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"chefai/internal/cache"
	utypes "chefai/internal/users/types"

	"github.com/google/uuid"
)

type User = utypes.User

const (
	userPrefix  = "user/"
	emailPrefix = "email/"
	clerkPrefix = "clerk/"
)

var ErrNotFound = errors.New("user not found")

type Storage struct {
	cache cache.Cache
	now   func() time.Time
}

func NewStorage(c cache.Cache) *Storage {
	return &Storage{cache: c, now: time.Now}
}

func (s *Storage) GetByID(ctx context.Context, id string) (*User, error) {
	userBytes, err := cache.ReadString(ctx, s.cache, userPrefix+id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read user %s: %w", id, err)
	}
	var user User
	if err := json.Unmarshal([]byte(userBytes), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

func (s *Storage) lookup(ctx context.Context, key string) (*User, error) {
	id, err := cache.ReadString(ctx, s.cache, key)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read index %s: %w", key, err)
	}
	return s.GetByID(ctx, id)
}

func (s *Storage) GetByEmail(ctx context.Context, email string) (*User, error) {
	normalized, err := ParseEmail(email)
	if err != nil {
		return nil, err
	}
	return s.lookup(ctx, emailPrefix+normalized)
}

// FindOrCreateByEmail returns the user owning email, creating one when the
// address has never been seen.
func (s *Storage) FindOrCreateByEmail(ctx context.Context, email string) (*User, error) {
	normalized, err := ParseEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.lookup(ctx, emailPrefix+normalized)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newUser := User{
		ID:        uuid.NewString(),
		Email:     []string{normalized},
		CreatedAt: s.now(),
	}
	return s.create(ctx, newUser, emailPrefix+normalized)
}

func (s *Storage) GetByClerkID(ctx context.Context, clerkID string) (*User, error) {
	return s.lookup(ctx, clerkPrefix+clerkID)
}

// FindOrCreateByID resolves an external identity (a Clerk user id) to a user,
// linking it to an existing account with the same email when there is one.
func (s *Storage) FindOrCreateByID(ctx context.Context, externalID string, emails []string) (*User, error) {
	user, err := s.GetByClerkID(ctx, externalID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("no email for external user %s", externalID)
	}

	user, err = s.FindOrCreateByEmail(ctx, emails[0])
	if err != nil {
		return nil, err
	}
	if err := s.cache.Put(ctx, clerkPrefix+externalID, user.ID, cache.Unconditional()); err != nil {
		return nil, fmt.Errorf("failed to index user by external id: %w", err)
	}
	dirty := user.ClerkID != externalID
	user.ClerkID = externalID
	for _, raw := range emails[1:] {
		e, err := ParseEmail(raw)
		if err != nil {
			slog.WarnContext(ctx, "skipping unusable email", "clerk_user_id", externalID, "error", err)
			continue
		}
		if !user.AddEmail(e) {
			continue
		}
		dirty = true
		// an address already owned by another account stays with that account
		err := s.cache.Put(ctx, emailPrefix+e, user.ID, cache.IfNoneMatch())
		if err != nil && !errors.Is(err, cache.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to index email: %w", err)
		}
	}
	if dirty {
		if err := s.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *Storage) Update(ctx context.Context, user *User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	userBytes, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.cache.Put(ctx, userPrefix+user.ID, string(userBytes), cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to store user: %w", err)
	}
	return nil
}

func (s *Storage) create(ctx context.Context, newUser User, indexKey string) (*User, error) {
	if err := s.Update(ctx, &newUser); err != nil {
		return nil, err
	}
	// no transactions; the index write decides who wins a concurrent sign up
	err := s.cache.Put(ctx, indexKey, newUser.ID, cache.IfNoneMatch())
	if errors.Is(err, cache.ErrAlreadyExists) {
		if delErr := s.cache.Delete(ctx, userPrefix+newUser.ID); delErr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned user", "user_id", newUser.ID, "error", delErr)
		}
		return s.lookup(ctx, indexKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to index new user: %w", err)
	}
	return &newUser, nil
}
