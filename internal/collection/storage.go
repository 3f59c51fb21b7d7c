// Package collection serves each signed-in user's recipe collection over HTTP.
package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"chefai/internal/cache"
	"chefai/internal/recipes"
	"chefai/internal/users"

	"github.com/google/uuid"
)

const collectionPrefix = "collection/"

// Storage keeps one JSON array of recipes per owner. Writes are serialised
// within the process; separate processes race with last write wins.
type Storage struct {
	cache cache.Cache
	mu    sync.Mutex
	newID func() string
	now   func() time.Time
}

func NewStorage(c cache.Cache) *Storage {
	return &Storage{cache: c, newID: uuid.NewString, now: time.Now}
}

func key(owner string) (string, error) {
	email, err := users.ParseEmail(owner)
	if err != nil {
		return "", err
	}
	return collectionPrefix + email, nil
}

func (s *Storage) List(ctx context.Context, owner string) ([]recipes.Recipe, error) {
	k, err := key(owner)
	if err != nil {
		return nil, err
	}
	rc, err := s.cache.Get(ctx, k)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return []recipes.Recipe{}, nil
		}
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var list []recipes.Recipe
	if err := json.NewDecoder(rc).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}
	if list == nil {
		list = []recipes.Recipe{}
	}
	return list, nil
}

func (s *Storage) write(ctx context.Context, owner string, list []recipes.Recipe) error {
	k, err := key(owner)
	if err != nil {
		return err
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	if err := s.cache.Put(ctx, k, string(data), cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	return nil
}

// Add stores r at the front of the owner's collection. A recipe with the same
// id or title already stored is returned instead and nothing changes.
func (s *Storage) Add(ctx context.Context, owner string, r recipes.Recipe) (recipes.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx, owner)
	if err != nil {
		return recipes.Recipe{}, err
	}
	if existing, ok := recipes.FindDuplicate(list, r); ok {
		return existing, nil
	}
	if r.ID == "" {
		r.ID = s.newID()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = s.now().UnixMilli()
	}
	if err := s.write(ctx, owner, recipes.Prepend(list, r)); err != nil {
		return recipes.Recipe{}, err
	}
	return r, nil
}

// Merge decodes patch over the stored recipe with the same id, so fields
// missing from patch keep their stored values. The merged recipe must still
// validate.
func (s *Storage) Merge(ctx context.Context, owner, id string, patch []byte) (recipes.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx, owner)
	if err != nil {
		return recipes.Recipe{}, err
	}
	merged, ok := recipes.FindByID(list, id)
	if !ok {
		return recipes.Recipe{}, recipes.ErrNotFound
	}
	if err := json.Unmarshal(patch, &merged); err != nil {
		return recipes.Recipe{}, fmt.Errorf("%w: %w", errBadBody, err)
	}
	merged.ID = id
	if err := merged.Validate(); err != nil {
		return recipes.Recipe{}, err
	}
	list, _ = recipes.ReplaceByID(list, merged)
	if err := s.write(ctx, owner, list); err != nil {
		return recipes.Recipe{}, err
	}
	return merged, nil
}

// Delete removes id from the collection. Unknown ids are not an error.
func (s *Storage) Delete(ctx context.Context, owner, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.List(ctx, owner)
	if err != nil {
		return err
	}
	pruned := recipes.WithoutID(list, id)
	if len(pruned) == len(list) {
		return nil
	}
	return s.write(ctx, owner, pruned)
}
