package recipes

import (
	"context"
	"fmt"

	"chefai/internal/localstore"
)

// LocalKey is the device store key holding the anonymous collection.
const LocalKey = "chef_ai_recipes"

// Backend persists one collection. Create is idempotent by id and title and returns
// the already stored entry on a match; Delete of an unknown id succeeds.
type Backend interface {
	Fetch(ctx context.Context) ([]Recipe, error)
	Create(ctx context.Context, r Recipe) (Recipe, error)
	Replace(ctx context.Context, r Recipe) (Recipe, error)
	Delete(ctx context.Context, id string) error
}

// LocalBackend keeps the collection in the device store.
type LocalBackend struct {
	store *localstore.Value[[]Recipe]
}

var _ Backend = (*LocalBackend)(nil)

func NewLocalBackend(store *localstore.Value[[]Recipe]) *LocalBackend {
	return &LocalBackend{store: store}
}

func (l *LocalBackend) Fetch(ctx context.Context) ([]Recipe, error) {
	if err := l.store.Wait(ctx); err != nil {
		return nil, err
	}
	return append([]Recipe(nil), l.store.Get()...), nil
}

func (l *LocalBackend) Create(_ context.Context, r Recipe) (Recipe, error) {
	stored := r
	l.store.Update(func(list []Recipe) []Recipe {
		if existing, ok := FindDuplicate(list, r); ok {
			stored = existing
			return list
		}
		return Prepend(list, r)
	})
	return stored, nil
}

func (l *LocalBackend) Replace(_ context.Context, r Recipe) (Recipe, error) {
	found := false
	l.store.Update(func(list []Recipe) []Recipe {
		var out []Recipe
		out, found = ReplaceByID(list, r)
		return out
	})
	if !found {
		return Recipe{}, fmt.Errorf("replace %s: %w", r.ID, ErrNotFound)
	}
	return r, nil
}

func (l *LocalBackend) Delete(_ context.Context, id string) error {
	l.store.Update(func(list []Recipe) []Recipe {
		return WithoutID(list, id)
	})
	return nil
}
