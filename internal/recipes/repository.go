package recipes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "loading"
	}
}

type Option func(*Repository)

func WithIDFunc(f func() string) Option {
	return func(r *Repository) { r.newID = f }
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Repository reflects the active collection in memory. It is bound to exactly
// one backend by Resolve; until then every mutating call fails with ErrNotResolved.
type Repository struct {
	newID func() string
	now   func() time.Time

	// ops serialises backend calls so the in-memory view follows the order of writes.
	ops sync.Mutex

	mu      sync.RWMutex
	state   State
	backend Backend
	recipes []Recipe
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		newID:   uuid.NewString,
		now:     time.Now,
		recipes: []Recipe{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// Resolve binds the repository to backend and loads the collection. It may
// only be called once. A failed load still binds the backend.
func (r *Repository) Resolve(ctx context.Context, state State, backend Backend) error {
	if state == StateLoading || backend == nil {
		return fmt.Errorf("resolve to %s: backend required", state)
	}

	r.ops.Lock()
	defer r.ops.Unlock()

	r.mu.Lock()
	if r.state != StateLoading {
		r.mu.Unlock()
		return ErrAlreadyResolved
	}
	r.state = state
	r.backend = backend
	r.mu.Unlock()

	return r.refreshLocked(ctx)
}

func (r *Repository) bound() (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state == StateLoading {
		return nil, ErrNotResolved
	}
	return r.backend, nil
}

// List returns the active collection, most recent first.
func (r *Repository) List() []Recipe {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Recipe(nil), r.recipes...)
}

func (r *Repository) Search(query string) []Recipe {
	return Search(r.List(), query)
}

func (r *Repository) Refresh(ctx context.Context) error {
	r.ops.Lock()
	defer r.ops.Unlock()
	return r.refreshLocked(ctx)
}

func (r *Repository) refreshLocked(ctx context.Context) error {
	backend, err := r.bound()
	if err != nil {
		return err
	}
	list, err := backend.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("load recipes: %w", err)
	}
	r.mu.Lock()
	r.recipes = list
	r.mu.Unlock()
	return nil
}

// Save stores recipe, assigning an id and creation time when absent. When a
// recipe with the same id or title is already in the collection the stored
// one is returned and nothing is written.
func (r *Repository) Save(ctx context.Context, recipe Recipe) (Recipe, error) {
	if err := recipe.Validate(); err != nil {
		return Recipe{}, err
	}

	r.ops.Lock()
	defer r.ops.Unlock()

	backend, err := r.bound()
	if err != nil {
		return Recipe{}, err
	}

	r.mu.RLock()
	existing, dup := FindDuplicate(r.recipes, recipe)
	r.mu.RUnlock()
	if dup {
		return existing, nil
	}

	if recipe.ID == "" {
		recipe.ID = r.newID()
	}
	if recipe.CreatedAt == 0 {
		recipe.CreatedAt = r.now().UnixMilli()
	}

	stored, err := backend.Create(ctx, recipe)
	if err != nil {
		return Recipe{}, fmt.Errorf("save recipe: %w", err)
	}

	r.mu.Lock()
	if indexOfID(r.recipes, stored.ID) < 0 {
		r.recipes = Prepend(r.recipes, stored)
	}
	r.mu.Unlock()
	return stored, nil
}

// Update replaces the recipe with the same id.
func (r *Repository) Update(ctx context.Context, recipe Recipe) (Recipe, error) {
	if err := recipe.Validate(); err != nil {
		return Recipe{}, err
	}

	r.ops.Lock()
	defer r.ops.Unlock()

	backend, err := r.bound()
	if err != nil {
		return Recipe{}, err
	}

	r.mu.RLock()
	_, found := FindByID(r.recipes, recipe.ID)
	r.mu.RUnlock()
	if recipe.ID == "" || !found {
		return Recipe{}, fmt.Errorf("update %q: %w", recipe.ID, ErrNotFound)
	}

	stored, err := backend.Replace(ctx, recipe)
	if err != nil {
		return Recipe{}, fmt.Errorf("update recipe: %w", err)
	}

	r.mu.Lock()
	r.recipes, _ = ReplaceByID(r.recipes, stored)
	r.mu.Unlock()
	return stored, nil
}

// Remove deletes by id. Unknown and empty ids succeed without touching the
// backend.
func (r *Repository) Remove(ctx context.Context, id string) error {
	r.ops.Lock()
	defer r.ops.Unlock()

	backend, err := r.bound()
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	if err := backend.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}

	r.mu.Lock()
	r.recipes = WithoutID(r.recipes, id)
	r.mu.Unlock()
	return nil
}
