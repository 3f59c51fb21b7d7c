package recipes

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chefai/internal/cache"
	"chefai/internal/localstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

var fixedNow = time.Date(2025, time.March, 8, 12, 0, 0, 0, time.UTC)

func newLocalRepo(t *testing.T) (*Repository, *localstore.Value[[]Recipe]) {
	t.Helper()
	ctx := context.Background()
	store, err := localstore.OpenHydrated(ctx, cache.NewInMemoryCache(), LocalKey, []Recipe{})
	require.NoError(t, err)

	repo := NewRepository(WithIDFunc(sequentialIDs()), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, repo.Resolve(ctx, StateAnonymous, NewLocalBackend(store)))
	return repo, store
}

func TestAnonymousBorschtScenario(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocalRepo(t)

	saved, err := repo.Save(ctx, Recipe{Title: "Борщ", Ingredients: []string{"свекла", "капуста"}})
	require.NoError(t, err)
	require.Len(t, repo.List(), 1)
	assert.Equal(t, "id-1", saved.ID)
	assert.Equal(t, fixedNow.UnixMilli(), saved.CreatedAt)

	again, err := repo.Save(ctx, Recipe{Title: "Борщ", Description: "другой"})
	require.NoError(t, err)
	assert.Equal(t, saved, again)
	require.Len(t, repo.List(), 1)

	found := repo.Search("капуста")
	require.Len(t, found, 1)
	assert.Equal(t, saved.ID, found[0].ID)

	require.NoError(t, repo.Remove(ctx, saved.ID))
	assert.Empty(t, repo.List())
	require.NoError(t, repo.Remove(ctx, saved.ID))
	assert.Empty(t, repo.List())
	assert.Empty(t, store.Get())
}

func TestSaveOrderAndPersistence(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocalRepo(t)

	_, err := repo.Save(ctx, Recipe{Title: "Плов"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Recipe{Title: "Пельмени"})
	require.NoError(t, err)

	titles := func(list []Recipe) []string {
		var out []string
		for _, r := range list {
			out = append(out, r.Title)
		}
		return out
	}
	assert.Equal(t, []string{"Пельмени", "Плов"}, titles(repo.List()))
	assert.Equal(t, []string{"Пельмени", "Плов"}, titles(store.Get()))
}

func TestSaveKeepsProvidedIDAndTimestamp(t *testing.T) {
	repo, _ := newLocalRepo(t)
	saved, err := repo.Save(context.Background(), Recipe{ID: "mine", CreatedAt: 42, Title: "Уха"})
	require.NoError(t, err)
	assert.Equal(t, "mine", saved.ID)
	assert.Equal(t, int64(42), saved.CreatedAt)
}

func TestSaveWithStoredIDReturnsStored(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocalRepo(t)
	first, err := repo.Save(ctx, Recipe{ID: "mine", Title: "Борщ"})
	require.NoError(t, err)

	again, err := repo.Save(ctx, Recipe{ID: "mine", Title: "Плов"})
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, []Recipe{first}, repo.List())
	assert.Equal(t, []Recipe{first}, store.Get())

	// LocalBackend matches ids on its own as well
	stored, err := NewLocalBackend(store).Create(ctx, Recipe{ID: "mine", Title: "Уха"})
	require.NoError(t, err)
	assert.Equal(t, first, stored)
	assert.Equal(t, []Recipe{first}, store.Get())
}

func TestTitleDuplicateIsExact(t *testing.T) {
	repo, _ := newLocalRepo(t)
	ctx := context.Background()
	_, err := repo.Save(ctx, Recipe{Title: "Борщ"})
	require.NoError(t, err)
	_, err = repo.Save(ctx, Recipe{Title: "борщ"})
	require.NoError(t, err)
	assert.Len(t, repo.List(), 2)
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	repo, store := newLocalRepo(t)
	saved, err := repo.Save(ctx, Recipe{Title: "Щи"})
	require.NoError(t, err)

	saved.Description = "кислые"
	updated, err := repo.Update(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "кислые", updated.Description)
	assert.Equal(t, "кислые", repo.List()[0].Description)
	assert.Equal(t, "кислые", store.Get()[0].Description)

	_, err = repo.Update(ctx, Recipe{ID: "nope", Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidationBeforeBackend(t *testing.T) {
	backend := &failingBackend{}
	repo := NewRepository()
	require.NoError(t, repo.Resolve(context.Background(), StateAuthenticated, &emptyThen{backend}))

	_, err := repo.Save(context.Background(), Recipe{Title: "   "})
	require.ErrorIs(t, err, ErrInvalidRecipe)
	_, err = repo.Update(context.Background(), Recipe{ID: "x"})
	require.ErrorIs(t, err, ErrInvalidRecipe)
	assert.Zero(t, backend.calls)
}

func TestStateMachine(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository()
	assert.Equal(t, StateLoading, repo.State())
	assert.Empty(t, repo.List())

	_, err := repo.Save(ctx, Recipe{Title: "Борщ"})
	require.ErrorIs(t, err, ErrNotResolved)
	require.ErrorIs(t, repo.Remove(ctx, "x"), ErrNotResolved)
	require.ErrorIs(t, repo.Refresh(ctx), ErrNotResolved)

	store, err := localstore.OpenHydrated(ctx, cache.NewInMemoryCache(), LocalKey, []Recipe{})
	require.NoError(t, err)
	require.NoError(t, repo.Resolve(ctx, StateAnonymous, NewLocalBackend(store)))
	assert.Equal(t, StateAnonymous, repo.State())

	err = repo.Resolve(ctx, StateAuthenticated, NewLocalBackend(store))
	require.ErrorIs(t, err, ErrAlreadyResolved)
	assert.Equal(t, StateAnonymous, repo.State())
}

// failingBackend fails every call with ErrBackendUnavailable.
type failingBackend struct {
	calls int
}

func (f *failingBackend) Fetch(context.Context) ([]Recipe, error) {
	f.calls++
	return nil, ErrBackendUnavailable
}
func (f *failingBackend) Create(context.Context, Recipe) (Recipe, error) {
	f.calls++
	return Recipe{}, ErrBackendUnavailable
}
func (f *failingBackend) Replace(context.Context, Recipe) (Recipe, error) {
	f.calls++
	return Recipe{}, ErrBackendUnavailable
}
func (f *failingBackend) Delete(context.Context, string) error {
	f.calls++
	return ErrBackendUnavailable
}

// emptyThen answers the first Fetch with an empty list and delegates the rest.
type emptyThen struct {
	*failingBackend
}

func (e *emptyThen) Fetch(context.Context) ([]Recipe, error) {
	return []Recipe{}, nil
}

func TestBackendFailureLeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	store, err := localstore.OpenHydrated(ctx, cache.NewInMemoryCache(), LocalKey, []Recipe{{ID: "a", Title: "Борщ"}})
	require.NoError(t, err)

	repo := NewRepository()
	require.NoError(t, repo.Resolve(ctx, StateAuthenticated, NewLocalBackend(store)))
	require.Len(t, repo.List(), 1)

	// swap in a broken backend to simulate an outage after load
	repo.backend = &failingBackend{}

	_, err = repo.Save(ctx, Recipe{Title: "Плов"})
	require.ErrorIs(t, err, ErrBackendUnavailable)
	require.Error(t, repo.Remove(ctx, "a"))
	_, err = repo.Update(ctx, Recipe{ID: "a", Title: "Борщ 2"})
	require.ErrorIs(t, err, ErrBackendUnavailable)
	require.Error(t, repo.Refresh(ctx))

	assert.Equal(t, []Recipe{{ID: "a", Title: "Борщ"}}, repo.List())
	assert.Equal(t, "Не удалось сохранить рецепт", UserMessage(OpSave, err))
}

func TestRemoveEmptyIDSkipsBackend(t *testing.T) {
	backend := &failingBackend{}
	repo := NewRepository()
	require.NoError(t, repo.Resolve(context.Background(), StateAuthenticated, &emptyThen{backend}))

	require.NoError(t, repo.Remove(context.Background(), ""))
	assert.Zero(t, backend.calls)

	local, _ := newLocalRepo(t)
	require.NoError(t, local.Remove(context.Background(), ""))
	assert.ErrorIs(t, NewRepository().Remove(context.Background(), ""), ErrNotResolved)
}

func TestResolveLoadFailureStillBinds(t *testing.T) {
	repo := NewRepository()
	err := repo.Resolve(context.Background(), StateAuthenticated, &failingBackend{})
	require.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.Equal(t, StateAuthenticated, repo.State())
	assert.Empty(t, repo.List())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(OpLoad, nil))
	assert.Equal(t, "Не удалось загрузить рецепты", UserMessage(OpLoad, ErrBackendUnavailable))
	assert.Equal(t, "Не удалось удалить рецепт", UserMessage(OpDelete, errors.New("boom")))
	assert.Equal(t, "Рецепт не найден", UserMessage(OpUpdate, fmt.Errorf("x: %w", ErrNotFound)))
	assert.Equal(t, "Необходимо войти в аккаунт", UserMessage(OpSave, ErrUnauthorized))
}
