package shopping

import (
	"context"
	"fmt"
	"testing"

	"chefai/internal/cache"
	"chefai/internal/localstore"
	"chefai/internal/recipes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newList(t *testing.T) (*List, *localstore.Value[[]Item]) {
	t.Helper()
	store, err := localstore.OpenHydrated(context.Background(), cache.NewInMemoryCache(), LocalKey, []Item{})
	require.NoError(t, err)
	n := 0
	return New(store, WithIDFunc(func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	})), store
}

func TestAddDeduplicatesIgnoringCase(t *testing.T) {
	l, _ := newList(t)

	_, err := l.Add("Соль", "", "")
	require.NoError(t, err)
	item, err := l.Add("  соль ", "", "")
	require.NoError(t, err)

	items := l.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Соль", items[0].Text)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, items[0], item)
}

func TestAddRejectsBlank(t *testing.T) {
	l, _ := newList(t)
	_, err := l.Add("   ", "", "")
	require.ErrorIs(t, err, ErrEmptyItem)
	assert.Empty(t, l.Items())
}

func TestAddFromRecipe(t *testing.T) {
	l, _ := newList(t)
	_, err := l.Add("соль", "", "")
	require.NoError(t, err)

	n := l.AddFromRecipe(recipes.Recipe{
		ID:          "r1",
		Title:       "Борщ",
		Ingredients: []string{"Свекла", "Соль", "капуста", "свекла", " "},
	})
	assert.Equal(t, 2, n)

	items := l.Items()
	require.Len(t, items, 3)
	assert.Equal(t, 1, items[0].Quantity, "existing items are not bumped")
	assert.Equal(t, "Свекла", items[1].Text)
	assert.Equal(t, "r1", items[1].RecipeID)
	assert.Equal(t, "Борщ", items[1].RecipeName)
	assert.Equal(t, "капуста", items[2].Text)
}

func TestQuantityFloor(t *testing.T) {
	l, _ := newList(t)
	item, err := l.Add("молоко", "", "")
	require.NoError(t, err)

	l.UpdateQuantity(item.ID, 3)
	assert.Equal(t, 4, l.Items()[0].Quantity)
	l.UpdateQuantity(item.ID, -100)
	assert.Equal(t, 1, l.Items()[0].Quantity)
}

func TestToggleClearAndExport(t *testing.T) {
	l, store := newList(t)
	a, _ := l.Add("хлеб", "", "")
	_, _ = l.Add("яйца", "", "")
	_, _ = l.Add("яйца", "", "")
	c, _ := l.Add("масло", "", "")

	l.Toggle(a.ID)
	assert.Equal(t, 2, l.PendingCount())
	assert.Equal(t, "2x яйца\nмасло", l.Export(false))
	assert.Equal(t, "хлеб\n2x яйца\nмасло", l.Export(true))
	assert.Equal(t, "Мой список покупок:\n\n2x яйца\nмасло", l.ShareText())

	l.ClearChecked()
	require.Len(t, l.Items(), 2)

	l.Remove(c.ID)
	l.Remove("unknown")
	require.Len(t, l.Items(), 1)
	assert.Equal(t, l.Items(), store.Get())

	l.ClearAll()
	assert.Empty(t, l.Items())
	assert.Equal(t, "", l.Export(true))
}

func TestPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	medium := cache.NewFileCache(t.TempDir())
	store, err := localstore.OpenHydrated(ctx, medium, LocalKey, []Item{})
	require.NoError(t, err)
	l := New(store)
	_, err = l.Add("Соль", "r1", "Борщ")
	require.NoError(t, err)

	reopened, err := localstore.OpenHydrated(ctx, medium, LocalKey, []Item{})
	require.NoError(t, err)
	assert.Equal(t, l.Items(), New(reopened).Items())
}
