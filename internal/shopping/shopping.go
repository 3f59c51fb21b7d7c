// Package shopping aggregates ingredients into a single deduplicated list
// kept on the device, independent of who is signed in.
package shopping

import (
	"errors"
	"fmt"
	"strings"

	"chefai/internal/localstore"
	"chefai/internal/recipes"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

const LocalKey = "chef_ai_shopping_list"

const (
	ShareTitle   = "Список покупок - Шеф ИИ"
	sharePreface = "Мой список покупок:\n\n"
)

var ErrEmptyItem = errors.New("shopping item text is empty")

type Item struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Checked    bool   `json:"checked"`
	Quantity   int    `json:"quantity"`
	RecipeID   string `json:"recipeId,omitempty"`
	RecipeName string `json:"recipeName,omitempty"`
}

type List struct {
	store *localstore.Value[[]Item]
	newID func() string
}

type Option func(*List)

func WithIDFunc(f func() string) Option {
	return func(l *List) { l.newID = f }
}

func New(store *localstore.Value[[]Item], opts ...Option) *List {
	l := &List{store: store, newID: uuid.NewString}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func normalize(text string) string {
	return cases.Fold().String(strings.TrimSpace(text))
}

func (l *List) Items() []Item {
	return append([]Item(nil), l.store.Get()...)
}

// PendingCount is the number of unchecked items.
func (l *List) PendingCount() int {
	return lo.CountBy(l.store.Get(), func(it Item) bool { return !it.Checked })
}

// Add appends text, or bumps the quantity of an existing item with the same
// text ignoring case.
func (l *List) Add(text, recipeID, recipeName string) (Item, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Item{}, ErrEmptyItem
	}
	key := normalize(trimmed)

	var result Item
	l.store.Update(func(items []Item) []Item {
		out := append([]Item(nil), items...)
		for i := range out {
			if normalize(out[i].Text) == key {
				out[i].Quantity++
				result = out[i]
				return out
			}
		}
		result = Item{
			ID:         l.newID(),
			Text:       trimmed,
			Quantity:   1,
			RecipeID:   recipeID,
			RecipeName: recipeName,
		}
		return append(out, result)
	})
	return result, nil
}

// AddFromRecipe adds every ingredient of r not already on the list and
// returns how many were inserted. Existing items keep their quantity.
func (l *List) AddFromRecipe(r recipes.Recipe) int {
	inserted := 0
	l.store.Update(func(items []Item) []Item {
		seen := make(map[string]struct{}, len(items))
		for _, it := range items {
			seen[normalize(it.Text)] = struct{}{}
		}
		out := append([]Item(nil), items...)
		for _, ing := range r.Ingredients {
			text := strings.TrimSpace(ing)
			if text == "" {
				continue
			}
			key := normalize(text)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, Item{
				ID:         l.newID(),
				Text:       text,
				Quantity:   1,
				RecipeID:   r.ID,
				RecipeName: r.Title,
			})
			inserted++
		}
		return out
	})
	return inserted
}

func (l *List) mutate(id string, fn func(*Item)) {
	l.store.Update(func(items []Item) []Item {
		out := append([]Item(nil), items...)
		for i := range out {
			if out[i].ID == id {
				fn(&out[i])
			}
		}
		return out
	})
}

func (l *List) Toggle(id string) {
	l.mutate(id, func(it *Item) { it.Checked = !it.Checked })
}

// UpdateQuantity adds delta to the quantity, never going below 1.
func (l *List) UpdateQuantity(id string, delta int) {
	l.mutate(id, func(it *Item) { it.Quantity = max(1, it.Quantity+delta) })
}

func (l *List) Remove(id string) {
	l.store.Update(func(items []Item) []Item {
		return lo.Reject(items, func(it Item, _ int) bool { return it.ID == id })
	})
}

func (l *List) ClearChecked() {
	l.store.Update(func(items []Item) []Item {
		return lo.Reject(items, func(it Item, _ int) bool { return it.Checked })
	})
}

func (l *List) ClearAll() {
	l.store.Set([]Item{})
}

// Export renders one line per item in insertion order. The "Nx " prefix is
// only written for quantities above one.
func (l *List) Export(includeChecked bool) string {
	lines := lo.FilterMap(l.store.Get(), func(it Item, _ int) (string, bool) {
		if it.Checked && !includeChecked {
			return "", false
		}
		if it.Quantity > 1 {
			return fmt.Sprintf("%dx %s", it.Quantity, it.Text), true
		}
		return it.Text, true
	})
	return strings.Join(lines, "\n")
}

// ShareText is the body handed to a share sheet along with ShareTitle.
func (l *List) ShareText() string {
	return sharePreface + l.Export(false)
}
