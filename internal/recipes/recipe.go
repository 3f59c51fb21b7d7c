// Package recipes holds the recipe model and the repository that keeps the
// active collection in memory, backed either by the local device store or by
// the remote per-user store.
package recipes

import (
	"errors"
	"strings"
)

var (
	ErrNotFound           = errors.New("recipe not found")
	ErrInvalidRecipe      = errors.New("invalid recipe")
	ErrUnauthorized       = errors.New("not authorized")
	ErrBackendUnavailable = errors.New("recipe backend unavailable")
	ErrNotResolved        = errors.New("identity not resolved yet")
	ErrAlreadyResolved    = errors.New("identity already resolved")
)

type Recipe struct {
	ID           string   `json:"id,omitempty"`
	CreatedAt    int64    `json:"createdAt,omitempty"` // epoch millis
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookingTime  string   `json:"cookingTime"`
	Difficulty   string   `json:"difficulty"`
	Calories     string   `json:"calories,omitempty"`
}

func (r Recipe) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return errors.Join(ErrInvalidRecipe, errors.New("title is required"))
	}
	return nil
}

// indexOfTitle uses exact comparison, matching how duplicates are detected on save.
func indexOfTitle(list []Recipe, title string) int {
	for i, r := range list {
		if r.Title == title {
			return i
		}
	}
	return -1
}

func indexOfID(list []Recipe, id string) int {
	for i, r := range list {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Prepend returns a new slice with r first.
func Prepend(list []Recipe, r Recipe) []Recipe {
	out := make([]Recipe, 0, len(list)+1)
	out = append(out, r)
	return append(out, list...)
}

// FindByTitle returns the stored entry with exactly this title.
func FindByTitle(list []Recipe, title string) (Recipe, bool) {
	i := indexOfTitle(list, title)
	if i < 0 {
		return Recipe{}, false
	}
	return list[i], true
}

func FindByID(list []Recipe, id string) (Recipe, bool) {
	i := indexOfID(list, id)
	if i < 0 {
		return Recipe{}, false
	}
	return list[i], true
}

// FindDuplicate returns the stored entry r would collide with: one carrying
// its id, or failing that one with its exact title.
func FindDuplicate(list []Recipe, r Recipe) (Recipe, bool) {
	if r.ID != "" {
		if existing, ok := FindByID(list, r.ID); ok {
			return existing, true
		}
	}
	return FindByTitle(list, r.Title)
}

// ReplaceByID returns a copy of list with the entry sharing r's id swapped for r.
func ReplaceByID(list []Recipe, r Recipe) ([]Recipe, bool) {
	i := indexOfID(list, r.ID)
	if i < 0 {
		return list, false
	}
	out := append([]Recipe(nil), list...)
	out[i] = r
	return out, true
}

// WithoutID returns a copy of list without the entry with id. Missing ids are a no-op.
func WithoutID(list []Recipe, id string) []Recipe {
	out := make([]Recipe, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
