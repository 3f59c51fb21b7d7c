package recipes

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// fold builds a fresh Caser per call; Casers are not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Search matches the query case-insensitively against title, description and
// every ingredient. A blank query returns the list unchanged.
func Search(list []Recipe, query string) []Recipe {
	q := strings.TrimSpace(query)
	if q == "" {
		return append([]Recipe(nil), list...)
	}
	q = fold(q)
	return lo.Filter(list, func(r Recipe, _ int) bool {
		if strings.Contains(fold(r.Title), q) || strings.Contains(fold(r.Description), q) {
			return true
		}
		return lo.ContainsBy(r.Ingredients, func(ing string) bool {
			return strings.Contains(fold(ing), q)
		})
	})
}
