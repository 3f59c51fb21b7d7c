package ai

import (
	"context"

	"chefai/internal/recipes"
)

// Mock returns a canned recipe for any valid request.
type Mock struct{}

var _ Generator = Mock{}

func (Mock) Generate(_ context.Context, req Request) (recipes.Recipe, error) {
	if err := req.Validate(); err != nil {
		return recipes.Recipe{}, err
	}
	r := recipes.Recipe{
		Title:        "Борщ",
		Description:  "Классический украинский борщ со сметаной",
		Ingredients:  []string{"свекла 2 шт", "капуста 300 г", "картофель 3 шт", "морковь 1 шт", "говядина 500 г"},
		Instructions: []string{"Сварите бульон из говядины.", "Добавьте нарезанные овощи.", "Варите до готовности и подавайте со сметаной."},
		CookingTime:  "2 часа",
		Difficulty:   "Средне",
		Calories:     "350 ккал",
	}
	if req.Mode == ModeFusion {
		r.Title = "Фьюжн: " + req.Cuisine1 + " + " + req.Cuisine2
	}
	return r, nil
}
