package recipes

import "errors"

type Op string

const (
	OpLoad   Op = "load"
	OpSave   Op = "save"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var opMessages = map[Op]string{
	OpLoad:   "Не удалось загрузить рецепты",
	OpSave:   "Не удалось сохранить рецепт",
	OpUpdate: "Не удалось обновить рецепт",
	OpDelete: "Не удалось удалить рецепт",
}

// UserMessage is the text shown to the user when op fails with err. Backend
// details never leak; validation and auth failures get their own wording.
func UserMessage(op Op, err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "Необходимо войти в аккаунт"
	case errors.Is(err, ErrInvalidRecipe):
		return "У рецепта должно быть название"
	case errors.Is(err, ErrNotFound) && op == OpUpdate:
		return "Рецепт не найден"
	}
	if msg, ok := opMessages[op]; ok {
		return msg
	}
	return "Что-то пошло не так"
}
