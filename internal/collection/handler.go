package collection

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"chefai/internal/recipes"
	"chefai/internal/users"
)

const Path = recipes.DefaultPath

// maxRecipeBytes bounds a single recipe body.
const maxRecipeBytes = 1 << 20

var errBadBody = errors.New("invalid request body")

type Handler struct {
	storage *Storage
}

func NewHandler(storage *Storage) *Handler {
	return &Handler{storage: storage}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET "+Path, h.requireUser(h.handleList))
	mux.HandleFunc("POST "+Path, h.requireUser(h.handleCreate))
	mux.HandleFunc("PUT "+Path, h.requireUser(h.handleUpdate))
	mux.HandleFunc("DELETE "+Path, h.requireUser(h.handleDelete))
}

type userHandler func(w http.ResponseWriter, r *http.Request, owner string)

func (h *Handler) requireUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := users.FromContext(r.Context())
		if u == nil || u.PrimaryEmail() == "" {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r, u.PrimaryEmail())
	}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, owner string) {
	list, err := h.storage.List(r.Context(), owner)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, owner string) {
	var recipe recipes.Recipe
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRecipeBytes)).Decode(&recipe); err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}
	if err := recipe.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Recipe title is required")
		return
	}

	stored, err := h.storage.Add(r.Context(), owner, recipe)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to save recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save recipe")
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, owner string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRecipeBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}
	var target struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &target); err != nil {
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	}
	if target.ID == "" {
		writeError(w, http.StatusBadRequest, "Recipe ID is required")
		return
	}

	merged, err := h.storage.Merge(r.Context(), owner, target.ID, body)
	switch {
	case errors.Is(err, recipes.ErrNotFound):
		writeError(w, http.StatusNotFound, "Recipe not found")
		return
	case errors.Is(err, errBadBody):
		writeError(w, http.StatusBadRequest, errBadBody.Error())
		return
	case errors.Is(err, recipes.ErrInvalidRecipe):
		writeError(w, http.StatusBadRequest, "Recipe title is required")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "failed to update recipe", "recipe_id", target.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to update recipe")
		return
	}
	writeJSON(w, http.StatusOK, merged)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, owner string) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Recipe ID is required")
		return
	}
	if err := h.storage.Delete(r.Context(), owner, id); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete recipe", "recipe_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete recipe")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
