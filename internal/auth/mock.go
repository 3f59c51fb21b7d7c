package auth

import (
	"log/slog"
	"net/http"

	"chefai/internal/config"
	"chefai/internal/users"
)

const defaultMockEmail = "chef@chefai.local"

// mockClient signs every request in as one fixed user.
type mockClient struct {
	email   string
	storage *users.Storage
}

var _ AuthClient = (*mockClient)(nil)

func Mock(cfg *config.Config, storage *users.Storage) AuthClient {
	email := cfg.Mocks.Email
	if email == "" {
		email = defaultMockEmail
	}
	return &mockClient{email: email, storage: storage}
}

func (c *mockClient) WithAuthHTTP(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := c.storage.FindOrCreateByEmail(r.Context(), c.email)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to load mock user", "error", err)
			handler.ServeHTTP(w, r)
			return
		}
		handler.ServeHTTP(w, r.WithContext(users.ContextWithUser(r.Context(), u)))
	})
}

func (c *mockClient) logout(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "not implemented in mock auth client", http.StatusNotImplemented)
}

func (c *mockClient) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/logout", c.logout)
}
