package auth

import (
	"log/slog"

	"chefai/internal/cache"
	"chefai/internal/config"
	"chefai/internal/users"
)

// NewFromConfig creates an AuthClient based on config settings.
func NewFromConfig(cfg *config.Config, storage *users.Storage, c cache.Cache) (AuthClient, error) {
	if cfg.Mocks.Enable {
		slog.Info("Using mock auth")
		return Mock(cfg, storage), nil
	}
	if cfg.Clerk.Enabled() {
		slog.Info("Using clerk auth")
		return NewClerkClient(cfg.Clerk.SecretKey, storage)
	}
	slog.Info("Using credentials auth")
	return NewCredentials(cfg.Auth, storage, NewRevocations(c)), nil
}
