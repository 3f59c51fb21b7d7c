package cache

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"chefai/internal/config"
)

func MakeCache(cfg *config.Config) (ListCache, error) {
	c, err := makeMedium(cfg.Storage)
	if err != nil {
		return nil, err
	}
	if cfg.Storage.AgeIdentity != "" {
		slog.Info("Encrypting cache values with age")
		enc, err := NewEncryptedCache(c, cfg.Storage.AgeIdentity)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
	return c, nil
}

func makeMedium(cfg config.StorageConfig) (ListCache, error) {
	switch cfg.Driver {
	case "", "file":
		slog.Info("Using file cache", "dir", cfg.Dir)
		return NewFileCache(cfg.Dir), nil
	case "memory":
		slog.Info("Using in-memory cache")
		return NewInMemoryCache(), nil
	case "sqlite":
		path := cfg.SQLitePath
		if path == "" {
			path = filepath.Join(cfg.Dir, "chefai.db")
		}
		slog.Info("Using SQLite cache", "path", path)
		return orNil(NewSQLiteCache(path))
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL could not be found")
		}
		slog.Info("Using Redis cache", "prefix", cfg.RedisPrefix)
		return orNil(NewRedisCache(cfg.RedisURL, cfg.RedisPrefix))
	case "azure":
		slog.Info("Using Azure Blob Storage for cache", "container", cfg.AzureContainer)
		return orNil(NewBlobCache(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer))
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// orNil keeps a failed constructor from returning a typed nil inside the interface.
func orNil[C ListCache](c C, err error) (ListCache, error) {
	if err != nil {
		return nil, err
	}
	return c, nil
}
