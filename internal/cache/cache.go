package cache

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound      = errors.New("cache entry not found")
	ErrAlreadyExists = errors.New("cache entry already exists")
	ErrInvalidKey    = errors.New("invalid cache key")
)

type PutCondition int

const (
	PutUnconditional PutCondition = iota
	PutIfNoneMatch
)

type PutOptions struct {
	Condition PutCondition
}

func Unconditional() PutOptions {
	return PutOptions{Condition: PutUnconditional}
}

// IfNoneMatch makes Put fail with ErrAlreadyExists when the key is present.
func IfNoneMatch() PutOptions {
	return PutOptions{Condition: PutIfNoneMatch}
}

// Cache is a durable key/value medium. Deleting a missing key is not an error.
type Cache interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key, value string, opts PutOptions) error
	Delete(ctx context.Context, key string) error
}

// ListCache can enumerate keys. Returned keys have the prefix trimmed.
type ListCache interface {
	Cache
	List(ctx context.Context, prefix string, token string) ([]string, error)
}

// ReadString reads a whole entry. Convenience for small JSON documents.
func ReadString(ctx context.Context, c Cache, key string) (string, error) {
	rc, err := c.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
