package cache

import (
	"bytes"
	"context"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// InMemoryCache keeps values in process memory. Nothing survives a restart;
// it backs tests and STORAGE_DRIVER=memory.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

var _ ListCache = (*InMemoryCache)(nil)

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: map[string][]byte{}}
}

func (c *InMemoryCache) lookup(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *InMemoryCache) Get(_ context.Context, key string) (io.ReadCloser, error) {
	v, ok := c.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	// stored slices are never mutated, readers can share them
	return io.NopCloser(bytes.NewReader(v)), nil
}

func (c *InMemoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.lookup(key)
	return ok, nil
}

func (c *InMemoryCache) Put(_ context.Context, key, value string, opts PutOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, taken := c.entries[key]; taken && opts.Condition == PutIfNoneMatch {
		return ErrAlreadyExists
	}
	c.entries[key] = []byte(value)
	return nil
}

func (c *InMemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// List returns keys under prefix with the prefix removed, sorted.
func (c *InMemoryCache) List(_ context.Context, prefix, _ string) ([]string, error) {
	c.mu.RLock()
	all := slices.Sorted(maps.Keys(c.entries))
	c.mu.RUnlock()

	out := []string{}
	for _, k := range all {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			out = append(out, rest)
		}
	}
	return out, nil
}
