// Package localstore keeps a single typed value durable under one key of a
// cache medium. Reads never fail: anything unreadable falls back to the
// initial value.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"chefai/internal/cache"

	"golang.org/x/sync/errgroup"
)

type Value[T any] struct {
	medium  cache.Cache
	key     string
	initial T

	mu    sync.Mutex
	value T
	// durable is set once the medium has been read successfully; until then
	// writes stay in memory.
	durable bool
	ready   chan struct{}
}

// Open returns immediately holding initial and loads the durable value in the
// background. Writes made before hydration finishes stay in memory only.
func Open[T any](medium cache.Cache, key string, initial T) *Value[T] {
	v := &Value[T]{
		medium:  medium,
		key:     key,
		initial: initial,
		value:   initial,
		ready:   make(chan struct{}),
	}
	go v.hydrate(context.Background())
	return v
}

// OpenHydrated opens the value and waits for hydration.
func OpenHydrated[T any](ctx context.Context, medium cache.Cache, key string, initial T) (*Value[T], error) {
	v := Open(medium, key, initial)
	if err := v.Wait(ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Value[T]) hydrate(ctx context.Context) {
	defer close(v.ready)

	loaded, found, err := v.load(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		// the stored value may still be good; leave it alone for this session
		slog.WarnContext(ctx, "failed to read stored value, not persisting changes", "key", v.key, "error", err)
		return
	}
	v.durable = true
	if found {
		v.value = loaded
		return
	}
	v.persistLocked(ctx)
}

// load reports found=false for a missing or corrupt value. err is set only
// when the medium could not be read, in which case nothing is known about
// what it holds.
func (v *Value[T]) load(ctx context.Context) (value T, found bool, err error) {
	rc, err := v.medium.Get(ctx, v.key)
	if errors.Is(err, cache.ErrNotFound) {
		return value, false, nil
	}
	if err != nil {
		return value, false, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return value, false, err
	}
	if err := json.Unmarshal(data, &value); err != nil {
		slog.WarnContext(ctx, "stored value is corrupt, using default", "key", v.key, "error", err)
		var zero T
		return zero, false, nil
	}
	return value, true, nil
}

func (v *Value[T]) persistLocked(ctx context.Context) {
	if !v.durable {
		return
	}
	data, err := json.Marshal(v.value)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode value", "key", v.key, "error", err)
		return
	}
	if err := v.medium.Put(ctx, v.key, string(data), cache.Unconditional()); err != nil {
		slog.ErrorContext(ctx, "failed to write value", "key", v.key, "error", err)
	}
}

// Ready is closed once hydration has finished.
func (v *Value[T]) Ready() <-chan struct{} {
	return v.ready
}

func (v *Value[T]) Wait(ctx context.Context) error {
	select {
	case <-v.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the current value. Callers must not mutate it in place; use Update.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = value
	v.persistLocked(context.Background())
}

// Update replaces the value with fn(previous) while holding the lock, so
// concurrent updates are applied one after the other.
func (v *Value[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = fn(v.value)
	v.persistLocked(context.Background())
	return v.value
}

// Clear resets to the initial value. The stored key is only deleted once
// the value is durable, so a clear racing hydration cannot lose data.
func (v *Value[T]) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.value = v.initial
	if !v.durable {
		return
	}
	if err := v.medium.Delete(context.Background(), v.key); err != nil {
		slog.Error("failed to delete value", "key", v.key, "error", err)
	}
}

// Durable reports whether changes are being written to the medium.
func (v *Value[T]) Durable() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.durable
}

type Waiter interface {
	Wait(ctx context.Context) error
}

// WaitAll blocks until every value has hydrated.
func WaitAll(ctx context.Context, values ...Waiter) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, v := range values {
		g.Go(func() error { return v.Wait(ctx) })
	}
	return g.Wait()
}
