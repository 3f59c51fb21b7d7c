package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
	"filippo.io/age/armor"
)

// EncryptedCache wraps another cache and age-encrypts every value at rest.
// Keys are left in the clear so List keeps working.
type EncryptedCache struct {
	inner    ListCache
	identity *age.X25519Identity
}

var _ ListCache = (*EncryptedCache)(nil)

func NewEncryptedCache(inner ListCache, identity string) (*EncryptedCache, error) {
	id, err := age.ParseX25519Identity(strings.TrimSpace(identity))
	if err != nil {
		return nil, fmt.Errorf("failed to parse age identity: %w", err)
	}
	return &EncryptedCache{inner: inner, identity: id}, nil
}

func (e *EncryptedCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	r, err := age.Decrypt(armor.NewReader(rc), e.identity)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
	}
	return io.NopCloser(bytes.NewReader(plain)), nil
}

func (e *EncryptedCache) Exists(ctx context.Context, key string) (bool, error) {
	return e.inner.Exists(ctx, key)
}

func (e *EncryptedCache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	var buf bytes.Buffer
	aw := armor.NewWriter(&buf)
	w, err := age.Encrypt(aw, e.identity.Recipient())
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if _, err := io.WriteString(w, value); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	if err := aw.Close(); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return e.inner.Put(ctx, key, buf.String(), opts)
}

func (e *EncryptedCache) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

func (e *EncryptedCache) List(ctx context.Context, prefix string, token string) ([]string, error) {
	return e.inner.List(ctx, prefix, token)
}

// Ping and Close reach the wrapped medium when it supports them.
func (e *EncryptedCache) Ping(ctx context.Context) error {
	if p, ok := e.inner.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := e.inner.Exists(ctx, "ready")
	return err
}

func (e *EncryptedCache) Close() error {
	if c, ok := e.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
