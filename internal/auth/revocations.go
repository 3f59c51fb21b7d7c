package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"chefai/internal/cache"
)

const revokedPrefix = "auth_revoked/"

// Revocations remembers session token ids that were logged out before they expired.
type Revocations struct {
	cache cache.Cache
	now   func() time.Time
}

type revokedToken struct {
	ExpiresAt time.Time `json:"expires_at"`
}

func NewRevocations(c cache.Cache) *Revocations {
	return &Revocations{cache: c, now: time.Now}
}

func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	data, err := json.Marshal(revokedToken{ExpiresAt: expiresAt})
	if err != nil {
		return fmt.Errorf("failed to marshal revoked token: %w", err)
	}
	if err := r.cache.Put(ctx, revokedPrefix+tokenID, string(data), cache.Unconditional()); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}
	return nil
}

func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	rc, err := r.cache.Get(ctx, revokedPrefix+tokenID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read revoked token: %w", err)
	}
	defer func() { _ = rc.Close() }()

	var data revokedToken
	if err := json.NewDecoder(rc).Decode(&data); err != nil {
		return false, fmt.Errorf("failed to decode revoked token: %w", err)
	}
	if r.now().After(data.ExpiresAt) {
		// the token would be rejected as expired anyway
		_ = r.cache.Delete(ctx, revokedPrefix+tokenID)
		return false, nil
	}
	return true, nil
}
