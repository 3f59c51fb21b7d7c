package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"chefai/internal/cache"
)

type Readyable interface {
	Ready(context.Context) error
}

type readyCheck struct {
	name  string
	check Readyable
}

// readiness latches: once every check has passed it stays ready.
type readiness struct {
	done   atomic.Bool
	checks []readyCheck
}

func (r *readiness) Add(name string, check Readyable) {
	r.checks = append(r.checks, readyCheck{name: name, check: check})
}

func (r *readiness) Ready(ctx context.Context) error {
	if r.done.Load() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, c := range r.checks {
		if err := c.check.Ready(ctx); err != nil {
			return fmt.Errorf("%s: %w", c.name, err)
		}
	}
	r.done.Store(true)
	return nil
}

func (r *readiness) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	status, body := http.StatusOK, map[string]string{"status": "ok"}
	if err := r.Ready(req.Context()); err != nil {
		slog.WarnContext(req.Context(), "not ready", "error", err)
		status, body = http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.ErrorContext(req.Context(), "failed to write readiness response", "error", err)
	}
}

// cacheCheck is ready once the storage medium answers a lookup.
type cacheCheck struct {
	cache cache.Cache
}

func (c cacheCheck) Ready(ctx context.Context) error {
	if p, ok := c.cache.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	_, err := c.cache.Exists(ctx, "ready")
	return err
}
