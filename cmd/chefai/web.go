package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chefai/internal/ai"
	"chefai/internal/auth"
	"chefai/internal/cache"
	"chefai/internal/collection"
	"chefai/internal/config"
	"chefai/internal/users"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func runServer(cfg *config.Config, addr string) error {
	kv, err := cache.MakeCache(cfg)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	if closer, ok := kv.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	generator, err := makeGenerator(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to create generator: %w", err)
	}

	handler, err := newHandler(cfg, kv, generator, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("Serving chefai", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.Info("Shutdown signal received", "signal", sig)
		return gracefulShutdown(server)
	}
}

// makeGenerator returns nil when no model is configured; /api/generate is then not served.
func makeGenerator(ctx context.Context, cfg *config.Config) (ai.Generator, error) {
	if cfg.Mocks.Enable {
		return ai.Mock{}, nil
	}
	if cfg.AI.APIKey == "" {
		slog.Warn("GOOGLE_API_KEY not set, recipe generation disabled")
		return nil, nil
	}
	return ai.NewGeminiClient(ctx, cfg.AI.APIKey, cfg.AI.Model)
}

func newHandler(cfg *config.Config, kv cache.Cache, generator ai.Generator, reg *prometheus.Registry) (http.Handler, error) {
	userStorage := users.NewStorage(kv)
	authClient, err := auth.NewFromConfig(cfg, userStorage, kv)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth client: %w", err)
	}

	mux := http.NewServeMux()
	authClient.Register(mux)

	collection.NewHandler(collection.NewStorage(kv)).Register(mux)
	if generator != nil {
		ai.NewHandler(generator).Register(mux)
	}

	ready := &readiness{}
	ready.Add("storage", cacheCheck{kv})
	mux.Handle("GET /ready", ready)

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return authClient.WithAuthHTTP(WithMiddleware(mux, reg)), nil
}

func gracefulShutdown(svr *http.Server) error {
	// Give outstanding requests 25 seconds to complete (kubernetes has 30 second grace period)
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		// Force close after timeout
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}
	return nil
}
