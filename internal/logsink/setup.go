package logsink

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"chefai/internal/config"
)

func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Setup builds the process logger: JSON to stdout plus the optional blob and
// OTLP sinks. The returned function flushes and closes the sinks.
func Setup(ctx context.Context, stdout io.Writer, cfg config.LoggingConfig) (*slog.Logger, func(context.Context) error, error) {
	level := ParseLevel(cfg.Level)
	handlers := Fanout{slog.NewJSONHandler(stdout, &slog.HandlerOptions{Level: level})}
	var closers []func(context.Context) error

	blobCfg := BlobConfig{
		AccountName: cfg.BlobAccount,
		AccountKey:  cfg.BlobKey,
		Container:   cfg.BlobContainer,
		Level:       level,
	}
	if blobCfg.Enabled() {
		bh, err := NewBlobHandler(ctx, blobCfg)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, bh)
		closers = append(closers, func(context.Context) error { return bh.Close() })
	}

	if cfg.OTLPEnabled {
		oh, shutdown, err := NewOTelHandler(ctx, cfg.OTLPServiceTag)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, oh)
		closers = append(closers, shutdown)
	}

	closeAll := func(ctx context.Context) error {
		var errs []error
		for _, c := range closers {
			errs = append(errs, c(ctx))
		}
		return errors.Join(errs...)
	}

	if len(handlers) == 1 {
		return slog.New(handlers[0]), closeAll, nil
	}
	return slog.New(handlers), closeAll, nil
}
