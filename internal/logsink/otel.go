package logsink

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// NewOTelHandler exports records over OTLP/HTTP. The endpoint comes from the
// standard OTEL_EXPORTER_OTLP_* environment variables.
func NewOTelHandler(ctx context.Context, serviceName string) (slog.Handler, func(context.Context) error, error) {
	exporter, err := otlploghttp.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create otlp log exporter: %w", err)
	}
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	handler := otelslog.NewHandler(serviceName, otelslog.WithLoggerProvider(provider))
	return handler, provider.Shutdown, nil
}
