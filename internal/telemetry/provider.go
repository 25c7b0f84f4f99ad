package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// ProviderConfig configures the OpenTelemetry SDK's metrics provider.
type ProviderConfig struct {
	// ServiceName is reported on every metric's resource attributes.
	// Default: "graphrag".
	ServiceName string

	// ServiceVersion is reported alongside ServiceName.
	ServiceVersion string
}

// InitProvider builds a MeterProvider backed by a Prometheus exporter
// (scraped via the caller's own /metrics endpoint, not served by this
// package) and registers it as the global OTel meter provider. The
// returned shutdown function flushes and closes the exporter; call it
// from a defer in main.
func InitProvider(ctx context.Context, cfg ProviderConfig) (shutdown func(context.Context) error, err error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "graphrag"
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	promExp, err := promexporter.New()
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExp),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
