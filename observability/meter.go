package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/storagekit/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// StorageMetrics holds metric instruments for storage operation observability.
type StorageMetrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
	bytesTransferred  metric.Int64Counter
}

// NewStorageMetrics creates metric instruments on the given meter.
func NewStorageMetrics(meter metric.Meter) (*StorageMetrics, error) {
	operationTotal, err := meter.Int64Counter("storage.operation.total",
		metric.WithDescription("Total number of storage operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.operation.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("storage.error.total",
		metric.WithDescription("Total number of failed storage operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.error.total counter: %w", err)
	}

	bytesTransferred, err := meter.Int64Counter("storage.bytes.transferred",
		metric.WithDescription("Bytes uploaded to or downloaded from storage"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating storage.bytes.transferred counter: %w", err)
	}

	return &StorageMetrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		errorTotal:        errorTotal,
		bytesTransferred:  bytesTransferred,
	}, nil
}

// RecordOperation records one completed storage operation.
func (m *StorageMetrics) RecordOperation(ctx context.Context, op, provider string, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("provider", provider),
	)
	m.operationTotal.Add(ctx, 1, attrs)
	m.operationDuration.Record(ctx, float64(d.Milliseconds()), attrs)
	if err != nil {
		m.errorTotal.Add(ctx, 1, attrs)
	}
}

// RecordBytes records bytes moved by an upload or download.
func (m *StorageMetrics) RecordBytes(ctx context.Context, op, provider string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.bytesTransferred.Add(ctx, n, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("provider", provider),
	))
}
