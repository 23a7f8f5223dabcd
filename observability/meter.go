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

	"github.com/kbukum/netclient/logger"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The provider should be shut down on exit.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric instrument names.
const (
	MetricCalls        = "netclient.calls"
	MetricCallDuration = "netclient.call.duration"
	MetricCallsActive  = "netclient.calls.active"
	MetricRetries      = "netclient.retries"
)

// Metrics holds the client's metric instruments.
type Metrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	retries  metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	calls, err := meter.Int64Counter(MetricCalls,
		metric.WithDescription("Completed calls by method, strategy and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCalls, err)
	}

	duration, err := meter.Float64Histogram(MetricCallDuration,
		metric.WithDescription("Duration of calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricCallDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricCallsActive,
		metric.WithDescription("Calls currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCallsActive, err)
	}

	retries, err := meter.Int64Counter(MetricRetries,
		metric.WithDescription("Re-issued requests after a constrained network failure"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricRetries, err)
	}

	return &Metrics{calls: calls, duration: duration, active: active, retries: retries}, nil
}

// RecordCallStart increments the in-flight count.
func (m *Metrics) RecordCallStart(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// RecordCallEnd decrements the in-flight count and records the completed call.
func (m *Metrics) RecordCallEnd(ctx context.Context, method, strategy, outcome string, d time.Duration) {
	m.active.Add(ctx, -1)
	m.calls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("strategy", strategy),
		attribute.String("outcome", outcome),
	))
	m.duration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("strategy", strategy),
	))
}

// RecordRetry counts one constrained-network re-issue.
func (m *Metrics) RecordRetry(ctx context.Context, method string) {
	m.retries.Add(ctx, 1, metric.WithAttributes(attribute.String("method", method)))
}
