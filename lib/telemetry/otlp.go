package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	ProtocolGrpc = "grpc"
	ProtocolHttp = "http"
)

const defaultMetricInterval = 15 * time.Second

// OtlpConfig is the "otlp" block of telemetry.json5. A scrape run sends
// both signals to one collector.
//
//	{
//	  otlp: {
//	    protocol: "grpc",
//	    endpoint: "http://localhost:4317",
//	    headers: { "x-api-key": "..." },
//	    traces: true,
//	    metrics: true,
//	    metric_interval_seconds: 15,
//	  },
//	}
type OtlpConfig struct {
	Protocol              string            `json:"protocol"`
	Endpoint              string            `json:"endpoint"`
	Headers               map[string]string `json:"headers"`
	Traces                bool              `json:"traces"`
	Metrics               bool              `json:"metrics"`
	MetricIntervalSeconds int               `json:"metric_interval_seconds"`
}

// Config is the shape of telemetry.json5.
type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

// Validate checks the endpoint/protocol pair whenever a signal is enabled.
func (c Config) Validate() error {
	o := c.Otlp
	if !o.Traces && !o.Metrics {
		return nil
	}
	if o.Protocol != ProtocolGrpc && o.Protocol != ProtocolHttp {
		return fmt.Errorf("otlp protocol must be %q or %q, got %q", ProtocolGrpc, ProtocolHttp, o.Protocol)
	}
	if o.Endpoint == "" {
		return fmt.Errorf("otlp endpoint is required when traces or metrics are enabled")
	}
	endpoint, err := url.Parse(o.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid otlp endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return fmt.Errorf("otlp endpoint must be an http(s) url, got %q", o.Endpoint)
	}
	if endpoint.Host == "" {
		return fmt.Errorf("otlp endpoint has no host: %q", o.Endpoint)
	}
	if o.MetricIntervalSeconds < 0 {
		return fmt.Errorf("metric_interval_seconds must not be negative")
	}
	return nil
}

func (o OtlpConfig) metricInterval() time.Duration {
	if o.MetricIntervalSeconds == 0 {
		return defaultMetricInterval
	}
	return time.Duration(o.MetricIntervalSeconds) * time.Second
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func newTraceProvider(ctx context.Context, r *resource.Resource, o OtlpConfig) (*trace.TracerProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter trace.SpanExporter
	var err error
	switch o.Protocol {
	case ProtocolGrpc:
		exporter, err = otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(o.Endpoint),
			otlptracegrpc.WithHeaders(o.Headers),
		)
	default:
		exporter, err = otlptracehttp.New(
			ctx,
			otlptracehttp.WithEndpointURL(o.Endpoint),
			otlptracehttp.WithHeaders(o.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", o.Protocol, err)
	}
	slog.Info("trace export enabled", "protocol", o.Protocol, "endpoint", o.Endpoint)

	return trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(r),
	), nil
}

func newMetricProvider(ctx context.Context, r *resource.Resource, o OtlpConfig) (*metric.MeterProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	var exporter metric.Exporter
	var err error
	switch o.Protocol {
	case ProtocolGrpc:
		exporter, err = otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(o.Endpoint),
			otlpmetricgrpc.WithHeaders(o.Headers),
		)
	default:
		exporter, err = otlpmetrichttp.New(
			ctx,
			otlpmetrichttp.WithEndpointURL(o.Endpoint),
			otlpmetrichttp.WithHeaders(o.Headers),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s metric exporter: %w", o.Protocol, err)
	}
	slog.Info("metric export enabled", "protocol", o.Protocol, "endpoint", o.Endpoint, "interval", o.metricInterval())

	return metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter, metric.WithInterval(o.metricInterval()))),
		metric.WithResource(r),
	), nil
}
