// Package telemetry configures OpenTelemetry tracing for glint runs.
package telemetry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const DefaultServiceName = "glint"

type Config struct {
	Endpoint    string
	Insecure    bool
	ServiceName string
	Version     string
	DialTimeout time.Duration
}

func (c Config) Enabled() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

type providerOptions struct {
	exporter sdktrace.SpanExporter
}

type Option func(*providerOptions)

// WithExporter replaces the OTLP exporter, enabling tracing even without an endpoint.
func WithExporter(exp sdktrace.SpanExporter) Option {
	return func(opts *providerOptions) {
		if exp != nil {
			opts.exporter = exp
		}
	}
}

// Provider owns the tracer provider for one CLI invocation.
type Provider struct {
	tracerProvider trace.TracerProvider
	sdk            *sdktrace.TracerProvider
	shutdown       sync.Once
}

// New builds a provider. Without an endpoint or exporter the provider is a no-op.
func New(cfg Config, opts ...Option) (*Provider, error) {
	builder := providerOptions{}
	for _, opt := range opts {
		opt(&builder)
	}

	if !cfg.Enabled() && builder.exporter == nil {
		return &Provider{tracerProvider: noop.NewTracerProvider()}, nil
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(resourceAttributes(cfg)...))
	if err != nil {
		return nil, err
	}

	exporter := builder.exporter
	if exporter == nil {
		exporter, err = newExporter(cfg)
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	return &Provider{tracerProvider: tp, sdk: tp}, nil
}

// Enabled reports whether spans are recorded and exported.
func (p *Provider) Enabled() bool {
	return p != nil && p.sdk != nil
}

func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tracerProvider.Tracer(name)
}

// Install makes the provider the global tracer provider.
func (p *Provider) Install() {
	otel.SetTracerProvider(p.tracerProvider)
}

// Shutdown flushes pending spans. It is safe to call more than once.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	var shutdownErr error
	p.shutdown.Do(func() {
		shutdownErr = p.sdk.Shutdown(ctx)
	})
	return shutdownErr
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	if !cfg.Enabled() {
		return nil, errors.New("telemetry endpoint is required")
	}

	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	clientOpts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
	}

	return otlptrace.New(ctx, otlptracegrpc.NewClient(clientOpts...))
}

func resourceAttributes(cfg Config) []attribute.KeyValue {
	name := cfg.ServiceName
	if strings.TrimSpace(name) == "" {
		name = DefaultServiceName
	}
	attrs := []attribute.KeyValue{attribute.String("service.name", name)}
	if strings.TrimSpace(cfg.Version) != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.Version))
	}
	return attrs
}
