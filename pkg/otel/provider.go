// Package otel provides OpenTelemetry implementations of the o11y interfaces.
package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/gweinbach/roulette/pkg/o11y"
)

// Provider implements both MetricsProvider and TracingProvider on top of an
// OpenTelemetry MeterProvider and TracerProvider.
type Provider struct {
	meter  metric.Meter
	tracer trace.Tracer
	logger *zap.Logger
}

// NewProvider creates a provider backed by the globally registered
// OpenTelemetry providers. Until an SDK is installed with otel.SetMeterProvider
// and otel.SetTracerProvider, every instrument and span it returns is a no-op.
func NewProvider(serviceName, serviceVersion string, logger *zap.Logger) *Provider {
	return NewProviderFrom(otel.GetMeterProvider(), otel.GetTracerProvider(), serviceName, serviceVersion, logger)
}

// NewProviderFrom creates a provider backed by the given OpenTelemetry
// providers, typically from an SDK configured by the embedding program.
func NewProviderFrom(meterProvider metric.MeterProvider, tracerProvider trace.TracerProvider, serviceName, serviceVersion string, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		meter:  meterProvider.Meter(serviceName, metric.WithInstrumentationVersion(serviceVersion)),
		tracer: tracerProvider.Tracer(serviceName, trace.WithInstrumentationVersion(serviceVersion)),
		logger: logger,
	}
}

// Counter creates an OpenTelemetry counter
func (p *Provider) Counter(name string) o11y.Counter {
	counter, err := p.meter.Int64Counter(name)
	if err != nil {
		p.logger.Warn("Failed to create counter", zap.String("name", name), zap.Error(err))
	}
	return &otelCounter{counter: counter}
}

// Histogram creates an OpenTelemetry histogram
func (p *Provider) Histogram(name string) o11y.Histogram {
	histogram, err := p.meter.Float64Histogram(name)
	if err != nil {
		p.logger.Warn("Failed to create histogram", zap.String("name", name), zap.Error(err))
	}
	return &otelHistogram{histogram: histogram}
}

// Gauge creates an OpenTelemetry synchronous gauge
func (p *Provider) Gauge(name string) o11y.Gauge {
	gauge, err := p.meter.Float64Gauge(name)
	if err != nil {
		p.logger.Warn("Failed to create gauge", zap.String("name", name), zap.Error(err))
	}
	return &otelGauge{gauge: gauge}
}

// StartSpan creates an OpenTelemetry span
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, o11y.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

func attributes(labels []o11y.Label) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, len(labels))
	for i, label := range labels {
		attrs[i] = attribute.String(label.Key, label.Value)
	}
	return attrs
}

type otelCounter struct {
	counter metric.Int64Counter
}

func (c *otelCounter) Add(ctx context.Context, value int64, labels ...o11y.Label) {
	if c.counter == nil {
		return
	}
	c.counter.Add(ctx, value, metric.WithAttributes(attributes(labels)...))
}

type otelHistogram struct {
	histogram metric.Float64Histogram
}

func (h *otelHistogram) Record(ctx context.Context, value float64, labels ...o11y.Label) {
	if h.histogram == nil {
		return
	}
	h.histogram.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

type otelGauge struct {
	gauge metric.Float64Gauge
}

func (g *otelGauge) Set(ctx context.Context, value float64, labels ...o11y.Label) {
	if g.gauge == nil {
		return
	}
	g.gauge.Record(ctx, value, metric.WithAttributes(attributes(labels)...))
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttributes(labels ...o11y.Label) {
	s.span.SetAttributes(attributes(labels)...)
}

func (s *otelSpan) SetStatus(code o11y.SpanStatusCode, description string) {
	var otelCode codes.Code
	switch code {
	case o11y.SpanStatusOK:
		otelCode = codes.Ok
	case o11y.SpanStatusError:
		otelCode = codes.Error
	default:
		otelCode = codes.Unset
	}
	s.span.SetStatus(otelCode, description)
}

func (s *otelSpan) End() {
	s.span.End()
}
