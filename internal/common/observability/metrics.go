package observability

import (
	"context"
	"log"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

type Config struct {
	ServiceName    string
	JaegerEndpoint string
	// Registerer defaults to the global prometheus registry.
	Registerer promclient.Registerer
}

type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	meter          otelmetric.Meter
	tracer         trace.Tracer
	transitions    otelmetric.Int64Counter
	asyncDuration  otelmetric.Float64Histogram
	staleDiscarded otelmetric.Int64Counter
}

func New(cfg Config) *Observability {
	o := &Observability{tracer: otel.Tracer(cfg.ServiceName)}

	opts := []prometheus.Option{}
	if cfg.Registerer != nil {
		opts = append(opts, prometheus.WithRegisterer(cfg.Registerer))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	o.meterProvider = provider
	o.meter = provider.Meter(cfg.ServiceName)

	o.transitions, _ = o.meter.Int64Counter(
		"flow.transitions",
		otelmetric.WithDescription("Flow mode transitions"),
	)
	o.asyncDuration, _ = o.meter.Float64Histogram(
		"flow.async.duration",
		otelmetric.WithDescription("Duration of asynchronous flow work"),
		otelmetric.WithUnit("ms"),
	)
	o.staleDiscarded, _ = o.meter.Int64Counter(
		"flow.async.stale",
		otelmetric.WithDescription("Async completions discarded as stale"),
	)

	if cfg.JaegerEndpoint != "" {
		exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			log.Printf("Failed to create Jaeger exporter: %v", err)
			return o
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(resource.NewSchemaless(
				attribute.String("service.name", cfg.ServiceName),
			)),
		)
		otel.SetTracerProvider(tp)
		o.tracerProvider = tp
		o.tracer = tp.Tracer(cfg.ServiceName)
	}

	return o
}

// NewNoop returns an instance that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

// StartSpan opens a span on the configured tracer, or on the global one.
func (o *Observability) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("solar-checker")
	if o != nil && o.tracer != nil {
		tracer = o.tracer
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (o *Observability) RecordTransition(ctx context.Context, from, to string) {
	if o != nil && o.transitions != nil {
		o.transitions.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		))
	}
}

func (o *Observability) RecordAsyncDuration(ctx context.Context, kind string, duration time.Duration, outcome string) {
	if o != nil && o.asyncDuration != nil {
		o.asyncDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("outcome", outcome),
		))
	}
}

func (o *Observability) RecordStale(ctx context.Context, kind string) {
	if o != nil && o.staleDiscarded != nil {
		o.staleDiscarded.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("kind", kind),
		))
	}
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.tracerProvider != nil {
		o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		o.meterProvider.Shutdown(ctx)
	}
}
