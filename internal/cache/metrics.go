package cache

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mosaic.cache"

var tracer = otel.Tracer(instrumentationName)

// metrics holds the counters of one cache instance. All counters carry the
// cache name as attribute so instances sharing a provider stay apart.
type metrics struct {
	attrs       metric.MeasurementOption
	hits        metric.Int64Counter
	misses      metric.Int64Counter
	derivations metric.Int64Counter
	failures    metric.Int64Counter
	evictions   metric.Int64Counter
}

func newMetrics(provider metric.MeterProvider, name string) (*metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)
	m := &metrics{attrs: metric.WithAttributes(attribute.String("cache", name))}

	var err error
	if m.hits, err = meter.Int64Counter(
		"model_cache_hits_total",
		metric.WithDescription("Total number of model cache hits"),
	); err != nil {
		return nil, err
	}
	if m.misses, err = meter.Int64Counter(
		"model_cache_misses_total",
		metric.WithDescription("Total number of model cache misses"),
	); err != nil {
		return nil, err
	}
	if m.derivations, err = meter.Int64Counter(
		"model_cache_derivations_total",
		metric.WithDescription("Total number of derive calls"),
	); err != nil {
		return nil, err
	}
	if m.failures, err = meter.Int64Counter(
		"model_cache_derive_errors_total",
		metric.WithDescription("Total number of failed derive calls"),
	); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter(
		"model_cache_evictions_total",
		metric.WithDescription("Total number of entries evicted by the sweep"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *metrics) hit(ctx context.Context) {
	if m != nil {
		m.hits.Add(ctx, 1, m.attrs)
	}
}

func (m *metrics) miss(ctx context.Context) {
	if m != nil {
		m.misses.Add(ctx, 1, m.attrs)
	}
}

func (m *metrics) derived(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.derivations.Add(ctx, 1, m.attrs)
	if err != nil {
		m.failures.Add(ctx, 1, m.attrs)
	}
}

func (m *metrics) evicted(ctx context.Context, n int) {
	if m != nil && n > 0 {
		m.evictions.Add(ctx, int64(n), m.attrs)
	}
}

// startDeriveSpan creates a span around one derive call.
func startDeriveSpan(ctx context.Context, cache, uri string, version int32) (context.Context, trace.Span) {
	return tracer.Start(ctx, "ModelCache.derive",
		trace.WithAttributes(
			attribute.String("cache.name", cache),
			attribute.String("document.uri", uri),
			attribute.Int("document.version", int(version)),
		),
	)
}
