package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// HealthStatus reports whether spans are being exported.
type HealthStatus struct {
	Healthy  bool
	Degraded bool
	Err      error
}

// Telemetry owns the tracer provider and its shutdown.
type Telemetry struct {
	config         *Config
	tracerProvider *trace.TracerProvider

	mu     sync.Mutex
	status HealthStatus
}

// New creates a Telemetry instance. A disabled config yields an instance
// whose tracers come from the global provider. When the exporter cannot be
// built the instance is degraded rather than failing.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	t := &Telemetry{config: cfg, status: HealthStatus{Healthy: true}}
	if !cfg.Enabled {
		return t, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	exp, err := exporterFor(ctx, cfg, &o)
	if err != nil {
		t.setStatus(HealthStatus{Degraded: true, Err: err})
		return t, nil
	}

	t.tracerProvider = newTracerProvider(cfg, exp)
	otel.SetTracerProvider(t.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return t, nil
}

func (t *Telemetry) setStatus(s HealthStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Tracer returns a tracer for name, falling back to the global provider when
// tracing is off.
func (t *Telemetry) Tracer(name string, opts ...oteltrace.TracerOption) oteltrace.Tracer {
	if t == nil || t.tracerProvider == nil {
		return otel.GetTracerProvider().Tracer(name, opts...)
	}
	return t.tracerProvider.Tracer(name, opts...)
}

// Shutdown flushes and stops the tracer provider. Without a ctx deadline it
// is bounded by the configured shutdown timeout.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok && t.config != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.config.Shutdown.Timeout.Duration())
		defer cancel()
	}

	t.mu.Lock()
	t.status.Healthy = false
	t.mu.Unlock()

	if t.tracerProvider == nil {
		return nil
	}
	if err := t.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("trace provider shutdown: %w", err)
	}
	return nil
}

// ForceFlush exports pending spans now.
func (t *Telemetry) ForceFlush(ctx context.Context) error {
	if t == nil || t.tracerProvider == nil {
		return nil
	}
	if err := t.tracerProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("trace flush: %w", err)
	}
	return nil
}

// Health returns a snapshot of the status.
func (t *Telemetry) Health() HealthStatus {
	if t == nil {
		return HealthStatus{Degraded: true}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// IsEnabled reports whether spans are being exported.
func (t *Telemetry) IsEnabled() bool {
	if t == nil || t.config == nil || t.tracerProvider == nil {
		return false
	}
	return t.config.Enabled && t.Health().Healthy
}
