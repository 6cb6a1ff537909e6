package telemetry

import (
	"slices"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTelemetry is an enabled Telemetry whose spans stay in memory.
type TestTelemetry struct {
	*Telemetry

	SpanRecorder *tracetest.SpanRecorder
}

// NewTestTelemetry returns telemetry recording every span synchronously.
func NewTestTelemetry() *TestTelemetry {
	cfg := NewDefaultConfig()
	cfg.Enabled = true

	rec := tracetest.NewSpanRecorder()
	t := &Telemetry{
		config:         cfg,
		tracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)),
		status:         HealthStatus{Healthy: true},
	}
	return &TestTelemetry{Telemetry: t, SpanRecorder: rec}
}

// Spans returns the ended spans in end order.
func (t *TestTelemetry) Spans() []sdktrace.ReadOnlySpan {
	return t.SpanRecorder.Ended()
}

// SpanByName returns the first ended span called name, or nil.
func (t *TestTelemetry) SpanByName(name string) sdktrace.ReadOnlySpan {
	spans := t.Spans()
	if i := slices.IndexFunc(spans, func(s sdktrace.ReadOnlySpan) bool { return s.Name() == name }); i >= 0 {
		return spans[i]
	}
	return nil
}

// SpanNames lists the ended span names in end order.
func (t *TestTelemetry) SpanNames() []string {
	var names []string
	for _, s := range t.Spans() {
		names = append(names, s.Name())
	}
	return names
}

func (t *TestTelemetry) mustSpan(tb testing.TB, name string) sdktrace.ReadOnlySpan {
	tb.Helper()
	s := t.SpanByName(name)
	if s == nil {
		tb.Fatalf("span %q not recorded; have %v", name, t.SpanNames())
	}
	return s
}

// AssertSpanExists fails tb unless a span called name ended.
func (t *TestTelemetry) AssertSpanExists(tb testing.TB, name string) {
	tb.Helper()
	if t.SpanByName(name) == nil {
		tb.Errorf("span %q not recorded; have %v", name, t.SpanNames())
	}
}

// AssertSpanError fails tb unless the span called name ended with an error
// status.
func (t *TestTelemetry) AssertSpanError(tb testing.TB, name string) {
	tb.Helper()
	if got := t.mustSpan(tb, name).Status().Code; got != codes.Error {
		tb.Errorf("span %q status = %v, want Error", name, got)
	}
}

// AssertSpanAttribute fails tb unless the span carries key=expected.
func (t *TestTelemetry) AssertSpanAttribute(tb testing.TB, name, key string, expected any) {
	tb.Helper()
	for _, kv := range t.mustSpan(tb, name).Attributes() {
		if kv.Key != attribute.Key(key) {
			continue
		}
		if got := kv.Value.AsInterface(); got != expected {
			tb.Errorf("span %q %s = %v (%T), want %v (%T)", name, key, got, got, expected, expected)
		}
		return
	}
	tb.Errorf("span %q has no attribute %q", name, key)
}
