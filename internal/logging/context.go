package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ctxKey keys the values this package stores on a context.
type ctxKey int

const (
	runKey ctxKey = iota
	phaseKey
	loggerKey
)

func stringValue(ctx context.Context, key ctxKey) string {
	s, _ := ctx.Value(key).(string)
	return s
}

// ContextFields returns the trace, run and phase fields carried by ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}
	if id := stringValue(ctx, runKey); id != "" {
		fields = append(fields, zap.String("run.id", id))
	}
	if phase := stringValue(ctx, phaseKey); phase != "" {
		fields = append(fields, zap.String("phase", phase))
	}
	return fields
}

// WithRunID tags ctx with the id of one boot run.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runKey, id)
}

// RunIDFromContext returns the run id, or "".
func RunIDFromContext(ctx context.Context) string { return stringValue(ctx, runKey) }

// WithPhase tags ctx with the boot phase being executed.
func WithPhase(ctx context.Context, phase string) context.Context {
	return context.WithValue(ctx, phaseKey, phase)
}

// PhaseFromContext returns the phase, or "".
func PhaseFromContext(ctx context.Context) string { return stringValue(ctx, phaseKey) }

// WithLogger stores logger on ctx for code that only receives a context,
// such as provider Boot methods.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger stored by WithLogger, or a nop logger.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return NewNop()
}
