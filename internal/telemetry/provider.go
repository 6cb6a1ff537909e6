package telemetry

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc/credentials"
)

// ProtocolHTTP selects the OTLP/HTTP exporter. Anything else uses gRPC.
const ProtocolHTTP = "http/protobuf"

// Option configures New.
type Option func(*options)

type options struct {
	exporter trace.SpanExporter
}

// WithTraceExporter replaces the OTLP exporter, typically with an in-memory
// one in tests.
func WithTraceExporter(exp trace.SpanExporter) Option {
	return func(o *options) { o.exporter = exp }
}

func exporterFor(ctx context.Context, cfg *Config, o *options) (trace.SpanExporter, error) {
	if o.exporter != nil {
		return o.exporter, nil
	}

	var (
		exp trace.SpanExporter
		err error
	)
	if cfg.Protocol == ProtocolHTTP {
		exp, err = otlptracehttp.New(ctx, httpOptions(cfg)...)
	} else {
		exp, err = otlptracegrpc.New(ctx, grpcOptions(cfg)...)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s trace exporter: %w", cfg.Protocol, err)
	}
	return exp, nil
}

// skipVerify is only used when the operator turned verification off.
func skipVerify() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true} //nolint:gosec
}

func httpOptions(cfg *Config) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(stripScheme(cfg.Endpoint))}
	switch {
	case cfg.Insecure:
		opts = append(opts, otlptracehttp.WithInsecure())
	case cfg.TLSSkipVerify:
		opts = append(opts, otlptracehttp.WithTLSClientConfig(skipVerify()))
	}
	return opts
}

func grpcOptions(cfg *Config) []otlptracegrpc.Option {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(stripScheme(cfg.Endpoint))}
	switch {
	case cfg.Insecure:
		opts = append(opts, otlptracegrpc.WithInsecure())
	case cfg.TLSSkipVerify:
		opts = append(opts, otlptracegrpc.WithTLSCredentials(credentials.NewTLS(skipVerify())))
	}
	return opts
}

// sampler maps a rate to a parent-based sampler. Rates at or beyond the
// bounds short-circuit to always or never.
func sampler(rate float64) trace.Sampler {
	root := trace.TraceIDRatioBased(rate)
	if rate >= 1 {
		root = trace.AlwaysSample()
	} else if rate <= 0 {
		root = trace.NeverSample()
	}
	return trace.ParentBased(root)
}

func newTracerProvider(cfg *Config, exp trace.SpanExporter) *trace.TracerProvider {
	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	)
	return trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
		trace.WithSampler(sampler(cfg.Sampling.Rate)),
	)
}

// stripScheme turns a URL-style endpoint into the host:port the exporters
// expect.
func stripScheme(endpoint string) string {
	for _, scheme := range []string{"https://", "http://"} {
		if rest, ok := strings.CutPrefix(endpoint, scheme); ok {
			return rest
		}
	}
	return endpoint
}
