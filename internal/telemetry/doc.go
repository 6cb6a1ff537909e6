// Package telemetry provides OpenTelemetry tracing for ignitor.
//
// Create telemetry instance:
//
//	cfg := telemetry.NewDefaultConfig()
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(ctx)
//
// Use the tracer:
//
//	tracer := tel.Tracer("ignitor")
//	ctx, span := tracer.Start(ctx, "ignitor.providersBooted")
//	defer span.End()
//
// Spans are exported over OTLP (gRPC by default, or http/protobuf). When
// telemetry is disabled, Tracer returns the global no-op tracer. Exporter
// failures never stop the application; the instance is marked degraded.
package telemetry
