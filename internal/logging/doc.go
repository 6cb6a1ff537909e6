// Package logging provides structured logging for ignitor.
//
// Logging wraps Zap with:
//   - Custom Trace level (-2, below Debug)
//   - Automatic context field injection (trace_id, run.id, phase)
//   - A test logger backed by zaptest/observer
//
// Create a logger from config:
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, os.Stderr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
// Log with context:
//
//	ctx = logging.WithRunID(ctx, runID)
//	ctx = logging.WithPhase(ctx, "providersBooted")
//	logger.Debug(ctx, "phase complete", zap.Duration("duration", d))
package logging
