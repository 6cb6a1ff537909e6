package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/internal/config"
	"github.com/fyrsmithlabs/ignitor/internal/logging"
	"github.com/fyrsmithlabs/ignitor/internal/metrics"
	"github.com/fyrsmithlabs/ignitor/internal/providers"
	"github.com/fyrsmithlabs/ignitor/internal/telemetry"
	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/ignitor"
	"github.com/fyrsmithlabs/ignitor/pkg/loader"
)

type bootstrap struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	ignitor   *ignitor.Ignitor
}

func newBootstrap(ctx context.Context, flags *rootFlags) (*bootstrap, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.root != "" {
		cfg.App.Root = flags.root
	}

	logCfg, err := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromRuntime(cfg.Telemetry, version))
	if err != nil {
		return nil, err
	}
	if h := tel.Health(); !h.Healthy {
		logger.Warn(ctx, "telemetry degraded, tracing disabled", zap.Error(h.Err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	c := container.New()
	providers.Register(c, providers.Deps{
		Logger:      logger,
		Registry:    reg,
		ServiceName: cfg.Telemetry.ServiceName,
		EnvFile:     cfg.App.EnvFile,
	})

	script := loader.NewScript(
		loader.WithTimeout(cfg.Loader.ScriptTimeout.Duration()),
		loader.WithConsole(logger.Named("console").Underlying()),
	)
	opts := []ignitor.Option{
		ignitor.WithLogger(logger),
		ignitor.WithLoader(script),
		ignitor.WithTracer(tel.Tracer("github.com/fyrsmithlabs/ignitor")),
		ignitor.WithShutdownTimeout(cfg.Server.ShutdownTimeout.Duration()),
		// Signals are handled by the command context.
		ignitor.WithSignals(),
	}
	if cfg.Server.Metrics {
		opts = append(opts, ignitor.WithMetrics(metrics.New(reg)))
	}

	ig := ignitor.New(c, opts...).
		AppRoot(cfg.App.Root).
		AppFile(cfg.App.File)

	return &bootstrap{cfg: cfg, logger: logger, telemetry: tel, ignitor: ig}, nil
}

func (b *bootstrap) close(ctx context.Context) {
	if err := b.telemetry.Shutdown(ctx); err != nil {
		b.logger.Warn(ctx, "telemetry shutdown failed", zap.Error(err))
	}
	_ = b.logger.Sync()
}
