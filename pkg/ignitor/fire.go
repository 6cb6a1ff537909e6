package ignitor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/internal/exception"
	"github.com/fyrsmithlabs/ignitor/internal/logging"
	"github.com/fyrsmithlabs/ignitor/internal/metrics"
	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/helpers"
	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
	"github.com/fyrsmithlabs/ignitor/pkg/loader"
	"github.com/fyrsmithlabs/ignitor/pkg/manifest"
)

const (
	// HooksFile is evaluated before providers register, when present.
	HooksFile = "start/hooks"

	// DefaultNamespace is used when the package declares no autoload table.
	DefaultNamespace = "App"

	// DefaultAutoloadDir is the directory mapped to DefaultNamespace.
	DefaultAutoloadDir = "./app"

	exceptionHandlerPath = "Exceptions/Handler"
)

// Directories maps directory roles to paths under the primary autoload
// directory.
var Directories = map[string]string{
	"httpControllers":   "Controllers/Http",
	"wsControllers":     "Controllers/Ws",
	"models":            "Models",
	"modelHooks":        "Models/Hooks",
	"modelTraits":       "Models/Traits",
	"listeners":         "Listeners",
	"exceptions":        "Exceptions",
	"exceptionHandlers": "Exceptions/Handlers",
	"middleware":        "Middleware",
	"commands":          "Commands",
	"validators":        "Validators",
}

type phase struct {
	name  string
	state State
	run   func(ctx context.Context) error
}

// Fire runs every boot phase in order and stops at the first failure. The
// state reached so far is kept, so State reports where the boot stopped.
func (ig *Ignitor) Fire(ctx context.Context) (err error) {
	if ig.appRoot == "" {
		return ErrNoAppRoot
	}

	runID := uuid.NewString()
	ig.mu.Lock()
	ig.runID = runID
	ig.mu.Unlock()

	ctx = logging.WithLogger(logging.WithRunID(ctx, runID), ig.logger)
	ctx, span := ig.tracer.Start(ctx, "ignitor.fire", trace.WithAttributes(
		attribute.String("ignitor.app_root", ig.appRoot),
		attribute.Bool("ignitor.commands", ig.loadCommands),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ig.logger.Info(ctx, "firing application", zap.String("app_root", ig.appRoot))
	start := time.Now()

	for _, p := range ig.phases() {
		if err := ig.runPhase(ctx, p); err != nil {
			ig.logger.Error(ctx, "boot failed", zap.String("phase", p.name), zap.Error(err))
			return err
		}
	}

	ig.logger.Info(ctx, "application booted",
		zap.Duration("duration", time.Since(start)),
		zap.Int("preloads", ig.preloads.Len()))
	return nil
}

func (ig *Ignitor) phases() []phase {
	ps := []phase{
		{"manifest", ManifestLoaded, ig.loadManifest},
		{"autoload", AutoloadConfigured, ig.configureAutoload},
		{"helpers", HelpersRegistered, ig.registerHelpers},
		{"hooksFile", HooksFileMaybeLoaded, ig.loadHooksFile},
		{"providersRegistered", ProvidersRegistered, ig.registerProviders},
		{"providersBooted", ProvidersBooted, ig.bootProviders},
		{"aliases", AliasesDefined, ig.defineAliases},
		{"exceptionHandler", ExceptionHandlerResolved, ig.setupExceptionHandler},
	}
	if ig.loadCommands {
		ps = append(ps, phase{"commands", CommandsRegistered, ig.registerCommands})
	}
	return append(ps, phase{"preloads", Preloaded, ig.runPreloads})
}

func (ig *Ignitor) runPhase(ctx context.Context, p phase) error {
	ctx = logging.WithPhase(ctx, p.name)
	ctx, span := ig.tracer.Start(ctx, "ignitor."+p.name)
	defer span.End()

	start := time.Now()
	err := p.run(ctx)
	elapsed := time.Since(start)

	ig.metrics.ObservePhase(p.name, elapsed, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	ig.advance(p.state)
	ig.logger.Debug(ctx, "phase complete",
		zap.String("state", p.state.String()),
		zap.Duration("duration", elapsed))
	return nil
}

func (ig *Ignitor) dispatch(ctx context.Context, timing string, event hooks.Event) error {
	r := ig.hooks.Before
	if timing == "after" {
		r = ig.hooks.After
	}
	n := r.Len(event)
	err := r.Dispatch(event)
	if n > 0 {
		ig.metrics.HookDispatched(timing, string(event), err)
		ig.logger.Debug(ctx, "hooks dispatched",
			zap.String("timing", timing),
			zap.String("event", string(event)),
			zap.Int("count", n),
			zap.Error(err))
	}
	return err
}

// around brackets fn with before/after dispatch of event. After hooks only run
// when fn succeeded.
func (ig *Ignitor) around(ctx context.Context, event hooks.Event, fn func() error) error {
	if err := ig.dispatch(ctx, "before", event); err != nil {
		return err
	}
	if err := fn(); err != nil {
		return err
	}
	return ig.dispatch(ctx, "after", event)
}

func (ig *Ignitor) loadManifest(ctx context.Context) error {
	m, err := manifest.Load(ig.appRoot, ig.appFile)
	if err != nil {
		return err
	}
	pkg, err := manifest.LoadPackage(ig.appRoot)
	if err != nil {
		return err
	}

	ig.mu.Lock()
	ig.manifest, ig.pkg = m, pkg
	ig.mu.Unlock()

	ig.logger.Debug(ctx, "manifest loaded",
		zap.Strings("providers", m.Providers),
		zap.Int("aliases", m.Aliases.Len()),
		zap.String("framework_version", pkg.FrameworkVersion))
	return nil
}

func (ig *Ignitor) configureAutoload(ctx context.Context) error {
	autoload := ig.pkg.Autoload
	if autoload.Len() == 0 {
		autoload = manifest.OrderedMap{}
		autoload.Set(DefaultNamespace, DefaultAutoloadDir)
	}

	ns, _, _ := autoload.First()
	ig.c.SetAppNamespace(ns)
	autoload.Range(func(namespace, dir string) {
		ig.c.Autoload(filepath.Join(ig.appRoot, dir), namespace)
	})
	ig.c.BindDirectories(Directories)

	ig.logger.Debug(ctx, "autoload configured",
		zap.String("namespace", ns),
		zap.Strings("namespaces", autoload.Keys()))
	return nil
}

func (ig *Ignitor) registerHelpers(context.Context) error {
	root, dirs, isCommand := ig.appRoot, ig.c.Directories(), ig.loadCommands
	ig.c.Singleton(HelpersService, func(*container.Container) (any, error) {
		return helpers.New(root, dirs, isCommand), nil
	})
	ig.c.Alias(HelpersAlias, HelpersService)
	return nil
}

func (ig *Ignitor) loadHooksFile(ctx context.Context) error {
	_, err := ig.loader.Load(ctx, filepath.Join(ig.appRoot, HooksFile), scope{ig})
	if loader.IsNotFound(err) {
		ig.logger.Debug(ctx, "no hooks file")
		return nil
	}
	return err
}

func (ig *Ignitor) registerProviders(ctx context.Context) error {
	return ig.around(ctx, hooks.ProvidersRegistered, func() error {
		names := append([]string(nil), ig.manifest.Providers...)
		if ig.loadCommands {
			names = append(names, ig.manifest.AceProviders...)
		}
		if err := ig.c.RegisterProviders(names); err != nil {
			return err
		}
		ig.logger.Debug(ctx, "providers registered", zap.Strings("providers", names))
		return nil
	})
}

func (ig *Ignitor) bootProviders(ctx context.Context) error {
	return ig.around(ctx, hooks.ProvidersBooted, func() error {
		return ig.c.Boot(ctx)
	})
}

func (ig *Ignitor) defineAliases(ctx context.Context) error {
	ig.manifest.Aliases.Range(func(alias, target string) {
		ig.c.Alias(alias, target)
	})
	return nil
}

// setupExceptionHandler binds the wildcard handler to the app's own
// Exceptions/Handler module when it exists, and to the framework default
// otherwise.
func (ig *Ignitor) setupExceptionHandler(ctx context.Context) error {
	ns := ig.c.AppNamespace()
	dir := ig.c.Autoloads()[ns]
	path := filepath.Join(dir, filepath.FromSlash(exceptionHandlerPath))

	var ref string
	v, err := ig.loader.Load(ctx, path, scope{ig})
	switch {
	case err == nil:
		ref = ns + "/" + exceptionHandlerPath
		if v != nil && !ig.c.HasBinding(ref) {
			ig.c.Instance(ref, v)
		}
	case loader.IsNotFound(err):
		ref = exception.ProviderPrefix + exception.DefaultHandler
	default:
		return err
	}

	svc, err := ig.c.Use(ExceptionService)
	if err != nil {
		return fmt.Errorf("exception handler: %w", err)
	}
	binder, ok := svc.(exceptionBinder)
	if !ok {
		return fmt.Errorf("exception handler: %s is %T, not a binding table", ExceptionService, svc)
	}
	binder.Bind(exception.Wildcard, ref)

	ig.logger.Debug(ctx, "exception handler bound", zap.String("ref", ref))
	return nil
}

func (ig *Ignitor) registerCommands(ctx context.Context) error {
	return ig.around(ctx, hooks.RegisterCommands, func() error {
		kernel, err := ig.commandKernel()
		if err != nil {
			return err
		}
		for _, ref := range ig.manifest.Commands {
			if err := kernel.AddCommand(ref); err != nil {
				return err
			}
		}
		ig.logger.Debug(ctx, "commands registered", zap.Int("count", len(ig.manifest.Commands)))
		return nil
	})
}

func (ig *Ignitor) commandKernel() (Commands, error) {
	if ig.commands != nil {
		return ig.commands, nil
	}
	v, err := ig.c.Use(AceService)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoCommands, err)
	}
	k, ok := v.(Commands)
	if !ok {
		return nil, fmt.Errorf("%w: %s is %T", ErrNoCommands, AceService, v)
	}
	return k, nil
}

// runPreloads loads every preload entry in order. An optional entry that
// does not exist is skipped; any other failure aborts the rest.
func (ig *Ignitor) runPreloads(ctx context.Context) error {
	if err := ig.dispatch(ctx, "before", hooks.Preloading); err != nil {
		return err
	}

	for _, entry := range ig.preloads.Entries() {
		path := entry.ID
		if !filepath.IsAbs(path) {
			path = filepath.Join(ig.appRoot, filepath.FromSlash(path))
		}

		_, err := ig.loader.Load(ctx, path, scope{ig})
		switch {
		case err == nil:
			ig.metrics.Preload(metrics.OutcomeOK)
		case !entry.Required && loader.IsNotFound(err):
			ig.metrics.Preload(metrics.OutcomeSkipped)
			ig.logger.Debug(ctx, "optional preload missing", zap.String("module", entry.ID))
		default:
			ig.metrics.Preload(metrics.OutcomeError)
			return fmt.Errorf("preload %s: %w", entry.ID, err)
		}
	}

	return ig.dispatch(ctx, "after", hooks.Preloading)
}
