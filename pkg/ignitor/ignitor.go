package ignitor

import (
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyrsmithlabs/ignitor/internal/logging"
	"github.com/fyrsmithlabs/ignitor/internal/metrics"
	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
	"github.com/fyrsmithlabs/ignitor/pkg/loader"
	"github.com/fyrsmithlabs/ignitor/pkg/manifest"
	"github.com/fyrsmithlabs/ignitor/pkg/preload"
)

// DefaultShutdownTimeout bounds the graceful close of the front-ends.
const DefaultShutdownTimeout = 10 * time.Second

// Ignitor boots an application found under its app root.
//
// Builder methods are meant to be called before Fire and are not safe for
// concurrent use with it.
type Ignitor struct {
	c        *container.Container
	hooks    *hooks.Hooks
	loader   loader.Loader
	logger   *logging.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	commands Commands
	stderr   io.Writer
	signals  []os.Signal

	shutdownTimeout time.Duration

	appRoot      string
	appFile      string
	loadCommands bool
	preloads     *preload.List

	mu       sync.RWMutex
	state    State
	manifest *manifest.Manifest
	pkg      *manifest.Package
	runID    string

	ready     chan struct{}
	readyOnce sync.Once

	// warned flips on the first Report; it keeps the guard's warning to one.
	warned atomic.Bool
}

// Option configures an Ignitor.
type Option func(*Ignitor)

// WithHooks sets the hook registries. Defaults to a fresh hooks.New().
func WithHooks(h *hooks.Hooks) Option {
	return func(ig *Ignitor) {
		if h != nil {
			ig.hooks = h
		}
	}
}

// WithLoader sets the module loader. Defaults to the script loader.
func WithLoader(l loader.Loader) Option {
	return func(ig *Ignitor) {
		if l != nil {
			ig.loader = l
		}
	}
}

// WithLogger sets the orchestrator's own logger.
func WithLogger(l *logging.Logger) Option {
	return func(ig *Ignitor) {
		if l != nil {
			ig.logger = l
		}
	}
}

// WithMetrics records phase timings and hook outcomes into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ig *Ignitor) {
		ig.metrics = m
	}
}

// WithTracer sets the tracer used for phase spans.
func WithTracer(t trace.Tracer) Option {
	return func(ig *Ignitor) {
		if t != nil {
			ig.tracer = t
		}
	}
}

// WithCommands sets the command kernel instead of resolving AceService.
func WithCommands(k Commands) Option {
	return func(ig *Ignitor) {
		ig.commands = k
	}
}

// WithStderr sets where the failure guard writes when no logger service is
// bound.
func WithStderr(w io.Writer) Option {
	return func(ig *Ignitor) {
		if w != nil {
			ig.stderr = w
		}
	}
}

// WithSignals replaces the signals that trigger a graceful shutdown.
func WithSignals(sig ...os.Signal) Option {
	return func(ig *Ignitor) {
		ig.signals = sig
	}
}

// WithShutdownTimeout bounds the graceful close of the front-ends.
func WithShutdownTimeout(d time.Duration) Option {
	return func(ig *Ignitor) {
		if d > 0 {
			ig.shutdownTimeout = d
		}
	}
}

// New creates an Ignitor over c.
func New(c *container.Container, opts ...Option) *Ignitor {
	ig := &Ignitor{
		c:               c,
		hooks:           hooks.New(),
		loader:          loader.NewScript(),
		logger:          logging.NewNop(),
		tracer:          otel.Tracer("github.com/fyrsmithlabs/ignitor"),
		stderr:          os.Stderr,
		signals:         []os.Signal{os.Interrupt, syscall.SIGTERM},
		shutdownTimeout: DefaultShutdownTimeout,
		appFile:         manifest.DefaultFile,
		preloads:        preload.Default(),
		ready:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ig)
	}
	ig.logger = ig.logger.Named("ignitor")
	return ig
}

// AppRoot sets the application root directory.
func (ig *Ignitor) AppRoot(path string) *Ignitor {
	ig.appRoot = path
	return ig
}

// AppFile sets the manifest path relative to the app root.
func (ig *Ignitor) AppFile(path string) *Ignitor {
	ig.appFile = path
	return ig
}

// LoadCommands enables command mode: ace providers and manifest commands are
// registered during Fire.
func (ig *Ignitor) LoadCommands() *Ignitor {
	ig.loadCommands = true
	return ig
}

// PreLoad appends a required module to the preload list.
func (ig *Ignitor) PreLoad(id string) *Ignitor {
	ig.preloads.Append(id)
	return ig
}

// PreLoadAfter inserts id right after anchor, or appends it when anchor is
// not listed.
func (ig *Ignitor) PreLoadAfter(anchor, id string) *Ignitor {
	ig.preloads.InsertAfter(anchor, id)
	return ig
}

// PreLoadBefore inserts id right before anchor, or appends it when anchor is
// not listed.
func (ig *Ignitor) PreLoadBefore(anchor, id string) *Ignitor {
	ig.preloads.InsertBefore(anchor, id)
	return ig
}

// PreLoadOptional appends a module whose absence is tolerated.
func (ig *Ignitor) PreLoadOptional(id string) *Ignitor {
	ig.preloads.AppendOptional(id)
	return ig
}

// Preloads exposes the preload list.
func (ig *Ignitor) Preloads() *preload.List {
	return ig.preloads
}

// Hooks exposes the hook registries.
func (ig *Ignitor) Hooks() *hooks.Hooks {
	return ig.hooks
}

// Container returns the provider container.
func (ig *Ignitor) Container() *container.Container {
	return ig.c
}

// State reports how far the lifecycle has progressed.
func (ig *Ignitor) State() State {
	ig.mu.RLock()
	defer ig.mu.RUnlock()
	return ig.state
}

// AppNamespace returns the primary autoload namespace once configured.
func (ig *Ignitor) AppNamespace() string {
	return ig.c.AppNamespace()
}

// Manifest returns the loaded manifest, or nil before Fire.
func (ig *Ignitor) Manifest() *manifest.Manifest {
	ig.mu.RLock()
	defer ig.mu.RUnlock()
	return ig.manifest
}

// Package returns the loaded package metadata, or nil before Fire.
func (ig *Ignitor) Package() *manifest.Package {
	ig.mu.RLock()
	defer ig.mu.RUnlock()
	return ig.pkg
}

// RunID identifies the current Fire call in logs and spans.
func (ig *Ignitor) RunID() string {
	ig.mu.RLock()
	defer ig.mu.RUnlock()
	return ig.runID
}

// Ready is closed once the HTTP server is listening.
func (ig *Ignitor) Ready() <-chan struct{} {
	return ig.ready
}

func (ig *Ignitor) advance(s State) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	if s > ig.state {
		ig.state = s
	}
}

// scope is the view of the application handed to loaded modules.
type scope struct {
	ig *Ignitor
}

func (s scope) AppRoot() string              { return s.ig.appRoot }
func (s scope) Use(name string) (any, error) { return s.ig.c.Use(name) }
func (s scope) Hooks() *hooks.Hooks          { return s.ig.hooks }
func (s scope) Report(err error)             { s.ig.Report(err) }
