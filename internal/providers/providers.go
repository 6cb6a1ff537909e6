// Package providers contains the framework's built-in providers. They bind
// the services the orchestrator and applications resolve by name.
package providers

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/internal/ace"
	"github.com/fyrsmithlabs/ignitor/internal/env"
	"github.com/fyrsmithlabs/ignitor/internal/exception"
	"github.com/fyrsmithlabs/ignitor/internal/logging"
	"github.com/fyrsmithlabs/ignitor/internal/server"
	"github.com/fyrsmithlabs/ignitor/internal/socket"
	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/helpers"
	"github.com/fyrsmithlabs/ignitor/pkg/ignitor"
)

// Service binding names, shared with the orchestrator.
const (
	HelpersService   = ignitor.HelpersService
	EnvService       = ignitor.EnvService
	LoggerService    = ignitor.LoggerService
	ExceptionService = ignitor.ExceptionService
	ServerService    = ignitor.ServerService
	SocketService    = ignitor.SocketService
	MetricsService   = ignitor.MetricsService
	AceService       = ignitor.AceService
)

// Provider names accepted in the manifest.
const (
	AppProvider    = "Ignitor/Providers/AppProvider"
	SocketProvider = "Ignitor/Providers/SocketProvider"
	AceProvider    = "Ignitor/Providers/AceProvider"
)

// Deps are shared by the built-in providers.
type Deps struct {
	Logger      *logging.Logger
	Registry    *prometheus.Registry
	ServiceName string
	EnvFile     string
	SocketPath  string
}

// Register makes the built-in providers available to RegisterProviders.
func Register(c *container.Container, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = logging.NewNop()
	}
	if deps.Registry == nil {
		deps.Registry = prometheus.NewRegistry()
	}
	if deps.ServiceName == "" {
		deps.ServiceName = "ignitor"
	}

	c.RegisterProviderFactory(AppProvider, func() container.Provider { return &App{deps: deps} })
	c.RegisterProviderFactory(SocketProvider, func() container.Provider { return &Socket{deps: deps} })
	c.RegisterProviderFactory(AceProvider, func() container.Provider { return &Ace{} })
}

// App binds env, logger, exception, metrics and server services.
type App struct {
	deps Deps
}

// Register implements container.Provider.
func (p *App) Register(c *container.Container) error {
	c.Singleton(EnvService, func(c *container.Container) (any, error) {
		h, err := container.Make[*helpers.Helpers](c, HelpersService)
		if err != nil {
			return nil, fmt.Errorf("env needs helpers: %w", err)
		}
		return env.Load(h.AppRoot(), p.deps.EnvFile)
	})

	c.Instance(LoggerService, p.deps.Logger)
	c.Instance(MetricsService, p.deps.Registry)

	c.Singleton(ExceptionService, func(*container.Container) (any, error) {
		return exception.New(), nil
	})
	c.Instance(exception.DefaultHandler, &exception.Default{Logger: p.deps.Logger.Underlying()})

	c.Singleton(ServerService, func(c *container.Container) (any, error) {
		exc, err := container.Make[*exception.Exception](c, ExceptionService)
		if err != nil {
			return nil, err
		}
		logger := p.deps.Logger.Named("server").Underlying()
		srv := server.New(
			server.WithLogger(logger),
			server.WithGatherer(p.deps.Registry),
			server.WithServiceName(p.deps.ServiceName),
		)
		e := srv.Echo()
		e.HTTPErrorHandler = exc.ErrorHandler(c.Use, e.DefaultHTTPErrorHandler, logger)
		return srv, nil
	})
	return nil
}

// Boot resolves the env eagerly so a broken .env file fails the boot.
func (p *App) Boot(ctx context.Context, c *container.Container) error {
	e, err := container.Make[*env.Env](c, EnvService)
	if err != nil {
		return err
	}
	logging.FromContext(ctx).Debug(ctx, "env loaded", zap.String("path", e.Path()))
	return nil
}

// Socket binds the websocket hub and mounts it on the server.
type Socket struct {
	deps Deps
}

// Register implements container.Provider.
func (p *Socket) Register(c *container.Container) error {
	c.Singleton(SocketService, func(*container.Container) (any, error) {
		return socket.New(p.deps.Logger.Named("socket").Underlying()), nil
	})
	return nil
}

// Boot mounts the hub on the HTTP server.
func (p *Socket) Boot(ctx context.Context, c *container.Container) error {
	hub, err := container.Make[*socket.Hub](c, SocketService)
	if err != nil {
		return err
	}
	srv, err := container.Make[*server.Server](c, ServerService)
	if err != nil {
		return fmt.Errorf("socket needs the http server: %w", err)
	}
	hub.Mount(srv.Echo(), p.deps.SocketPath)
	return nil
}

// Ace binds the command kernel.
type Ace struct{}

// Register implements container.Provider.
func (p *Ace) Register(c *container.Container) error {
	c.Singleton(AceService, func(c *container.Container) (any, error) {
		return ace.New(c), nil
	})
	return nil
}

// Boot implements container.Provider.
func (p *Ace) Boot(context.Context, *container.Container) error {
	return nil
}
