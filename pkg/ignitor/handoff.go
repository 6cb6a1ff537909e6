package ignitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
)

// NoVersion is passed to the command kernel when the package declares no
// framework version.
const NoVersion = "NA"

// Boot modes recorded in metrics.
const (
	modeHTTP    = "http"
	modeCommand = "command"
)

// FireHTTPServer boots the application and starts the HTTP server on
// HOST:PORT from the env service. When factory is non-nil its server replaces
// the default instance. It blocks until ctx is done or a shutdown signal
// arrives, then closes the socket service and the server.
func (ig *Ignitor) FireHTTPServer(ctx context.Context, factory ServerFactory) (err error) {
	defer func() { ig.metrics.Boot(modeHTTP, err) }()

	if err := ig.Fire(ctx); err != nil {
		return err
	}
	if err := ig.dispatch(ctx, "before", hooks.HTTPServer); err != nil {
		return err
	}

	srv, err := container.Make[HTTPServer](ig.c, ServerService)
	if err != nil {
		return err
	}
	env, err := container.Make[envReader](ig.c, EnvService)
	if err != nil {
		return err
	}

	if factory != nil {
		srv.SetInstance(factory(srv.Handler()))
	}
	srv.OnError(ig.Report)

	hookErr := make(chan error, 1)
	host, port := env.Get("HOST"), env.Get("PORT")
	err = srv.Listen(host, port, func() {
		ig.advance(Running)
		ig.readyOnce.Do(func() { close(ig.ready) })
		ig.logger.Info(ctx, "serving http", zap.String("host", host), zap.String("port", port))
		hookErr <- ig.dispatch(ctx, "after", hooks.HTTPServer)
	})
	if err != nil {
		return err
	}

	sigCtx, stop := ctx, context.CancelFunc(func() {})
	if len(ig.signals) > 0 {
		sigCtx, stop = signal.NotifyContext(ctx, ig.signals...)
	}
	defer stop()

	select {
	case err := <-hookErr:
		if err != nil {
			return errors.Join(err, ig.shutdown(ctx, srv))
		}
	case <-sigCtx.Done():
		return ig.shutdown(ctx, srv)
	}

	<-sigCtx.Done()
	return ig.shutdown(ctx, srv)
}

// shutdown closes the socket service, when it was started, before the
// server.
func (ig *Ignitor) shutdown(ctx context.Context, srv HTTPServer) error {
	ig.advance(ShuttingDown)
	ig.logger.Info(ctx, "shutting down")

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ig.shutdownTimeout)
	defer cancel()

	var errs []error
	if ig.c.HasBinding(SocketService) {
		if sock, err := container.Make[closer](ig.c, SocketService); err != nil {
			errs = append(errs, err)
		} else if sock.Started() {
			if err := sock.Close(ctx); err != nil {
				errs = append(errs, fmt.Errorf("close socket: %w", err))
			}
		}
	}
	if err := srv.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close server: %w", err))
	}

	ig.advance(Stopped)
	ig.logger.Info(ctx, "stopped")
	return errors.Join(errs...)
}

// FireCommand boots the application in command mode and invokes the command
// kernel with args. A first argument of "test" sets APP_ENV=testing before
// anything else loads.
func (ig *Ignitor) FireCommand(ctx context.Context, args []string) (err error) {
	defer func() { ig.metrics.Boot(modeCommand, err) }()

	if len(args) > 0 && args[0] == "test" {
		if err := os.Setenv("APP_ENV", "testing"); err != nil {
			return err
		}
	}

	ig.LoadCommands()
	if err := ig.Fire(ctx); err != nil {
		return err
	}

	kernel, err := ig.commandKernel()
	if err != nil {
		return err
	}
	version := ig.Package().FrameworkVersion
	if version == "" {
		version = NoVersion
	}

	ig.advance(Running)
	defer ig.advance(Stopped)
	return ig.around(ctx, hooks.AceCommand, func() error {
		return kernel.Invoke(ctx, version, args)
	})
}
