package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ignitor/internal/ace"
	"github.com/fyrsmithlabs/ignitor/internal/env"
	"github.com/fyrsmithlabs/ignitor/internal/exception"
	"github.com/fyrsmithlabs/ignitor/internal/logging"
	"github.com/fyrsmithlabs/ignitor/internal/server"
	"github.com/fyrsmithlabs/ignitor/internal/socket"
	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/helpers"
)

func newContainer(t *testing.T) (*container.Container, string) {
	t.Helper()
	root := t.TempDir()
	c := container.New()
	c.Instance(HelpersService, helpers.New(root, nil, false))
	Register(c, Deps{Logger: logging.NewTestLogger().Logger, Registry: prometheus.NewRegistry()})
	return c, root
}

func TestAppProvider(t *testing.T) {
	c, root := newContainer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("IGNITOR_PROVIDER_TEST=1\n"), 0o600))

	require.NoError(t, c.RegisterProviders([]string{AppProvider}))
	require.NoError(t, c.Boot(context.Background()))

	e, err := container.Make[*env.Env](c, EnvService)
	require.NoError(t, err)
	assert.Equal(t, "1", e.Get("IGNITOR_PROVIDER_TEST"))

	_, err = container.Make[*logging.Logger](c, LoggerService)
	require.NoError(t, err)
	_, err = container.Make[*prometheus.Registry](c, MetricsService)
	require.NoError(t, err)

	srv, err := container.Make[*server.Server](c, ServerService)
	require.NoError(t, err)
	again, _ := container.Make[*server.Server](c, ServerService)
	assert.Same(t, srv, again)
}

func TestAppProvider_BootFailsOnBrokenEnv(t *testing.T) {
	c, root := newContainer(t)
	require.NoError(t, os.Mkdir(filepath.Join(root, ".env"), 0o755))

	require.NoError(t, c.RegisterProviders([]string{AppProvider}))
	err := c.Boot(context.Background())

	var be *container.BootError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, AppProvider, be.Provider)
}

func TestAppProvider_ErrorHandlerUsesExceptionBindings(t *testing.T) {
	c, _ := newContainer(t)
	require.NoError(t, c.RegisterProviders([]string{AppProvider}))

	exc, err := container.Make[*exception.Exception](c, ExceptionService)
	require.NoError(t, err)
	exc.Bind(exception.Wildcard, "App/Exceptions/Handler")
	c.Instance("App/Exceptions/Handler", exception.HandlerFunc(func(err error, ctx echo.Context) error {
		return ctx.String(http.StatusTeapot, "handled")
	}))

	srv, err := container.Make[*server.Server](c, ServerService)
	require.NoError(t, err)
	srv.Echo().GET("/boom", func(echo.Context) error { return errors.New("boom") })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "handled", rec.Body.String())
}

func TestSocketProvider(t *testing.T) {
	c, _ := newContainer(t)
	require.NoError(t, c.RegisterProviders([]string{AppProvider, SocketProvider}))
	require.NoError(t, c.Boot(context.Background()))

	hub, err := container.Make[*socket.Hub](c, SocketService)
	require.NoError(t, err)
	assert.True(t, hub.Started())

	srv, _ := container.Make[*server.Server](c, ServerService)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, socket.DefaultPath, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "plain GET is not a websocket upgrade")
}

func TestSocketProvider_WithoutServer(t *testing.T) {
	c, _ := newContainer(t)
	require.NoError(t, c.RegisterProviders([]string{SocketProvider}))
	assert.Error(t, c.Boot(context.Background()))
}

func TestAceProvider(t *testing.T) {
	c, _ := newContainer(t)
	require.NoError(t, c.RegisterProviders([]string{AceProvider}))
	require.NoError(t, c.Boot(context.Background()))

	k, err := container.Make[*ace.Kernel](c, AceService)
	require.NoError(t, err)
	assert.Empty(t, k.Commands())
}
