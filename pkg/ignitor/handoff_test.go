package ignitor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ignitor/pkg/container"
)

type httpFixture struct {
	*fixture
	srv  *fakeServer
	sock *fakeSocket
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()
	f := newFixture(t, "providers: [Test/App, Test/Http]\n")
	h := &httpFixture{
		fixture: f,
		srv:     &fakeServer{rec: f.rec},
		sock:    &fakeSocket{rec: f.rec, started: true},
	}
	f.provider("Test/Http", func(c *container.Container) error {
		c.Instance(ServerService, h.srv)
		c.Instance(SocketService, h.sock)
		c.Instance(EnvService, fakeEnv{"HOST": "127.0.0.1", "PORT": "3333"})
		return nil
	}, nil)
	f.trace(f.hooks)
	return h
}

func serve(ctx context.Context, t *testing.T, ig *Ignitor, factory ServerFactory) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- ig.FireHTTPServer(ctx, factory) }()
	return done
}

func wait(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("FireHTTPServer did not return")
		return nil
	}
}

func TestFireHTTPServer(t *testing.T) {
	h := newHTTPFixture(t)
	ig := h.ignitor(WithSignals())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := serve(ctx, t, ig, nil)

	select {
	case <-ig.Ready():
	case err := <-done:
		t.Fatalf("returned before ready: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server never became ready")
	}
	assert.Equal(t, Running, ig.State())

	cancel()
	require.NoError(t, wait(t, done))

	assert.Equal(t, "127.0.0.1", h.srv.host)
	assert.Equal(t, "3333", h.srv.port)
	assert.Nil(t, h.srv.instance)
	assert.NotNil(t, h.srv.onError, "serve errors are routed to the guard")
	assert.Equal(t, Stopped, ig.State())

	events := h.rec.all()
	i := index(events, "listen")
	require.Positive(t, i)
	assert.Equal(t, []string{
		"after:preloading",
		"before:httpServer",
		"listen",
		"after:httpServer",
		"close:socket",
		"close:server",
	}, events[i-2:])
}

func TestFireHTTPServer_CustomInstance(t *testing.T) {
	h := newHTTPFixture(t)
	ig := h.ignitor(WithSignals())

	var got http.Handler
	custom := &http.Server{ReadHeaderTimeout: time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := serve(ctx, t, ig, func(handler http.Handler) *http.Server {
		got = handler
		custom.Handler = handler
		return custom
	})
	<-ig.Ready()
	cancel()
	require.NoError(t, wait(t, done))

	assert.NotNil(t, got)
	assert.Same(t, custom, h.srv.instance)
}

func TestFireHTTPServer_SocketNotStarted(t *testing.T) {
	h := newHTTPFixture(t)
	h.sock.started = false
	ig := h.ignitor(WithSignals())

	ctx, cancel := context.WithCancel(context.Background())
	done := serve(ctx, t, ig, nil)
	<-ig.Ready()
	cancel()
	require.NoError(t, wait(t, done))

	assert.NotContains(t, h.rec.all(), "close:socket")
	assert.Contains(t, h.rec.all(), "close:server")
}

func TestFireHTTPServer_Failures(t *testing.T) {
	t.Run("listen error", func(t *testing.T) {
		h := newHTTPFixture(t)
		h.srv.listenErr = errors.New("address in use")
		ig := h.ignitor(WithSignals())

		err := ig.FireHTTPServer(context.Background(), nil)
		require.ErrorIs(t, err, h.srv.listenErr)
		assert.NotContains(t, h.rec.all(), "after:httpServer")
		assert.Equal(t, Preloaded, ig.State())
	})

	t.Run("after hook error shuts down", func(t *testing.T) {
		h := newHTTPFixture(t)
		boom := errors.New("warmup failed")
		h.hooks.After.HTTPServer(func() error { return boom })
		ig := h.ignitor(WithSignals())

		err := ig.FireHTTPServer(context.Background(), nil)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, h.rec.all(), "close:server")
		assert.Equal(t, Stopped, ig.State())
	})

	t.Run("before hook error never listens", func(t *testing.T) {
		h := newHTTPFixture(t)
		boom := errors.New("not yet")
		h.hooks.Before.HTTPServer(func() error { return boom })
		ig := h.ignitor(WithSignals())

		require.ErrorIs(t, ig.FireHTTPServer(context.Background(), nil), boom)
		assert.NotContains(t, h.rec.all(), "listen")
	})

	t.Run("boot failure", func(t *testing.T) {
		f := newFixture(t, "providers: [Nope]\n")
		ig := f.ignitor(WithSignals())

		require.ErrorIs(t, ig.FireHTTPServer(context.Background(), nil), container.ErrProviderNotFound)
	})

	t.Run("server not bound", func(t *testing.T) {
		f := newFixture(t, baseManifest)
		ig := f.ignitor(WithSignals())

		require.ErrorIs(t, ig.FireHTTPServer(context.Background(), nil), container.ErrNotBound)
	})

	t.Run("close errors are returned", func(t *testing.T) {
		h := newHTTPFixture(t)
		h.srv.closeErr = errors.New("stuck connections")
		ig := h.ignitor(WithSignals())

		ctx, cancel := context.WithCancel(context.Background())
		done := serve(ctx, t, ig, nil)
		<-ig.Ready()
		cancel()
		require.ErrorIs(t, wait(t, done), h.srv.closeErr)
		assert.Equal(t, Stopped, ig.State())
	})
}
