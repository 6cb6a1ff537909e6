package ignitor

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ignitor/pkg/container"
	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
	"github.com/fyrsmithlabs/ignitor/pkg/loader"
)

const baseManifest = "providers:\n  - Test/App\n"

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakeProvider struct {
	name     string
	rec      *recorder
	register func(c *container.Container) error
	boot     func(ctx context.Context, c *container.Container) error
}

func (p *fakeProvider) Register(c *container.Container) error {
	p.rec.add("register:" + p.name)
	if p.register != nil {
		return p.register(c)
	}
	return nil
}

func (p *fakeProvider) Boot(ctx context.Context, c *container.Container) error {
	p.rec.add("boot:" + p.name)
	if p.boot != nil {
		return p.boot(ctx, c)
	}
	return nil
}

type fakeExceptions struct {
	refs map[string]string
}

func (e *fakeExceptions) Bind(name, ref string) {
	e.refs[name] = ref
}

type fixture struct {
	t     *testing.T
	root  string
	c     *container.Container
	table *loader.Table
	rec   *recorder
	exc   *fakeExceptions
	hooks *hooks.Hooks
}

func newFixture(t *testing.T, manifest string) *fixture {
	t.Helper()
	f := &fixture{
		t:     t,
		root:  t.TempDir(),
		c:     container.New(),
		table: loader.NewTable(),
		rec:   &recorder{},
		exc:   &fakeExceptions{refs: map[string]string{}},
		hooks: hooks.New(),
	}
	f.write("start/app.yaml", manifest)
	f.provider("Test/App", func(c *container.Container) error {
		c.Instance(ExceptionService, f.exc)
		return nil
	}, nil)
	f.table.Register("start/routes", f.module("routes"))
	return f
}

func (f *fixture) write(rel, content string) {
	f.t.Helper()
	p := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(f.t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(f.t, os.WriteFile(p, []byte(content), 0o600))
}

func (f *fixture) provider(name string, register func(*container.Container) error, boot func(context.Context, *container.Container) error) {
	f.c.RegisterProviderFactory(name, func() container.Provider {
		return &fakeProvider{name: name, rec: f.rec, register: register, boot: boot}
	})
}

func (f *fixture) module(name string) loader.ModuleFunc {
	return func(context.Context, loader.Scope) (any, error) {
		f.rec.add("load:" + name)
		return name, nil
	}
}

func (f *fixture) ignitor(opts ...Option) *Ignitor {
	return New(f.c, append([]Option{WithLoader(f.table), WithHooks(f.hooks)}, opts...)...).AppRoot(f.root)
}

// trace registers recording callbacks for every event in both timings.
func (f *fixture) trace(h *hooks.Hooks) {
	for _, event := range hooks.Events() {
		name := string(event)
		h.Before.Register(event, func() error { f.rec.add("before:" + name); return nil })
		h.After.Register(event, func() error { f.rec.add("after:" + name); return nil })
	}
}

type fakeServer struct {
	rec       *recorder
	listenErr error
	closeErr  error
	instance  *http.Server
	host      string
	port      string
	onError   func(error)
}

func (s *fakeServer) Handler() http.Handler        { return http.NotFoundHandler() }
func (s *fakeServer) SetInstance(srv *http.Server) { s.instance = srv }
func (s *fakeServer) OnError(fn func(error))       { s.onError = fn }

func (s *fakeServer) Listen(host, port string, onReady func()) error {
	if s.listenErr != nil {
		return s.listenErr
	}
	s.host, s.port = host, port
	s.rec.add("listen")
	onReady()
	return nil
}

func (s *fakeServer) Close(context.Context) error {
	s.rec.add("close:server")
	return s.closeErr
}

type fakeSocket struct {
	rec     *recorder
	started bool
}

func (s *fakeSocket) Started() bool { return s.started }

func (s *fakeSocket) Close(context.Context) error {
	s.rec.add("close:socket")
	return nil
}

type fakeEnv map[string]string

func (e fakeEnv) Get(key string, def ...string) string {
	if v, ok := e[key]; ok {
		return v
	}
	if len(def) > 0 {
		return def[0]
	}
	return ""
}

type fakeKernel struct {
	rec     *recorder
	added   []string
	version string
	args    []string
	err     error
}

func (k *fakeKernel) AddCommand(ref string) error {
	k.added = append(k.added, ref)
	return nil
}

func (k *fakeKernel) Invoke(_ context.Context, version string, args []string) error {
	k.rec.add("invoke")
	k.version, k.args = version, args
	return k.err
}
