package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
)

type testScope struct {
	root     string
	bindings map[string]any
	hooks    *hooks.Hooks

	mu       sync.Mutex
	reported []error
}

func newTestScope(t *testing.T) *testScope {
	t.Helper()
	return &testScope{
		root:     t.TempDir(),
		bindings: make(map[string]any),
		hooks:    hooks.New(),
	}
}

func (s *testScope) AppRoot() string     { return s.root }
func (s *testScope) Hooks() *hooks.Hooks { return s.hooks }

func (s *testScope) Report(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reported = append(s.reported, err)
}

func (s *testScope) reports() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.reported))
	for i, err := range s.reported {
		out[i] = err.Error()
	}
	return out
}

func (s *testScope) Use(name string) (any, error) {
	v, ok := s.bindings[name]
	if !ok {
		return nil, fmt.Errorf("%s is not bound", name)
	}
	return v, nil
}

func (s *testScope) write(t *testing.T, rel, src string) string {
	t.Helper()
	p := filepath.Join(s.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func TestErrorKinds(t *testing.T) {
	nf := NotFound("start/hooks")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.False(t, errors.Is(nf, ErrLoad))
	assert.True(t, IsNotFound(nf))
	assert.Contains(t, nf.Error(), "start/hooks")

	cause := errors.New("boom")
	le := Failed("start/routes", cause)
	assert.True(t, errors.Is(le, ErrLoad))
	assert.True(t, errors.Is(le, cause))
	assert.False(t, IsNotFound(le))

	wrapped := fmt.Errorf("preload: %w", nf)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestIsNotFound_LoadCausedByMissingDependency(t *testing.T) {
	err := Failed("start/routes", NotFound("app/missing"))
	assert.False(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrLoad))
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not found", KindNotFound.String())
	assert.Equal(t, "load error", KindLoad.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}

func TestModuleID(t *testing.T) {
	tests := []struct {
		name string
		root string
		path string
		want string
	}{
		{"relative", "/srv/app", "start/routes", "start/routes"},
		{"relative with suffix", "/srv/app", "start/routes.js", "start/routes"},
		{"absolute under root", "/srv/app", "/srv/app/start/kernel.js", "start/kernel"},
		{"absolute outside root", "/srv/app", "/opt/other/mod.js", "/opt/other/mod"},
		{"no root", "", "/srv/app/start/x", "/srv/app/start/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleID(tt.root, tt.path))
		})
	}
}

func TestTable(t *testing.T) {
	scope := newTestScope(t)
	table := NewTable().
		Register("start/routes", func(ctx context.Context, s Scope) (any, error) {
			return "routes", nil
		}).
		Register("start/kernel.js", func(ctx context.Context, s Scope) (any, error) {
			return nil, errors.New("kernel broken")
		}).
		Register("start/panics", func(ctx context.Context, s Scope) (any, error) {
			panic("nope")
		})

	assert.Equal(t, []string{"start/kernel", "start/panics", "start/routes"}, table.IDs())

	t.Run("absolute path under root", func(t *testing.T) {
		v, err := table.Load(context.Background(), filepath.Join(scope.root, "start/routes"), scope)
		require.NoError(t, err)
		assert.Equal(t, "routes", v)
	})

	t.Run("missing is not found", func(t *testing.T) {
		_, err := table.Load(context.Background(), "start/events", scope)
		assert.True(t, IsNotFound(err))
	})

	t.Run("module error is load error", func(t *testing.T) {
		_, err := table.Load(context.Background(), "start/kernel", scope)
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
		assert.ErrorIs(t, err, ErrLoad)
		assert.Contains(t, err.Error(), "kernel broken")
	})

	t.Run("panic is load error", func(t *testing.T) {
		_, err := table.Load(context.Background(), "start/panics", scope)
		assert.ErrorIs(t, err, ErrLoad)
	})

	t.Run("module reporting missing dependency is load error", func(t *testing.T) {
		tbl := NewTable().Register("start/x", func(ctx context.Context, s Scope) (any, error) {
			return nil, NotFound("app/dep")
		})
		_, err := tbl.Load(context.Background(), "start/x", scope)
		assert.False(t, IsNotFound(err))
	})
}

func TestChain(t *testing.T) {
	scope := newTestScope(t)
	first := NewTable().Register("a", func(context.Context, Scope) (any, error) { return "first", nil })
	second := NewTable().
		Register("a", func(context.Context, Scope) (any, error) { return "second", nil }).
		Register("b", func(context.Context, Scope) (any, error) { return "b", nil }).
		Register("c", func(context.Context, Scope) (any, error) { return nil, errors.New("bad") })
	third := NewTable().Register("c", func(context.Context, Scope) (any, error) { return "unreachable", nil })

	l := Chain(first, second, third)

	v, err := l.Load(context.Background(), "a", scope)
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = l.Load(context.Background(), "b", scope)
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = l.Load(context.Background(), "c", scope)
	assert.ErrorIs(t, err, ErrLoad)

	_, err = l.Load(context.Background(), "d", scope)
	assert.True(t, IsNotFound(err))

	_, err = Chain().Load(context.Background(), "a", scope)
	assert.True(t, IsNotFound(err))
}
