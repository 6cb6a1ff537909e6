package loader

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fyrsmithlabs/ignitor/pkg/hooks"
)

// Scope is what a module sees of the running application. Report receives
// asynchronous failures nobody observed, such as a rejected promise with no
// handler.
type Scope interface {
	AppRoot() string
	Use(name string) (any, error)
	Hooks() *hooks.Hooks
	Report(err error)
}

// Loader evaluates the module at path and returns its exported value.
type Loader interface {
	Load(ctx context.Context, path string, scope Scope) (any, error)
}

// ModuleID converts path into an id relative to root with the script suffix
// trimmed and forward slashes, e.g. "/srv/app/start/routes.js" -> "start/routes".
// Paths outside root are returned cleaned but otherwise untouched.
func ModuleID(root, path string) string {
	id := filepath.Clean(path)
	if root != "" && filepath.IsAbs(id) {
		if rel, err := filepath.Rel(root, id); err == nil && !strings.HasPrefix(rel, "..") {
			id = rel
		}
	}
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, ScriptSuffix)
}

type chain []Loader

// Chain tries each loader in order. The first result that is not NotFound is
// returned; NotFound is reported only when every loader reports it.
func Chain(loaders ...Loader) Loader {
	return chain(loaders)
}

func (c chain) Load(ctx context.Context, path string, scope Scope) (any, error) {
	for _, l := range c {
		v, err := l.Load(ctx, path, scope)
		if err != nil && IsNotFound(err) {
			continue
		}
		return v, err
	}
	return nil, NotFound(path)
}
