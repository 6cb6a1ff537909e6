package loader

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ModuleFunc is a module compiled into the binary.
type ModuleFunc func(ctx context.Context, scope Scope) (any, error)

// Table is a Loader over modules registered by id.
type Table struct {
	mu      sync.RWMutex
	modules map[string]ModuleFunc
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{modules: make(map[string]ModuleFunc)}
}

// Register binds id (e.g. "start/routes") to fn. The script suffix is ignored.
func (t *Table) Register(id string, fn ModuleFunc) *Table {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modules[ModuleID("", id)] = fn
	return t
}

// IDs returns the registered ids, sorted.
func (t *Table) IDs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.modules))
	for id := range t.modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Load runs the module registered for path.
func (t *Table) Load(ctx context.Context, path string, scope Scope) (v any, err error) {
	id := ModuleID(scope.AppRoot(), path)

	t.mu.RLock()
	fn, ok := t.modules[id]
	t.mu.RUnlock()
	if !ok {
		return nil, NotFound(path)
	}

	defer func() {
		if r := recover(); r != nil {
			v, err = nil, Failed(path, fmt.Errorf("panic: %v", r))
		}
	}()

	v, err = fn(ctx, scope)
	if err != nil {
		return nil, Failed(path, err)
	}
	return v, nil
}
