package container

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors for container operations.
var (
	ErrNotBound         = errors.New("binding not found")
	ErrAliasCycle       = errors.New("alias cycle detected")
	ErrProviderNotFound = errors.New("provider not found")
)

// maxAliasDepth bounds alias resolution.
const maxAliasDepth = 32

// Factory builds the value behind a binding.
type Factory func(c *Container) (any, error)

type binding struct {
	factory   Factory
	singleton bool

	once  sync.Once
	value any
	err   error
}

func (b *binding) resolve(c *Container) (any, error) {
	if !b.singleton {
		return b.factory(c)
	}
	b.once.Do(func() {
		b.value, b.err = b.factory(c)
	})
	return b.value, b.err
}

// Container holds bindings, aliases, autoloads and providers.
type Container struct {
	mu sync.RWMutex

	bindings map[string]*binding
	fakes    map[string]*binding
	aliases  map[string]string

	autoloads    map[string]string
	appNamespace string
	directories  map[string]string

	factories map[string]func() Provider
	providers []*registered
}

// New creates an empty container.
func New() *Container {
	c := &Container{}
	c.reset()
	return c
}

func (c *Container) reset() {
	c.bindings = make(map[string]*binding)
	c.fakes = make(map[string]*binding)
	c.aliases = make(map[string]string)
	c.autoloads = make(map[string]string)
	c.appNamespace = ""
	c.directories = make(map[string]string)
	c.factories = make(map[string]func() Provider)
	c.providers = nil
}

// Reset drops every binding, alias, autoload, provider and provider factory.
func (c *Container) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Bind registers a factory that runs on every Use.
func (c *Container) Bind(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = &binding{factory: f}
}

// Singleton registers a factory that runs once, on first Use.
func (c *Container) Singleton(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings[name] = &binding{factory: f, singleton: true}
}

// Instance binds an already built value.
func (c *Container) Instance(name string, v any) {
	c.Singleton(name, func(*Container) (any, error) { return v, nil })
}

// Fake shadows name with f until Restore is called.
func (c *Container) Fake(name string, f Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fakes[name] = &binding{factory: f, singleton: true}
}

// Restore removes all fakes.
func (c *Container) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fakes = make(map[string]*binding)
}

// Alias makes alias resolve to target. A later call for the same alias wins.
func (c *Container) Alias(alias, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[alias] = target
}

// Aliases returns a copy of the alias table (alias -> target).
func (c *Container) Aliases() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.aliases))
	for k, v := range c.aliases {
		out[k] = v
	}
	return out
}

// HasBinding reports whether name, after alias resolution, is bound.
func (c *Container) HasBinding(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, _, err := c.lookup(name)
	return err == nil
}

// Use resolves name, following aliases, and returns its value.
// Fakes take precedence over real bindings.
func (c *Container) Use(name string) (any, error) {
	c.mu.RLock()
	b, resolved, err := c.lookup(name)
	c.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	// Factories run unlocked so they can resolve their own dependencies.
	v, err := b.resolve(c)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", resolved, err)
	}
	return v, nil
}

// lookup must be called with c.mu held.
func (c *Container) lookup(name string) (*binding, string, error) {
	current := name
	for depth := 0; depth <= maxAliasDepth; depth++ {
		if b, ok := c.fakes[current]; ok {
			return b, current, nil
		}
		if b, ok := c.bindings[current]; ok {
			return b, current, nil
		}
		target, ok := c.aliases[current]
		if !ok {
			return nil, current, fmt.Errorf("%w: %s", ErrNotBound, name)
		}
		current = target
	}
	return nil, current, fmt.Errorf("%w: %s", ErrAliasCycle, name)
}

// Make resolves name and asserts it to T.
func Make[T any](c *Container, name string) (T, error) {
	var zero T
	v, err := c.Use(name)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("binding %s is %T, not %T", name, v, zero)
	}
	return t, nil
}

// Autoload registers dir as the source location of namespace.
func (c *Container) Autoload(dir, namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoloads[namespace] = dir
}

// Autoloads returns a copy of the namespace -> directory table.
func (c *Container) Autoloads() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.autoloads))
	for k, v := range c.autoloads {
		out[k] = v
	}
	return out
}

// SetAppNamespace records the primary application namespace.
func (c *Container) SetAppNamespace(namespace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appNamespace = namespace
}

// AppNamespace returns the primary application namespace.
func (c *Container) AppNamespace() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appNamespace
}

// BindDirectories merges role -> sub-directory entries.
func (c *Container) BindDirectories(dirs map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for role, dir := range dirs {
		c.directories[role] = dir
	}
}

// Directories returns a copy of the directory roles.
func (c *Container) Directories() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]string, len(c.directories))
	for k, v := range c.directories {
		out[k] = v
	}
	return out
}

// Bindings returns the sorted names of every real binding.
func (c *Container) Bindings() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.bindings))
	for name := range c.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
