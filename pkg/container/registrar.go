package container

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Provider is a pluggable unit with a synchronous register step and an
// asynchronous boot step.
type Provider interface {
	Register(c *Container) error
	Boot(ctx context.Context, c *Container) error
}

// BootError reports a provider whose boot failed.
type BootError struct {
	Provider string
	Err      error
}

func (e *BootError) Error() string {
	return fmt.Sprintf("boot provider %s: %v", e.Provider, e.Err)
}

func (e *BootError) Unwrap() error {
	return e.Err
}

type registered struct {
	name     string
	provider Provider
	booted   bool
}

// RegisterProviderFactory makes a provider available under name.
func (c *Container) RegisterProviderFactory(name string, f func() Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = f
}

// RegisterProviders instantiates each named provider and calls Register on it,
// in order. Unknown names fail before any provider registers.
func (c *Container) RegisterProviders(names []string) error {
	c.mu.RLock()
	batch := make([]*registered, 0, len(names))
	for _, name := range names {
		f, ok := c.factories[name]
		if !ok {
			c.mu.RUnlock()
			return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
		}
		batch = append(batch, &registered{name: name, provider: f()})
	}
	c.mu.RUnlock()

	for _, r := range batch {
		if err := r.provider.Register(c); err != nil {
			return fmt.Errorf("register provider %s: %w", r.name, err)
		}
		c.mu.Lock()
		c.providers = append(c.providers, r)
		c.mu.Unlock()
	}
	return nil
}

// Boot boots every registered provider that has not booted yet. Providers
// boot concurrently; Boot returns after all of them finish, reporting the
// first failure as a *BootError.
func (c *Container) Boot(ctx context.Context) error {
	c.mu.RLock()
	pending := make([]*registered, 0, len(c.providers))
	for _, r := range c.providers {
		if !r.booted {
			pending = append(pending, r)
		}
	}
	c.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, r := range pending {
		g.Go(func() error {
			if err := r.provider.Boot(gctx, c); err != nil {
				return &BootError{Provider: r.name, Err: err}
			}
			c.mu.Lock()
			r.booted = true
			c.mu.Unlock()
			return nil
		})
	}
	return g.Wait()
}

// ProviderInfo describes a registered provider.
type ProviderInfo struct {
	Name     string
	Provider Provider
	Booted   bool
}

// Providers returns the registered providers in registration order.
func (c *Container) Providers() []ProviderInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ProviderInfo, len(c.providers))
	for i, r := range c.providers {
		out[i] = ProviderInfo{Name: r.name, Provider: r.provider, Booted: r.booted}
	}
	return out
}
