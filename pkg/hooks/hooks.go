package hooks

import (
	"fmt"
	"sync"
)

// Event names a phase boundary that hooks can attach to.
type Event string

const (
	// ProvidersRegistered brackets provider registration.
	ProvidersRegistered Event = "providersRegistered"

	// ProvidersBooted brackets the asynchronous provider boot.
	ProvidersBooted Event = "providersBooted"

	// Preloading brackets execution of the preload list.
	Preloading Event = "preloading"

	// HTTPServer brackets the HTTP listen call.
	HTTPServer Event = "httpServer"

	// RegisterCommands brackets command registration in command mode.
	RegisterCommands Event = "registerCommands"

	// AceCommand brackets command invocation in command mode.
	AceCommand Event = "aceCommand"
)

// Events returns every event the orchestrator dispatches.
func Events() []Event {
	return []Event{ProvidersRegistered, ProvidersBooted, Preloading, HTTPServer, RegisterCommands, AceCommand}
}

// Callback is a zero-argument hook body. A non-nil error aborts dispatch.
type Callback func() error

// Registry maps events to ordered callbacks for one timing bucket.
type Registry struct {
	mu     sync.Mutex
	timing string
	hooks  map[Event][]Callback
}

// NewRegistry creates an empty registry. timing is only used in error messages.
func NewRegistry(timing string) *Registry {
	r := &Registry{timing: timing}
	r.instantiate()
	return r
}

func (r *Registry) instantiate() {
	r.hooks = make(map[Event][]Callback)
}

// Register appends cb to the callbacks for event.
func (r *Registry) Register(event Event, cb Callback) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[event] = append(r.hooks[event], cb)
	return r
}

// ProvidersRegistered registers cb for the ProvidersRegistered event.
func (r *Registry) ProvidersRegistered(cb Callback) *Registry {
	return r.Register(ProvidersRegistered, cb)
}

// ProvidersBooted registers cb for the ProvidersBooted event.
func (r *Registry) ProvidersBooted(cb Callback) *Registry {
	return r.Register(ProvidersBooted, cb)
}

// Preloading registers cb for the Preloading event.
func (r *Registry) Preloading(cb Callback) *Registry {
	return r.Register(Preloading, cb)
}

// HTTPServer registers cb for the HTTPServer event.
func (r *Registry) HTTPServer(cb Callback) *Registry {
	return r.Register(HTTPServer, cb)
}

// RegisterCommands registers cb for the RegisterCommands event.
func (r *Registry) RegisterCommands(cb Callback) *Registry {
	return r.Register(RegisterCommands, cb)
}

// AceCommand registers cb for the AceCommand event.
func (r *Registry) AceCommand(cb Callback) *Registry {
	return r.Register(AceCommand, cb)
}

// Get returns a copy of the callbacks registered for event.
// The result is never nil.
func (r *Registry) Get(event Event) []Callback {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Callback, len(r.hooks[event]))
	copy(out, r.hooks[event])
	return out
}

// Len returns the number of callbacks registered for event.
func (r *Registry) Len(event Event) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hooks[event])
}

// Clear drops every registered callback.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instantiate()
}

// Dispatch runs the callbacks for event in registration order.
// The first failing callback stops dispatch and its error is returned.
func (r *Registry) Dispatch(event Event) error {
	// Callbacks run outside the lock so they can register further hooks.
	for i, cb := range r.Get(event) {
		if err := cb(); err != nil {
			return fmt.Errorf("hook %s:%s #%d failed: %w", r.timing, event, i, err)
		}
	}
	return nil
}

// Hooks bundles the before and after registries.
type Hooks struct {
	Before *Registry
	After  *Registry
}

// New creates an empty pair of registries.
func New() *Hooks {
	return &Hooks{
		Before: NewRegistry("before"),
		After:  NewRegistry("after"),
	}
}

// Clear resets both registries.
func (h *Hooks) Clear() {
	h.Before.Clear()
	h.After.Clear()
}
