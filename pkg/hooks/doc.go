// Package hooks provides lifecycle hook registries for the ignitor boot sequence.
//
// Two registries exist per process, Before and After. Callbacks registered for an
// event run in registration order when the orchestrator crosses the matching
// phase boundary. An event that was never registered behaves exactly like one
// registered with no callbacks.
package hooks
