// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package hooks maps lifecycle event names to ordered callbacks.
package hooks

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
)

// Events fired by the transpiler facade.
const (
	TranspileBefore = "transpile.before"
	TranspileAfter  = "transpile.after"
	TranspileFailed = "transpile.failed"
)

// ErrDuplicate is returned when a callback name is already registered for an event.
var ErrDuplicate = errors.New("hook already registered")

// Event is the payload passed to every callback.
// Output is set only after a successful transpile, Err only after a failure.
type Event struct {
	Name   string
	Source string
	Output string
	Err    error
}

// Callback observes an event. Callbacks must not mutate the event.
type Callback func(ev Event)

type entry struct {
	name string
	cb   Callback
}

// Registry holds the callbacks for each event.
// It is safe for concurrent use; Fire runs callbacks on the caller's goroutine.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]entry
}

func New() *Registry {
	return &Registry{
		hooks: make(map[string][]entry),
	}
}

// Register appends cb to the callbacks for event.
func (r *Registry) Register(event, name string, cb Callback) error {
	if cb == nil {
		return errors.Newf("hooks: %s: %s: nil callback", event, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.hooks[event] {
		if e.name == name {
			return errors.Wrapf(ErrDuplicate, "%s: %s", event, name)
		}
	}
	r.hooks[event] = append(r.hooks[event], entry{name: name, cb: cb})
	return nil
}

// Unregister removes the named callback and reports whether it was present.
func (r *Registry) Unregister(event, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.hooks[event]
	for i, e := range list {
		if e.name == name {
			r.hooks[event] = append(list[:i:i], list[i+1:]...)
			if len(r.hooks[event]) == 0 {
				delete(r.hooks, event)
			}
			return true
		}
	}
	return false
}

// Fire calls every callback registered for ev.Name in registration order.
// A nil registry fires nothing.
func (r *Registry) Fire(ev Event) {
	if r == nil {
		return
	}
	r.mu.RLock()
	list := append([]entry(nil), r.hooks[ev.Name]...)
	r.mu.RUnlock()
	for _, e := range list {
		e.cb(ev)
	}
}

// Names returns the callback names for event in registration order.
func (r *Registry) Names(event string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.hooks[event]))
	for _, e := range r.hooks[event] {
		names = append(names, e.name)
	}
	return names
}

// Events returns the events that have callbacks, in sorted order.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]string, 0, len(r.hooks))
	for event := range r.hooks {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}
