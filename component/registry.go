package component

import (
	"context"
	"fmt"
	"sync"

	"github.com/skillsenselab/storagekit/logger"
)

// componentEntry holds a component and its started state.
type componentEntry struct {
	component Component
	started   bool
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse order.
type Registry struct {
	entries []*componentEntry
	lookup  map[string]*componentEntry
	mu      sync.RWMutex
}

// NewRegistry creates a new component registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*componentEntry, 0),
		lookup:  make(map[string]*componentEntry),
	}
}

// Register adds a component to the registry. Components are started in
// the order they are registered, so register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("component %s already registered", name)
	}

	entry := &componentEntry{component: c}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	logger.Debug("component registered", logger.Fields("component", name))
	return nil
}

// Get returns a registered component by name, or nil if absent.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.lookup[name]; ok {
		return entry.component
	}
	return nil
}

// StartAll starts all components in registration order.
// On the first failure, components started so far are stopped in reverse order.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, entry := range r.entries {
		name := entry.component.Name()
		if err := entry.component.Start(ctx); err != nil {
			r.stopEntries(ctx, i-1)
			return fmt.Errorf("starting component %s: %w", name, err)
		}
		entry.started = true
		logger.Debug("component started", logger.Fields("component", name))
	}
	return nil
}

// StopAll stops all started components in reverse registration order.
// All components are stopped even if some fail; the first error is returned.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stopEntries(ctx, len(r.entries)-1)
}

// HealthAll collects health from every registered component.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.component.Health(ctx))
	}
	return out
}

func (r *Registry) stopEntries(ctx context.Context, from int) error {
	var firstErr error
	for i := from; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.started {
			continue
		}
		name := entry.component.Name()
		if err := entry.component.Stop(ctx); err != nil {
			logger.Error("component stop failed", logger.ErrorFields(name, err))
			if firstErr == nil {
				firstErr = fmt.Errorf("stopping component %s: %w", name, err)
			}
		}
		entry.started = false
	}
	return firstErr
}
