package collectors

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Registry manages a set of named sources. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]Source
	statuses map[string]*SourceStatus
}

// NewRegistry returns an empty registry ready for source registration.
func NewRegistry() *Registry {
	return &Registry{
		sources:  make(map[string]Source),
		statuses: make(map[string]*SourceStatus),
	}
}

// Register adds a source to the registry. It returns an error if a source
// with the same name is already registered.
func (r *Registry) Register(s Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %q already registered", name)
	}

	r.sources[name] = s
	r.statuses[name] = &SourceStatus{
		Name:    name,
		Healthy: true,
	}
	return nil
}

// Unregister removes a source by name. It is a no-op if the name is not
// found.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sources, name)
	delete(r.statuses, name)
}

// Get returns the source with the given name, or false if not found.
func (r *Registry) Get(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	return s, ok
}

// List returns a sorted slice of all registered source names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns a copy of the runtime status for the named source, or
// false if the source is not registered.
func (r *Registry) Status(name string) (SourceStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.statuses[name]
	if !ok {
		return SourceStatus{}, false
	}
	return *s, true
}

// AllStatus returns a copy of all source statuses, sorted by name.
func (r *Registry) AllStatus() []SourceStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]SourceStatus, 0, len(r.statuses))
	for _, s := range r.statuses {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Collect runs one collection cycle for the named source and records its
// outcome in the status table. The snapshot is returned unmodified.
func (r *Registry) Collect(ctx context.Context, name string) (Snapshot, error) {
	src, ok := r.Get(name)
	if !ok {
		return Snapshot{}, fmt.Errorf("source %q not registered", name)
	}

	start := time.Now()
	snap, err := src.Collect(ctx)
	latency := time.Since(start)

	r.updateStatus(name, func(s *SourceStatus) {
		s.LastRun = start
		s.LastLatency = latency
		s.RunCount++
		if err != nil {
			s.ErrorCount++
			s.LastError = err
			s.Healthy = false
		} else {
			s.LastError = nil
			s.Healthy = true
		}
	})
	return snap, err
}

// updateStatus updates the status entry for the named source. Caller must
// NOT hold the lock; this method acquires it.
func (r *Registry) updateStatus(name string, fn func(s *SourceStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.statuses[name]; ok {
		fn(s)
	}
}
