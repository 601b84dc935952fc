package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores strategies by entity-type key.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
	fallback   Strategy
}

// NewRegistry creates an empty registry whose Lookup falls back to the
// identity strategy.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Defaults returns a registry holding the built-in strategies.
func Defaults() *Registry {
	r := NewRegistry()
	r.MustRegister(HumanKey, Human())
	r.MustRegister(ArchaeologicalSiteKey, ArchaeologicalSite())
	return r
}

// Register adds s under key. Duplicate keys return an error.
func (r *Registry) Register(key string, s Strategy) error {
	if key == "" {
		return fmt.Errorf("strategy: key is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[key]; exists {
		return fmt.Errorf("strategy: %q already registered", key)
	}
	if s.Name == "" {
		s.Name = key
	}
	r.strategies[key] = s
	return nil
}

// MustRegister panics on registration failure.
func (r *Registry) MustRegister(key string, s Strategy) {
	if err := r.Register(key, s); err != nil {
		panic(err)
	}
}

// Extend chains s after whatever is registered under key, registering it
// when nothing is.
func (r *Registry) Extend(key string, s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.strategies[key]; ok {
		r.strategies[key] = Chain(existing, s)
		return
	}
	if s.Name == "" {
		s.Name = key
	}
	r.strategies[key] = s
}

// SetFallback sets the strategy returned for unknown keys.
func (r *Registry) SetFallback(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = s
}

// Lookup returns the strategy for key or the fallback.
func (r *Registry) Lookup(key string) Strategy {
	if r == nil {
		return Strategy{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.strategies[key]; ok {
		return s
	}
	return r.fallback
}

// Has reports whether key has a registered strategy.
func (r *Registry) Has(key string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.strategies[key]
	return ok
}

// List returns the registered keys, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.strategies))
	for key := range r.strategies {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
