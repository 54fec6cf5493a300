package core

import (
	"fmt"
	"strings"
	"sync"
)

// AdapterRegistry maps provider ids to adapters. Registration order is kept
// for payload-based resolution.
type AdapterRegistry struct {
	mu       sync.RWMutex
	adapters map[ProviderID]Adapter
	order    []ProviderID
}

func NewAdapterRegistry(adapters ...Adapter) (*AdapterRegistry, error) {
	registry := &AdapterRegistry{adapters: make(map[ProviderID]Adapter)}
	for _, adapter := range adapters {
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Register inserts or replaces the adapter for its provider. Replacing keeps
// the original position in the resolution order.
func (r *AdapterRegistry) Register(adapter Adapter) error {
	if r == nil {
		return fmt.Errorf("core: adapter registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("core: adapter is nil")
	}
	id := ProviderID(strings.TrimSpace(string(adapter.Provider())))
	if id == "" {
		return fmt.Errorf("core: adapter provider id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adapters == nil {
		r.adapters = make(map[ProviderID]Adapter)
	}
	if _, exists := r.adapters[id]; !exists {
		r.order = append(r.order, id)
	}
	r.adapters[id] = adapter
	return nil
}

func (r *AdapterRegistry) Resolve(providerID ProviderID) (Adapter, error) {
	id := ProviderID(strings.TrimSpace(string(providerID)))
	if r == nil || id == "" {
		return nil, adapterNotFoundError(id)
	}
	r.mu.RLock()
	adapter, ok := r.adapters[id]
	r.mu.RUnlock()
	if !ok {
		return nil, adapterNotFoundError(id)
	}
	return adapter, nil
}

// ResolvePayload returns the first adapter, in registration order, whose
// Identify accepts the payload. Overlapping adapters resolve to the first
// registered one.
func (r *AdapterRegistry) ResolvePayload(payload map[string]any) (Adapter, bool) {
	if r == nil || payload == nil {
		return nil, false
	}
	r.mu.RLock()
	candidates := make([]Adapter, 0, len(r.order))
	for _, id := range r.order {
		candidates = append(candidates, r.adapters[id])
	}
	r.mu.RUnlock()
	for _, adapter := range candidates {
		if identifySafely(adapter, payload) {
			return adapter, true
		}
	}
	return nil, false
}

func (r *AdapterRegistry) Providers() []ProviderID {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ProviderID(nil), r.order...)
}

func identifySafely(adapter Adapter, payload map[string]any) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()
	return adapter.Identify(payload)
}
