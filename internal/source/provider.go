// Package source supplies resolved record sets to the list pipeline.
// The pipeline never produces data itself; every record set comes from
// a Provider (stored dataset, file, URL, cache).
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"crm-pipeline/internal/model"
)

// ErrUnknownEntity is returned for entities with no registered provider.
var ErrUnknownEntity = errors.New("unknown entity")

// Provider returns the full, materialized record set of one entity.
type Provider interface {
	Records(ctx context.Context) ([]model.Record, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]model.Record, error)

// Records calls f.
func (f ProviderFunc) Records(ctx context.Context) ([]model.Record, error) {
	return f(ctx)
}

// Static serves a fixed record set, e.g. test fixtures.
type Static []model.Record

// Records returns a copy of the slice so callers cannot reorder the fixture.
func (s Static) Records(ctx context.Context) ([]model.Record, error) {
	return slices.Clone([]model.Record(s)), nil
}

// Registry maps entity names to providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register binds a provider to an entity, replacing any previous one.
func (r *Registry) Register(entity string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[entity] = p
}

// Get returns the provider for an entity.
func (r *Registry) Get(entity string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[entity]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, entity)
	}
	return p, nil
}

// Entities lists registered entity names in sorted order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
