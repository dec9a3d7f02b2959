package tern

import (
	"context"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wirebird/tern/internal/streams"
	"github.com/wirebird/tern/provider"
)

// Registry holds the configured providers and tracks which one is active.
// Providers keep their registration order, which fixes the switching cycle
// and the fallback choice when the active provider is removed. Safe for
// concurrent use.
type Registry struct {
	mu        sync.Mutex
	providers *orderedmap.OrderedMap[string, provider.Provider]
	active    string
	inflight  *streams.Tracker
}

// NewRegistry returns an empty registry. Providers are usually registered
// right away:
//
//	reg := tern.NewRegistry(
//		openai.New(openai.FromEnv()),
//		anthropic.New(anthropic.FromEnv()),
//	)
func NewRegistry(providers ...provider.Provider) *Registry {
	r := &Registry{
		providers: orderedmap.New[string, provider.Provider](),
		inflight:  streams.NewTracker(),
	}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds a provider, replacing any previous one with the same name.
// The first provider registered becomes active.
func (r *Registry) Register(p provider.Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers.Set(p.Name(), p)
	if r.active == "" {
		r.active = p.Name()
	}
}

// Unregister removes a provider by name and reports whether it was present.
// If the active provider is removed, the first remaining one becomes active.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, present := r.providers.Delete(name); !present {
		return false
	}
	if r.active == name {
		r.active = ""
		if oldest := r.providers.Oldest(); oldest != nil {
			r.active = oldest.Key
		}
	}
	return true
}

// Active returns the active provider, or false when none is registered.
func (r *Registry) Active() (provider.Provider, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() (provider.Provider, bool) {
	if r.active == "" {
		return nil, false
	}
	return r.providers.Get(r.active)
}

// ActiveName returns the name of the active provider, or "" when none is.
func (r *Registry) ActiveName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActive makes the named provider active and reports whether it exists.
func (r *Registry) SetActive(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.providers.Get(name); !ok {
		return false
	}
	r.active = name
	return true
}

// SwitchToNext moves the active pointer to the next enabled provider in
// registration order, wrapping around. Disabled providers are skipped.
// Returns false, leaving the active pointer alone, when no enabled provider
// exists.
func (r *Registry) SwitchToNext() bool {
	return r.switchActive(func(pair *orderedmap.Pair[string, provider.Provider]) *orderedmap.Pair[string, provider.Provider] {
		if next := pair.Next(); next != nil {
			return next
		}
		return r.providers.Oldest()
	})
}

// SwitchToPrevious is SwitchToNext in the other direction.
func (r *Registry) SwitchToPrevious() bool {
	return r.switchActive(func(pair *orderedmap.Pair[string, provider.Provider]) *orderedmap.Pair[string, provider.Provider] {
		if prev := pair.Prev(); prev != nil {
			return prev
		}
		return r.providers.Newest()
	})
}

func (r *Registry) switchActive(step func(*orderedmap.Pair[string, provider.Provider]) *orderedmap.Pair[string, provider.Provider]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := r.providers.GetPair(r.active)
	if start == nil {
		start = r.providers.Oldest()
	}
	if start == nil {
		return false
	}

	// Walk at most one full cycle looking for an enabled provider.
	for pair, n := step(start), r.providers.Len(); n > 0; pair, n = step(pair), n-1 {
		if pair.Value.Config().Enabled {
			r.active = pair.Key
			return true
		}
	}
	return false
}

// Names returns the provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, r.providers.Len())
	for pair := r.providers.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// Providers returns the providers in registration order.
func (r *Registry) Providers() []provider.Provider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.providersLocked()
}

func (r *Registry) providersLocked() []provider.Provider {
	out := make([]provider.Provider, 0, r.providers.Len())
	for pair := r.providers.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Len reports how many providers are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.providers.Len()
}

// HealthChecks probes every registered provider concurrently and returns
// the reports in registration order.
func (r *Registry) HealthChecks(ctx context.Context) []provider.HealthReport {
	targets := r.Providers()
	reports := make([]provider.HealthReport, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	for i, p := range targets {
		g.Go(func() error {
			reports[i] = p.HealthCheck(ctx)
			return nil
		})
	}
	g.Wait()
	return reports
}

// BestPerforming probes every provider concurrently and returns the healthy
// one with the lowest latency. Returns false when no provider reports
// healthy. The active pointer is not changed; pair with SetActive to act on
// the answer.
func (r *Registry) BestPerforming(ctx context.Context) (provider.Provider, provider.HealthReport, bool) {
	targets := r.Providers()
	reports := r.HealthChecks(ctx)

	best := -1
	var bestLatency time.Duration
	for i, report := range reports {
		if report.Status != provider.Healthy {
			continue
		}
		if best == -1 || report.Latency < bestLatency {
			best, bestLatency = i, report.Latency
		}
	}
	if best == -1 {
		return nil, provider.HealthReport{}, false
	}
	return targets[best], reports[best], true
}
