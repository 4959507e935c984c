package session

import (
	"context"
	"sync"
	"time"

	"consentmgr/internal/platform/metrics"
	id "consentmgr/pkg/domain"
	"consentmgr/pkg/requestcontext"
)

// Factory builds the controller for a newly seen visitor.
type Factory func(visitorID id.VisitorID) *Controller

type registryEntry struct {
	controller *Controller
	lastSeen   time.Time
}

// Registry keeps one Controller per visitor for the HTTP surface. Entries idle
// for longer than the TTL are swept lazily on access.
type Registry struct {
	mu      sync.Mutex
	factory Factory
	idleTTL time.Duration
	metrics *metrics.Metrics
	entries map[id.VisitorID]*registryEntry
}

// NewRegistry builds a registry. A zero idleTTL keeps controllers forever.
func NewRegistry(factory Factory, idleTTL time.Duration, m *metrics.Metrics) *Registry {
	return &Registry{
		factory: factory,
		idleTTL: idleTTL,
		metrics: m,
		entries: make(map[id.VisitorID]*registryEntry),
	}
}

// Get returns the visitor's controller, creating it on first sight. The
// second result reports whether it was created by this call.
func (r *Registry) Get(ctx context.Context, visitorID id.VisitorID) (*Controller, bool) {
	now := requestcontext.Now(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweepLocked(now)
	e, ok := r.entries[visitorID]
	if !ok {
		e = &registryEntry{controller: r.factory(visitorID)}
		r.entries[visitorID] = e
	}
	e.lastSeen = now
	r.metrics.SetActiveSessions(len(r.entries))
	return e.controller, !ok
}

// Len reports how many controllers are held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep evicts controllers idle as of now and returns how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.sweepLocked(now)
	r.metrics.SetActiveSessions(len(r.entries))
	return removed
}

// Wait blocks until every held controller's background work settles.
func (r *Registry) Wait() {
	r.mu.Lock()
	controllers := make([]*Controller, 0, len(r.entries))
	for _, e := range r.entries {
		controllers = append(controllers, e.controller)
	}
	r.mu.Unlock()

	for _, c := range controllers {
		c.Wait()
	}
}

func (r *Registry) sweepLocked(now time.Time) int {
	if r.idleTTL <= 0 {
		return 0
	}
	removed := 0
	for visitorID, e := range r.entries {
		if now.Sub(e.lastSeen) >= r.idleTTL {
			delete(r.entries, visitorID)
			removed++
		}
	}
	return removed
}
