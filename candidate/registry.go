package candidate

import (
	"strings"
	"sync"
)

// Registry holds discovered candidate pairs and their check state. A
// single mutex protects the slice; lock scope never spans a network
// await.
type Registry struct {
	isControlling bool

	mu    sync.Mutex
	pairs []*Pair
}

// NewRegistry creates an empty registry for the given role.
func NewRegistry(isControlling bool) *Registry {
	return &Registry{isControlling: isControlling}
}

// Find returns the registered pair for (local, remote), if any.
func (r *Registry) Find(local, remote *Candidate) *Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.find(local, remote)
}

func (r *Registry) find(local, remote *Candidate) *Pair {
	for _, p := range r.pairs {
		if p.Local == local && p.Remote == remote {
			return p
		}
	}
	return nil
}

// Add registers a new pair for (local, remote) if one does not already
// exist, returning the (possibly pre-existing) pair. Pairs are never
// deleted while the agent runs.
func (r *Registry) Add(local, remote *Candidate) *Pair {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p := r.find(local, remote); p != nil {
		return p
	}

	p := NewPair(local, remote)
	r.pairs = append(r.pairs, p)
	return p
}

// All returns a snapshot of every registered pair.
func (r *Registry) All() []*Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Pair, len(r.pairs))
	copy(out, r.pairs)
	return out
}

// BestValid returns the highest-priority pair in the Succeeded state, or
// nil if none exists.
func (r *Registry) BestValid() *Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best(func(p *Pair) bool { return p.State() == Succeeded })
}

// BestAvailable returns the highest-priority pair excluding Failed pairs,
// or nil if no pair other than a Failed one exists.
func (r *Registry) BestAvailable() *Pair {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.best(func(p *Pair) bool { return p.State() != Failed })
}

func (r *Registry) best(include func(*Pair) bool) *Pair {
	var best *Pair
	var bestPriority uint64

	for _, p := range r.pairs {
		if !include(p) {
			continue
		}
		priority := Priority(p, r.isControlling)
		switch {
		case best == nil:
			best, bestPriority = p, priority
		case priority > bestPriority:
			best, bestPriority = p, priority
		case priority == bestPriority && strings.Compare(p.Remote.Addr.String(), best.Remote.Addr.String()) < 0:
			best, bestPriority = p, priority
		}
	}

	return best
}
