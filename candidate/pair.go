package candidate

import (
	"fmt"
	"sync/atomic"
)

// PairState is the connectivity-check state of a CandidatePair.
type PairState int32

// Pair states, in the order a check normally progresses through them.
const (
	Waiting PairState = iota
	InProgress
	Succeeded
	Failed
	Frozen
)

func (s PairState) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case InProgress:
		return "in-progress"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Frozen:
		return "frozen"
	default:
		return "unknown"
	}
}

// Pair is an ordered (local, remote) candidate tuple. State and Nominated
// are atomic because they are read from the selector's task and written
// from the same task, but accessed without a lock from registry queries.
type Pair struct {
	Local  *Candidate
	Remote *Candidate

	state     atomic.Int32
	nominated atomic.Bool
}

// NewPair creates a pair in the Waiting state.
func NewPair(local, remote *Candidate) *Pair {
	p := &Pair{Local: local, Remote: remote}
	p.state.Store(int32(Waiting))
	return p
}

// State returns the current connectivity-check state.
func (p *Pair) State() PairState {
	return PairState(p.state.Load())
}

// SetState updates the connectivity-check state.
func (p *Pair) SetState(s PairState) {
	p.state.Store(int32(s))
}

// Nominated reports whether the controlling agent has marked this pair
// nominated.
func (p *Pair) Nominated() bool {
	return p.nominated.Load()
}

// SetNominated marks the pair nominated.
func (p *Pair) SetNominated(v bool) {
	p.nominated.Store(v)
}

func (p *Pair) String() string {
	return fmt.Sprintf("(%s -> %s) state=%s nominated=%t", p.Local, p.Remote, p.State(), p.Nominated())
}

// Priority computes the standard ICE pair priority:
//
//	min(G,D)*2^32 + max(G,D)*2 + (G>D ? 1 : 0)
//
// where G is the priority of the candidate owned by the controlling agent
// and D is the priority of the candidate owned by the controlled agent.
func Priority(p *Pair, isControlling bool) uint64 {
	g, d := uint64(p.Local.Priority), uint64(p.Remote.Priority)
	if !isControlling {
		g, d = d, g
	}

	min, max := g, d
	var extra uint64
	if g > d {
		min, max = d, g
		extra = 1
	} else if d > g {
		min, max = g, d
	}

	return min<<32 + max*2 + extra
}
