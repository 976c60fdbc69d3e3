package ice

import (
	"net"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/stun/v3"
)

// Transport is the socket-I/O collaborator: the core never multiplexes
// sockets itself, it only asks Transport to put bytes on the wire for a
// given local/remote candidate pair.
type Transport interface {
	WriteTo(b []byte, local, remote *candidate.Candidate) (int, error)
}

// Conn is the set of collaborator operations a selector needs from its
// owning Agent: registry accessors plus the two STUN send primitives.
// Modeling this as an interface keeps the selector logic testable without
// a real Transport or registry, the way a narrow collaborator interface
// lets production code depend on behavior rather than a concrete type.
type Conn interface {
	SendBindingRequest(msg []byte, local, remote *candidate.Candidate, destination net.Addr, isUseCandidate bool)
	// SendBindingSuccess builds the Binding Success Response for the
	// inbound request m (XOR-MAPPED-ADDRESS, MessageIntegrity,
	// Fingerprint) and transmits it.
	SendBindingSuccess(m *stun.Message, local, remote *candidate.Candidate)

	SetSelectedPair(p *candidate.Pair)
	GetSelectedPair() *candidate.Pair
	GetBestValidCandidatePair() *candidate.Pair
	GetBestAvailableCandidatePair() *candidate.Pair

	AddPair(local, remote *candidate.Candidate) *candidate.Pair
	FindPair(local, remote *candidate.Candidate) *candidate.Pair
	AllPairsByPriority() []*candidate.Pair

	CheckKeepalive()
	ValidateSelectedPair() bool
}
