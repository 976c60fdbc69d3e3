package ice

import (
	"net"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/stun/v3"
)

// controllingContactCandidates drives the controlling agent's periodic
// connectivity-check tick.
func (s *Selector) controllingContactCandidates() {
	if s.Lite {
		// Only reachable if both peers are lite (RFC 8445 §6.1.1/§6.2); the
		// lite controlling selector still performs full checks below.
		s.log.Trace("lite agent falling back to full agent behavior")
	}

	switch {
	case s.conn.GetSelectedPair() != nil:
		if s.conn.ValidateSelectedPair() {
			s.log.Trace("checking keepalive")
			s.conn.CheckKeepalive()
		}
	case s.nominatedPair != nil:
		s.nominatePair()
	default:
		p := s.conn.GetBestValidCandidatePair()
		if p != nil && s.isNominatablePair(p) {
			p.SetNominated(true)
			s.nominatedPair = p
			s.log.Tracef("nominatable pair found, nominating (%s, %s)", p.Local, p.Remote)
			s.nominatePair()
		} else {
			s.pingAllPairs()
		}
	}
}

// nominatePair sends the nominating binding request for s.nominatedPair.
func (s *Selector) nominatePair() {
	p := s.nominatedPair
	if p == nil {
		return
	}

	msg, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: s.RemoteUfrag + ":" + s.LocalUfrag,
		isControlling:        true,
		tieBreaker:           s.TieBreaker,
		localPriority:        p.Local.Priority,
		useCandidate:         true,
		remotePassword:       s.RemotePwd,
	})
	if err != nil {
		s.log.Errorf("%v: %v", ErrMessageBuildFailure, err)
		return
	}

	s.log.Tracef("ping STUN (nominate candidate pair) from %s to %s", p.Local, p.Remote)
	s.send(msg, p.Local, p.Remote, true)
}

func (s *Selector) controllingPingCandidate(local, remote *candidate.Candidate) {
	msg, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: s.RemoteUfrag + ":" + s.LocalUfrag,
		isControlling:        true,
		tieBreaker:           s.TieBreaker,
		localPriority:        local.Priority,
		useCandidate:         false,
		remotePassword:       s.RemotePwd,
	})
	if err != nil {
		s.log.Errorf("%v: %v", ErrMessageBuildFailure, err)
		return
	}
	s.send(msg, local, remote, false)
}

// send registers the transaction and hands the encoded message to the
// Transport collaborator for transmission.
func (s *Selector) send(msg *stun.Message, local, remote *candidate.Candidate, isUseCandidate bool) {
	var txID [12]byte
	copy(txID[:], msg.TransactionID[:])
	s.transactions.Register(txID, remote.Addr, isUseCandidate)
	s.conn.SendBindingRequest(msg.Raw, local, remote, remote.Addr, isUseCandidate)
}

func (s *Selector) controllingHandleSuccessResponse(m *stun.Message, local, remote *candidate.Candidate, remoteAddr net.Addr) {
	var txID [12]byte
	copy(txID[:], m.TransactionID[:])

	pending := s.transactions.Consume(txID)
	if pending == nil {
		s.log.Warnf("%v from %s", ErrUnknownTransaction, remote)
		return
	}

	// Assert that NAT is not symmetric (RFC 8445 §7.2.5.2.1).
	if pending.Destination.String() != remoteAddr.String() {
		s.log.Debugf("%v: expected %s, actual %s", ErrProtocolMismatch, pending.Destination, remoteAddr)
		return
	}

	p := s.conn.FindPair(local, remote)
	if p == nil {
		s.log.Errorf("%v", ErrUnknownPair)
		return
	}

	selectedPairIsNone := s.conn.GetSelectedPair() == nil
	p.SetState(candidate.Succeeded)

	if pending.IsUseCandidate && selectedPairIsNone {
		s.conn.SetSelectedPair(p)
	}
}

func (s *Selector) controllingHandleBindingRequest(m *stun.Message, local, remote *candidate.Candidate) {
	s.conn.SendBindingSuccess(m, local, remote)

	p := s.conn.FindPair(local, remote)
	if p == nil {
		s.conn.AddPair(local, remote)
		return
	}

	if p.State() == candidate.Succeeded && s.nominatedPair == nil && s.conn.GetSelectedPair() == nil {
		if best := s.conn.GetBestAvailableCandidatePair(); best == p && s.isNominatablePair(p) {
			s.log.Tracef("(%s, %s) is the best available pair, marking it nominated", p.Local, p.Remote)
			s.nominatedPair = p
			s.nominatePair()
		}
	}
}
