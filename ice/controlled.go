package ice

import (
	"net"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/stun/v3"
)

// controlledContactCandidates drives the controlled agent's periodic
// connectivity-check tick. The controlled selector never nominates; it
// only responds and mirrors.
func (s *Selector) controlledContactCandidates() {
	if s.Lite {
		s.conn.ValidateSelectedPair()
		return
	}

	if s.conn.GetSelectedPair() != nil {
		if s.conn.ValidateSelectedPair() {
			s.log.Trace("checking keepalive")
			s.conn.CheckKeepalive()
		}
		return
	}

	s.pingAllPairs()
}

func (s *Selector) controlledPingCandidate(local, remote *candidate.Candidate) {
	msg, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: s.RemoteUfrag + ":" + s.LocalUfrag,
		isControlling:        false,
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

func (s *Selector) controlledHandleSuccessResponse(m *stun.Message, local, remote *candidate.Candidate, remoteAddr net.Addr) {
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

	// The controlled selector never promotes on its own success responses.
	p.SetState(candidate.Succeeded)
}

func (s *Selector) controlledHandleBindingRequest(m *stun.Message, local, remote *candidate.Candidate) {
	p := s.conn.FindPair(local, remote)
	if p == nil {
		p = s.conn.AddPair(local, remote)
	}

	if !hasUseCandidate(m) {
		// Honor a nomination that arrived before the pair had succeeded.
		if p.Nominated() && p.State() == candidate.Succeeded && s.conn.GetSelectedPair() == nil {
			s.conn.SetSelectedPair(p)
		}
		s.conn.SendBindingSuccess(m, local, remote)
		s.PingCandidate(local, remote)
		return
	}

	// https://tools.ietf.org/html/rfc8445#section-7.3.1.5
	if p.State() == candidate.Succeeded {
		if s.conn.GetSelectedPair() == nil {
			s.conn.SetSelectedPair(p)
		}
		s.conn.SendBindingSuccess(m, local, remote)
		return
	}

	// Not yet Succeeded: enqueue a triggered check instead of selecting.
	// If it later succeeds, the nomination is retroactively honored on the
	// next inbound request.
	p.SetNominated(true)
	s.PingCandidate(local, remote)
}
