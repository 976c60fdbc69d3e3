package ice

import (
	"net"
	"time"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/logging"
	"github.com/pion/stun/v3"
)

// Role is a tagged variant over the two ICE roles. Selector's five entry
// points each branch on Role instead of dispatching through a
// ControllingSelector/ControlledSelector pair of types.
type Role int

// ICE roles.
const (
	Controlling Role = iota
	Controlled
)

// Selector is the connectivity-check state machine. All of its non-atomic
// state (startTime, nominatedPair) is owned by the agent's own task;
// external callers must not touch it concurrently with
// ContactCandidates/HandleSuccessResponse/HandleBindingRequest.
type Selector struct {
	Role Role
	Lite bool

	LocalUfrag     string
	LocalPwd       string
	RemoteUfrag    string
	RemotePwd      string
	TieBreaker     uint64

	MinWait MinWait

	conn         Conn
	transactions *Transactions
	log          logging.LeveledLogger

	startTime     time.Time
	nominatedPair *candidate.Pair
}

// NewSelector creates a Selector bound to the given collaborator Conn and
// transaction table.
func NewSelector(role Role, conn Conn, transactions *Transactions, log logging.LeveledLogger) *Selector {
	if log == nil {
		log = logging.NewDefaultLoggerFactory().NewLogger("ice")
	}
	return &Selector{
		Role:         role,
		conn:         conn,
		transactions: transactions,
		log:          log,
		MinWait:      DefaultMinWait(),
	}
}

// Start resets per-role start state.
func (s *Selector) Start() {
	if s.Role == Controlling {
		s.startTime = time.Now()
		s.nominatedPair = nil
	}
}

// ContactCandidates is the periodic tick entry point.
func (s *Selector) ContactCandidates() {
	if s.Role == Controlling {
		s.controllingContactCandidates()
	} else {
		s.controlledContactCandidates()
	}
}

// PingCandidate sends a single non-nominating connectivity check.
func (s *Selector) PingCandidate(local, remote *candidate.Candidate) {
	if s.Role == Controlling {
		s.controllingPingCandidate(local, remote)
	} else {
		s.controlledPingCandidate(local, remote)
	}
}

// HandleSuccessResponse dispatches an inbound Binding Success Response to
// the role-specific handler.
func (s *Selector) HandleSuccessResponse(m *stun.Message, local, remote *candidate.Candidate, remoteAddr net.Addr) {
	if s.Role == Controlling {
		s.controllingHandleSuccessResponse(m, local, remote, remoteAddr)
	} else {
		s.controlledHandleSuccessResponse(m, local, remote, remoteAddr)
	}
}

// HandleBindingRequest dispatches an inbound Binding Request to the
// role-specific handler.
func (s *Selector) HandleBindingRequest(m *stun.Message, local, remote *candidate.Candidate) {
	if s.Role == Controlling {
		s.controllingHandleBindingRequest(m, local, remote)
	} else {
		s.controlledHandleBindingRequest(m, local, remote)
	}
}

// pingAllPairs issues a non-nominating check to every known pair in
// priority order.
func (s *Selector) pingAllPairs() {
	for _, p := range s.conn.AllPairsByPriority() {
		s.PingCandidate(p.Local, p.Remote)
	}
}

func (s *Selector) isNominatablePair(p *candidate.Pair) bool {
	return isNominatable(s.log, s.MinWait, s.startTime, p.Local) && isNominatable(s.log, s.MinWait, s.startTime, p.Remote)
}
