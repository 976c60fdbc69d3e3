package ice

import (
	"net"
	"sort"

	"github.com/pion/conncheck/candidate"
	"github.com/pion/stun/v3"
)

// fakeConn is a hand-rolled Conn double used to drive the selector logic
// in isolation, without a real Transport or registry.
type fakeConn struct {
	registry     *candidate.Registry
	selected     *candidate.Pair
	sentRequests []sentRequest
	successes    int
	keepalives   int
	validates    bool
}

type sentRequest struct {
	local, remote *candidate.Candidate
	useCandidate  bool
}

func newFakeConn(isControlling bool) *fakeConn {
	return &fakeConn{registry: candidate.NewRegistry(isControlling), validates: true}
}

func (f *fakeConn) SendBindingRequest(_ []byte, local, remote *candidate.Candidate, _ net.Addr, isUseCandidate bool) {
	f.sentRequests = append(f.sentRequests, sentRequest{local, remote, isUseCandidate})
}

func (f *fakeConn) SendBindingSuccess(_ *stun.Message, _, _ *candidate.Candidate) {
	f.successes++
}

func (f *fakeConn) SetSelectedPair(p *candidate.Pair) { f.selected = p }
func (f *fakeConn) GetSelectedPair() *candidate.Pair  { return f.selected }

func (f *fakeConn) GetBestValidCandidatePair() *candidate.Pair     { return f.registry.BestValid() }
func (f *fakeConn) GetBestAvailableCandidatePair() *candidate.Pair { return f.registry.BestAvailable() }

func (f *fakeConn) AddPair(local, remote *candidate.Candidate) *candidate.Pair {
	return f.registry.Add(local, remote)
}
func (f *fakeConn) FindPair(local, remote *candidate.Candidate) *candidate.Pair {
	return f.registry.Find(local, remote)
}

func (f *fakeConn) AllPairsByPriority() []*candidate.Pair {
	pairs := f.registry.All()
	sort.Slice(pairs, func(i, j int) bool {
		return candidate.Priority(pairs[i], true) > candidate.Priority(pairs[j], true)
	})
	return pairs
}

func (f *fakeConn) CheckKeepalive()         { f.keepalives++ }
func (f *fakeConn) ValidateSelectedPair() bool { return f.validates }

func hostCandidate(priority uint32, port int) *candidate.Candidate {
	return &candidate.Candidate{
		Type:     candidate.Host,
		Priority: priority,
		Addr:     &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: port},
	}
}

func udpAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: port}
}

// fakeSuccessMessage builds a minimal Binding Success Response carrying
// txID, enough for the transaction-id match in HandleSuccessResponse.
func fakeSuccessMessage(txID [12]byte) *stun.Message {
	m := new(stun.Message)
	_ = m.Build(
		stun.NewTransactionIDSetter(txID),
		stun.NewType(stun.MethodBinding, stun.ClassSuccessResponse),
	)
	return m
}
