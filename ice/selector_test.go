package ice

import (
	"testing"

	"github.com/pion/conncheck/candidate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSelector(role Role, conn Conn) *Selector {
	s := NewSelector(role, conn, NewTransactions(), nil)
	s.LocalUfrag, s.RemoteUfrag = "lu", "ru"
	s.LocalPwd, s.RemotePwd = "lp", "rp"
	return s
}

func TestControllingNominatesBestValidPair(t *testing.T) {
	conn := newFakeConn(true)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)
	pair := conn.AddPair(local, remote)
	pair.SetState(candidate.Succeeded)

	sel := newTestSelector(Controlling, conn)
	sel.Start()
	sel.ContactCandidates()

	assert.True(t, pair.Nominated())
	require.Len(t, conn.sentRequests, 1)
	assert.True(t, conn.sentRequests[0].useCandidate)
}

func TestControllingPingsAllWhenNotYetNominatable(t *testing.T) {
	conn := newFakeConn(true)
	local := &candidate.Candidate{Type: candidate.ServerReflexive, Priority: 100, Addr: udpAddr(1)}
	remote := &candidate.Candidate{Type: candidate.ServerReflexive, Priority: 100, Addr: udpAddr(2)}
	pair := conn.AddPair(local, remote)
	pair.SetState(candidate.Succeeded)

	sel := newTestSelector(Controlling, conn)
	sel.Start()
	sel.ContactCandidates()

	assert.False(t, pair.Nominated())
	require.Len(t, conn.sentRequests, 1)
	assert.False(t, conn.sentRequests[0].useCandidate)
}

func TestControllingKeepaliveWhenSelected(t *testing.T) {
	conn := newFakeConn(true)
	pair := conn.AddPair(hostCandidate(100, 1), hostCandidate(100, 2))
	conn.SetSelectedPair(pair)

	sel := newTestSelector(Controlling, conn)
	sel.Start()
	sel.ContactCandidates()

	assert.Equal(t, 1, conn.keepalives)
	assert.Empty(t, conn.sentRequests)
}

func TestHandleSuccessResponseSymmetricNATDiscarded(t *testing.T) {
	conn := newFakeConn(true)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)
	pair := conn.AddPair(local, remote)

	sel := newTestSelector(Controlling, conn)
	var txID [12]byte
	copy(txID[:], []byte("abcdefghijkl"))
	sel.transactions.Register(txID, remote.Addr, true)

	other := udpAddr(9999)
	msg := fakeSuccessMessage(txID)
	sel.HandleSuccessResponse(msg, local, remote, other)

	assert.Equal(t, candidate.Waiting, pair.State())
	assert.Equal(t, 0, sel.transactions.Len())
}

func TestControllingHandleSuccessResponsePromotesOnUseCandidate(t *testing.T) {
	conn := newFakeConn(true)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)
	pair := conn.AddPair(local, remote)

	sel := newTestSelector(Controlling, conn)
	var txID [12]byte
	copy(txID[:], []byte("abcdefghijkl"))
	sel.transactions.Register(txID, remote.Addr, true)

	sel.HandleSuccessResponse(fakeSuccessMessage(txID), local, remote, remote.Addr)

	assert.Equal(t, candidate.Succeeded, pair.State())
	assert.Same(t, pair, conn.GetSelectedPair())
}

func TestControlledUseCandidateBeforeSucceededDoesNotSelect(t *testing.T) {
	conn := newFakeConn(false)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)
	conn.AddPair(local, remote)

	sel := newTestSelector(Controlled, conn)
	req, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: "ru:lu",
		isControlling:        true,
		useCandidate:         true,
		remotePassword:       "rp",
	})
	require.NoError(t, err)

	sel.HandleBindingRequest(req, local, remote)

	assert.Nil(t, conn.GetSelectedPair())
	assert.Equal(t, 0, conn.successes)
	require.Len(t, conn.sentRequests, 1)
	assert.False(t, conn.sentRequests[0].useCandidate)
}

func TestControlledSelectsOnUseCandidateWhenSucceeded(t *testing.T) {
	conn := newFakeConn(false)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)
	pair := conn.AddPair(local, remote)
	pair.SetState(candidate.Succeeded)

	sel := newTestSelector(Controlled, conn)
	req, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: "ru:lu",
		isControlling:        true,
		useCandidate:         true,
		remotePassword:       "rp",
	})
	require.NoError(t, err)

	sel.HandleBindingRequest(req, local, remote)

	assert.Same(t, pair, conn.GetSelectedPair())
	assert.Equal(t, 1, conn.successes)
}

func TestControlledNonUseCandidateRepliesAndPings(t *testing.T) {
	conn := newFakeConn(false)
	local, remote := hostCandidate(100, 1), hostCandidate(100, 2)

	sel := newTestSelector(Controlled, conn)
	req, err := buildBindingRequest(bindingRequestParams{
		usernameFragmentPair: "ru:lu",
		isControlling:        true,
		useCandidate:         false,
		remotePassword:       "rp",
	})
	require.NoError(t, err)

	sel.HandleBindingRequest(req, local, remote)

	assert.Equal(t, 1, conn.successes)
	require.Len(t, conn.sentRequests, 1)
	assert.NotNil(t, conn.FindPair(local, remote))
}
