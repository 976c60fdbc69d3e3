package allocation

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	written [][]byte
}

func (f *fakeTransport) WriteTo(b []byte, _ net.Addr) (int, error) {
	f.written = append(f.written, append([]byte(nil), b...))
	return len(b), nil
}

func newTestAllocation() (*Allocation, *fakeTransport) {
	ft := &FiveTuple{
		Protocol: UDP,
		SrcAddr:  &net.UDPAddr{IP: net.ParseIP("192.0.2.10"), Port: 5000},
		DstAddr:  &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 3478},
	}
	transport := &fakeTransport{}
	a := NewAllocation(ft, &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 49152}, transport, nil)
	return a, transport
}

func TestAllocationCloseIsIdempotent(t *testing.T) {
	a, _ := newTestAllocation()
	a.Start(50*time.Millisecond, func() {})

	require.NoError(t, a.Close())
	assert.True(t, a.Closed())
	require.NoError(t, a.Close())
}

func TestAllocationRefreshAfterCloseIsNoOp(t *testing.T) {
	a, _ := newTestAllocation()
	expired := make(chan struct{}, 1)
	a.Start(20*time.Millisecond, func() { expired <- struct{}{} })
	require.NoError(t, a.Close())

	a.Refresh(time.Hour)

	select {
	case <-expired:
		t.Fatal("lifetime callback fired after close")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestAllocationLifetimeRefresh: refreshing at t=0.8s with a new 2s
// lifetime must keep the allocation alive past t=1.5s and remove it by
// t=3.0s.
func TestAllocationLifetimeRefresh(t *testing.T) {
	a, _ := newTestAllocation()
	expired := make(chan struct{})
	a.Start(1*time.Second, func() { close(expired) })

	time.Sleep(800 * time.Millisecond)
	a.Refresh(2 * time.Second)

	select {
	case <-expired:
		t.Fatal("allocation expired before the refreshed deadline")
	case <-time.After(700 * time.Millisecond):
	}

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("allocation never expired after the refreshed lifetime elapsed")
	}
}

func TestAllocationAddChannelBindAfterCloseIsNoOp(t *testing.T) {
	a, _ := newTestAllocation()
	require.NoError(t, a.Close())

	err := a.AddChannelBind(NewChannelBind(0x4001, peerAddr("203.0.113.5", 1)), ChannelBindTimeout)
	assert.NoError(t, err)
	assert.False(t, a.HasPermission(peerAddr("203.0.113.5", 1)))
}

func TestHandleInboundChannelDataTakesPriority(t *testing.T) {
	a, _ := newTestAllocation()
	peer := peerAddr("203.0.113.5", 10000)
	require.NoError(t, a.AddChannelBind(NewChannelBind(0x4001, peer), ChannelBindTimeout))

	frame, kind, err := a.HandleInbound(peer, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, ChannelDataFrame, kind)
	gotNumber := uint16(frame[0])<<8 | uint16(frame[1])
	assert.Equal(t, uint16(0x4001), gotNumber)
}

func TestHandleInboundDataIndicationWhenOnlyPermission(t *testing.T) {
	a, _ := newTestAllocation()
	peer := peerAddr("203.0.113.5", 10000)
	a.AddPermission(NewPermission(peer))

	frame, kind, err := a.HandleInbound(peer, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, DataIndicationFrame, kind)
	assert.NotEmpty(t, frame)
}

func TestHandleInboundDropsWithNeitherPermissionNorChannel(t *testing.T) {
	a, _ := newTestAllocation()
	peer := peerAddr("203.0.113.5", 10000)

	frame, kind, err := a.HandleInbound(peer, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, NoFrame, kind)
	assert.Nil(t, frame)
}
