package candidate

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func cand(priority uint32) *Candidate {
	return &Candidate{
		Type:     Host,
		Priority: priority,
		Addr:     &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1},
	}
}

func TestPriorityOrdering(t *testing.T) {
	testCases := []struct {
		name          string
		local, remote uint32
		isControlling bool
		want          uint64
	}{
		{"controlling higher", 200, 100, true, uint64(100)<<32 + 200*2 + 1},
		{"controlling lower", 100, 200, true, uint64(100)<<32 + 200*2},
		{"controlled swaps roles", 100, 200, false, uint64(100)<<32 + 200*2 + 1},
		{"equal priorities", 150, 150, true, uint64(150)<<32 + 150*2},
	}

	for _, tc := range testCases {
		p := NewPair(cand(tc.local), cand(tc.remote))
		assert.Equal(t, tc.want, Priority(p, tc.isControlling), tc.name)
	}
}

func TestPairStateDefaultsToWaiting(t *testing.T) {
	p := NewPair(cand(1), cand(1))
	assert.Equal(t, Waiting, p.State())
	assert.False(t, p.Nominated())
}

func TestPairSetState(t *testing.T) {
	p := NewPair(cand(1), cand(1))
	p.SetState(Succeeded)
	assert.Equal(t, Succeeded, p.State())

	p.SetNominated(true)
	assert.True(t, p.Nominated())
}
