package ice

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionsRegisterAndConsume(t *testing.T) {
	tab := NewTransactions()
	dst := &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: 10000}

	var txID [12]byte
	copy(txID[:], []byte("abcdefghijkl"))

	tab.Register(txID, dst, true)
	require.Equal(t, 1, tab.Len())

	pr := tab.Consume(txID)
	require.NotNil(t, pr)
	assert.Equal(t, dst, pr.Destination)
	assert.True(t, pr.IsUseCandidate)
	assert.Equal(t, 0, tab.Len())
}

func TestTransactionsConsumeUnknown(t *testing.T) {
	tab := NewTransactions()
	var txID [12]byte
	assert.Nil(t, tab.Consume(txID))
}

func TestTransactionsExpire(t *testing.T) {
	tab := NewTransactions()
	dst := &net.UDPAddr{IP: net.ParseIP("198.51.100.1"), Port: 10000}

	var txID [12]byte
	copy(txID[:], []byte("abcdefghijkl"))
	tab.Register(txID, dst, false)

	expired := tab.Expire(time.Now().Add(time.Second), 10*time.Millisecond)
	require.Len(t, expired, 1)
	assert.Equal(t, 0, tab.Len())
}
