package allocation

import (
	"errors"
	"net"
	"sync"
	"time"
)

// ChannelBindTimeout is the default ChannelBind TTL (RFC 5766 §11:
// "channel bindings... have a 10-minute timeout").
const ChannelBindTimeout = 10 * time.Minute

// Valid TURN channel numbers (RFC 5766 §11).
const (
	MinChannelNumber uint16 = 0x4000
	MaxChannelNumber uint16 = 0x7FFE
)

// ErrSameChannelDifferentPeer is surfaced to the caller when a
// ChannelBind add collides with an existing entry under a different
// peer/number mapping.
var ErrSameChannelDifferentPeer = errors.New("turn: channel number or peer address already bound to a different counterpart")

// ChannelBind aliases a 16-bit channel number to a peer address.
type ChannelBind struct {
	Number uint16
	Peer   *net.UDPAddr

	mu    sync.Mutex
	timer *time.Timer
}

// NewChannelBind creates an unstarted ChannelBind.
func NewChannelBind(number uint16, peer *net.UDPAddr) *ChannelBind {
	return &ChannelBind{Number: number, Peer: peer}
}

func (c *ChannelBind) start(lifetime time.Duration, onExpire func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = time.AfterFunc(lifetime, onExpire)
}

func (c *ChannelBind) refresh(lifetime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Reset(lifetime)
	}
}

func (c *ChannelBind) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

// ChannelBindTable is the channel-binding table: two indices over the
// same set of binds, by number and by peer. A number maps to exactly one
// peer; a peer maps to at most one number.
type ChannelBindTable struct {
	mu       sync.Mutex
	byNumber map[uint16]*ChannelBind
	byPeer   map[string]*ChannelBind
}

// NewChannelBindTable creates an empty channel-binding table.
func NewChannelBindTable() *ChannelBindTable {
	return &ChannelBindTable{
		byNumber: make(map[uint16]*ChannelBind),
		byPeer:   make(map[string]*ChannelBind),
	}
}

// Add installs or refreshes c for lifetime, also installing/refreshing a
// Permission for c.Peer's IP on permissions: a channel bind always
// implies a permission for its peer.
func (t *ChannelBindTable) Add(c *ChannelBind, lifetime time.Duration, permissions *PermissionTable) error {
	peerKey := c.Peer.String()

	t.mu.Lock()
	if existing, ok := t.byNumber[c.Number]; ok && existing.Peer.String() != peerKey {
		t.mu.Unlock()
		return ErrSameChannelDifferentPeer
	}
	if existing, ok := t.byPeer[peerKey]; ok && existing.Number != c.Number {
		t.mu.Unlock()
		return ErrSameChannelDifferentPeer
	}

	if existing, ok := t.byNumber[c.Number]; ok {
		t.mu.Unlock()
		existing.refresh(lifetime)
		permissions.Add(NewPermission(existing.Peer))
		return nil
	}
	t.mu.Unlock()

	c.start(lifetime, func() { t.remove(c.Number, peerKey) })

	t.mu.Lock()
	t.byNumber[c.Number] = c
	t.byPeer[peerKey] = c
	t.mu.Unlock()

	permissions.Add(NewPermission(c.Peer))
	return nil
}

// Remove deletes the bind for number from both indices, stopping its
// timer, and reports whether one existed.
func (t *ChannelBindTable) Remove(number uint16) bool {
	t.mu.Lock()
	c, ok := t.byNumber[number]
	if ok {
		delete(t.byNumber, number)
		delete(t.byPeer, c.Peer.String())
	}
	t.mu.Unlock()
	if ok {
		c.stop()
	}
	return ok
}

// AddrForNumber returns the peer address bound to number, if any.
func (t *ChannelBindTable) AddrForNumber(number uint16) *net.UDPAddr {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.byNumber[number]; ok {
		return c.Peer
	}
	return nil
}

// NumberForAddr returns the channel number bound to addr, if any.
func (t *ChannelBindTable) NumberForAddr(addr *net.UDPAddr) (uint16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.byPeer[addr.String()]; ok {
		return c.Number, true
	}
	return 0, false
}

func (t *ChannelBindTable) remove(number uint16, peerKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.byNumber[number]; ok && c.Peer.String() == peerKey {
		delete(t.byNumber, number)
		delete(t.byPeer, peerKey)
	}
}

// StopAll stops every bind's timer without removing entries, used by
// Allocation.Close.
func (t *ChannelBindTable) StopAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.byNumber {
		c.stop()
	}
}
